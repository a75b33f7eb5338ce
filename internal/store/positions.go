// Package store caches solved positions in memory and in a badger database.
package store

import (
	"sync/atomic"

	"github.com/hailam/hexsolver/internal/board"
)

// Database format versions.
const (
	DFSVersion  = "hexsolver-dfs-1"
	DFPNVersion = "hexsolver-dfpn-1"
)

// Positions combines a hash table and an optional database. States with at
// most MaxStones stones go to the database; states with at most
// TransStones stones are also stored under their symmetric variants.
type Positions[T Record[T]] struct {
	table  *Table[T]
	db     *DB
	decode func([]byte) (T, error)

	maxStones   int
	transStones int

	transWrites atomic.Uint64
}

// NewPositions creates a store. Either table or db may be nil. Without a
// database the stone thresholds come from settings alone.
func NewPositions[T Record[T]](table *Table[T], db *DB, settings Settings, decode func([]byte) (T, error)) *Positions[T] {
	if db != nil {
		settings = db.Settings()
	}
	return &Positions[T]{
		table:       table,
		db:          db,
		decode:      decode,
		maxStones:   settings.MaxStones,
		transStones: settings.TransStones,
	}
}

// NewDFSPositions is NewPositions for DFS records.
func NewDFSPositions(table *Table[DFSRecord], db *DB, settings Settings) *Positions[DFSRecord] {
	return NewPositions(table, db, settings, DecodeDFSRecord)
}

// NewDFPNPositions is NewPositions for DFPN records.
func NewDFPNPositions(table *Table[DFPNRecord], db *DB, settings Settings) *Positions[DFPNRecord] {
	return NewPositions(table, db, settings, DecodeDFPNRecord)
}

// TransStones returns the largest stone count stored with symmetric
// variants.
func (p *Positions[T]) TransStones() int { return p.transStones }

// useDB reports whether positions with this many stones are persisted.
func (p *Positions[T]) useDB(stones int) bool {
	return p.db != nil && stones <= p.maxStones
}

func (p *Positions[T]) get(stones int, hash uint64) (T, bool, error) {
	if p.table != nil {
		if rec, ok := p.table.Get(hash); ok {
			return rec, true, nil
		}
	}
	var zero T
	if !p.useDB(stones) {
		return zero, false, nil
	}
	data, err := p.db.Get(stones, hash)
	if err != nil || data == nil {
		return zero, false, err
	}
	rec, err := p.decode(data)
	if err != nil {
		return zero, false, err
	}
	if p.table != nil {
		p.table.Put(hash, rec)
	}
	return rec, true, nil
}

// Lookup returns the record of pos. The 180 degree rotation of pos is
// checked as well; a record found that way is rotated back.
func (p *Positions[T]) Lookup(pos *board.Position) (T, bool, error) {
	stones := pos.NumStones()
	rec, ok, err := p.get(stones, pos.Hash())
	if ok || err != nil {
		return rec, ok, err
	}
	rot := pos.Rotated()
	if rot.Hash() == pos.Hash() {
		return rec, false, nil
	}
	rec, ok, err = p.get(stones, rot.Hash())
	if !ok || err != nil {
		return rec, ok, err
	}
	return rec.Transform(pos.Geometry().Rotate), true, nil
}

func (p *Positions[T]) put(stones int, hash uint64, rec T) error {
	if p.table != nil {
		p.table.Put(hash, rec)
	}
	if !p.useDB(stones) {
		return nil
	}
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return p.db.Put(stones, hash, data)
}

// Put stores the record of pos without symmetric variants.
func (p *Positions[T]) Put(pos *board.Position, rec T) error {
	return p.put(pos.NumStones(), pos.Hash(), rec)
}

// Store stores the record of pos. Small states are also stored rotated
// and, on square boards, flipped.
func (p *Positions[T]) Store(pos *board.Position, rec T) error {
	stones := pos.NumStones()
	if err := p.put(stones, pos.Hash(), rec); err != nil {
		return err
	}
	if stones > p.transStones {
		return nil
	}
	geo := pos.Geometry()
	variants := []*board.Position{pos.Rotated()}
	recs := []T{rec.Transform(geo.Rotate)}
	if f, ok := pos.Flipped(); ok {
		variants = append(variants, f, f.Rotated())
		flipped := rec.Transform(geo.Mirror)
		recs = append(recs, flipped, flipped.Transform(geo.Rotate))
	}
	return p.storeVariants(variants, recs)
}

// StoreTranspositions stores rec under every position in variants. The
// caller guarantees the positions are equivalent to the solved one.
func (p *Positions[T]) StoreTranspositions(variants []*board.Position, rec T) error {
	recs := make([]T, len(variants))
	for i := range recs {
		recs[i] = rec
	}
	return p.storeVariants(variants, recs)
}

func (p *Positions[T]) storeVariants(variants []*board.Position, recs []T) error {
	var batch []Entry
	for i, v := range variants {
		stones := v.NumStones()
		if p.table != nil {
			p.table.Put(v.Hash(), recs[i])
		}
		p.transWrites.Add(1)
		if !p.useDB(stones) {
			continue
		}
		data, err := recs[i].MarshalBinary()
		if err != nil {
			return err
		}
		batch = append(batch, Entry{Stones: stones, Hash: v.Hash(), Data: data})
	}
	if p.db == nil {
		return nil
	}
	return p.db.PutBatch(batch)
}

// Stats summarises table and database counters.
type Stats struct {
	Table       TableStats
	DB          DBStats
	TransWrites uint64
}

// Stats returns the current counters.
func (p *Positions[T]) Stats() Stats {
	var s Stats
	if p.table != nil {
		s.Table = p.table.Stats()
	}
	if p.db != nil {
		s.DB = p.db.Stats()
	}
	s.TransWrites = p.transWrites.Load()
	return s
}
