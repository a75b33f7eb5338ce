package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hailam/hexsolver/internal/board"
)

// ErrCorruptRecord reports a persisted record that cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt record")

// Record is a solved-position record that can be persisted and moved to
// a symmetric position.
type Record[T any] interface {
	MarshalBinary() ([]byte, error)
	// Transform returns the record with every cell mapped through f.
	Transform(f func(board.Cell) board.Cell) T
}

// DFSRecord is the result of a DFS solve of one position, relative to the
// side to move.
type DFSRecord struct {
	Win       bool
	NumMoves  int // moves to connection
	BestMove  board.Cell
	NumStates uint64
}

const dfsRecordSize = 1 + 4 + 1 + 8

// MarshalBinary encodes the record.
func (r DFSRecord) MarshalBinary() ([]byte, error) {
	buf := make([]byte, dfsRecordSize)
	if r.Win {
		buf[0] = 1
	}
	binary.BigEndian.PutUint32(buf[1:5], uint32(int32(r.NumMoves)))
	buf[5] = byte(r.BestMove)
	binary.BigEndian.PutUint64(buf[6:14], r.NumStates)
	return buf, nil
}

// DecodeDFSRecord decodes a record written by MarshalBinary.
func DecodeDFSRecord(data []byte) (DFSRecord, error) {
	if len(data) != dfsRecordSize || data[0] > 1 {
		return DFSRecord{}, fmt.Errorf("%w: dfs record of %d bytes", ErrCorruptRecord, len(data))
	}
	return DFSRecord{
		Win:       data[0] == 1,
		NumMoves:  int(int32(binary.BigEndian.Uint32(data[1:5]))),
		BestMove:  board.Cell(data[5]),
		NumStates: binary.BigEndian.Uint64(data[6:14]),
	}, nil
}

// Transform maps the best move.
func (r DFSRecord) Transform(f func(board.Cell) board.Cell) DFSRecord {
	r.BestMove = f(r.BestMove)
	return r
}

// Infinity is the proof number of a decided node.
const Infinity = 2000000000

// Bounds are the proof and disproof numbers of a DFPN node. Phi == 0 means
// the side to move wins; Delta == 0 means it loses.
type Bounds struct {
	Phi   uint32
	Delta uint32
}

// Winning returns the bounds of a won node.
func Winning() Bounds { return Bounds{Phi: 0, Delta: Infinity} }

// Losing returns the bounds of a lost node.
func Losing() Bounds { return Bounds{Phi: Infinity, Delta: 0} }

// IsWinning reports a proven win for the side to move.
func (b Bounds) IsWinning() bool { return b.Phi == 0 }

// IsLosing reports a proven loss for the side to move.
func (b Bounds) IsLosing() bool { return b.Delta == 0 }

// IsSolved reports whether the node is decided.
func (b Bounds) IsSolved() bool { return b.IsWinning() || b.IsLosing() }

// Check returns an error when the bounds are inconsistent.
func (b Bounds) Check() error {
	switch {
	case b.Phi > Infinity || b.Delta > Infinity:
		return fmt.Errorf("bounds (%d, %d) exceed infinity", b.Phi, b.Delta)
	case b.Phi == 0 && b.Delta != Infinity, b.Delta == 0 && b.Phi != Infinity:
		return fmt.Errorf("solved bounds (%d, %d) are inconsistent", b.Phi, b.Delta)
	}
	return nil
}

// String formats the bounds.
func (b Bounds) String() string {
	f := func(v uint32) string {
		if v == Infinity {
			return "inf"
		}
		return fmt.Sprint(v)
	}
	return "[" + f(b.Phi) + ", " + f(b.Delta) + "]"
}

// DFPNRecord is the state of a DFPN node.
type DFPNRecord struct {
	Bounds      Bounds
	Children    []board.Cell
	BestMove    board.Cell
	Work        uint64
	MaxProofSet board.Bitset
	ParentHash  uint64
}

const dfpnRecordHeader = 4 + 4 + 1 + 8 + 8 + 16 + 1

// MarshalBinary encodes the record.
func (r DFPNRecord) MarshalBinary() ([]byte, error) {
	if len(r.Children) > 255 {
		return nil, fmt.Errorf("dfpn record with %d children", len(r.Children))
	}
	buf := make([]byte, dfpnRecordHeader+len(r.Children))
	binary.BigEndian.PutUint32(buf[0:4], r.Bounds.Phi)
	binary.BigEndian.PutUint32(buf[4:8], r.Bounds.Delta)
	buf[8] = byte(r.BestMove)
	binary.BigEndian.PutUint64(buf[9:17], r.Work)
	binary.BigEndian.PutUint64(buf[17:25], r.ParentHash)
	binary.BigEndian.PutUint64(buf[25:33], r.MaxProofSet[0])
	binary.BigEndian.PutUint64(buf[33:41], r.MaxProofSet[1])
	buf[41] = byte(len(r.Children))
	for i, c := range r.Children {
		buf[dfpnRecordHeader+i] = byte(c)
	}
	return buf, nil
}

// DecodeDFPNRecord decodes a record written by MarshalBinary.
func DecodeDFPNRecord(data []byte) (DFPNRecord, error) {
	if len(data) < dfpnRecordHeader || len(data) != dfpnRecordHeader+int(data[41]) {
		return DFPNRecord{}, fmt.Errorf("%w: dfpn record of %d bytes", ErrCorruptRecord, len(data))
	}
	r := DFPNRecord{
		Bounds: Bounds{
			Phi:   binary.BigEndian.Uint32(data[0:4]),
			Delta: binary.BigEndian.Uint32(data[4:8]),
		},
		BestMove:    board.Cell(data[8]),
		Work:        binary.BigEndian.Uint64(data[9:17]),
		ParentHash:  binary.BigEndian.Uint64(data[17:25]),
		MaxProofSet: board.Bitset{binary.BigEndian.Uint64(data[25:33]), binary.BigEndian.Uint64(data[33:41])},
	}
	if err := r.Bounds.Check(); err != nil {
		return DFPNRecord{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if n := int(data[41]); n > 0 {
		r.Children = make([]board.Cell, n)
		for i := range r.Children {
			r.Children[i] = board.Cell(data[dfpnRecordHeader+i])
		}
	}
	return r, nil
}

// Transform maps the children, best move and maximum proof set.
func (r DFPNRecord) Transform(f func(board.Cell) board.Cell) DFPNRecord {
	children := make([]board.Cell, len(r.Children))
	for i, c := range r.Children {
		children[i] = f(c)
	}
	r.Children = children
	r.BestMove = f(r.BestMove)
	var mps board.Bitset
	for s := r.MaxProofSet; s.Any(); {
		mps = mps.Set(f(s.PopFirst()))
	}
	r.MaxProofSet = mps
	return r
}
