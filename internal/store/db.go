package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keySettings = "settings"
	keyVersion  = "version"
	prefixState = 0x01
)

var (
	// ErrSettingsMismatch reports a database created with other settings.
	ErrSettingsMismatch = errors.New("database settings mismatch")
	// ErrVersionMismatch reports a database written by another format.
	ErrVersionMismatch = errors.New("database version mismatch")
)

// Settings describe what a database holds. They are written on creation
// and must match on every later open.
type Settings struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	MaxStones   int `json:"max_stones"`
	TransStones int `json:"trans_stones"`
}

// Config holds configuration for a solved-state database.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is
	// true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives badger's internal logging. nil disables it.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// 0 disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DBStats counts database traffic.
type DBStats struct {
	Gets   uint64
	Hits   uint64
	Puts   uint64
	Writes uint64
}

// DB is a badger database of encoded records keyed by stone count and
// position hash.
type DB struct {
	db       *badger.DB
	settings Settings
	version  string

	gets   atomic.Uint64
	hits   atomic.Uint64
	puts   atomic.Uint64
	writes atomic.Uint64

	stopGC context.CancelFunc
	gcDone chan struct{}
}

// OpenDB opens or creates a database. A new database records settings and
// version; an existing one must match them.
func OpenDB(cfg Config, settings Settings, version string) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	d := &DB{db: bdb, settings: settings, version: version}
	if err := d.checkHeader(); err != nil {
		bdb.Close()
		return nil, err
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		d.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return d, nil
}

// checkHeader writes or validates the settings and version records.
func (d *DB) checkHeader() error {
	return d.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyVersion))
		if err == badger.ErrKeyNotFound {
			data, err := json.Marshal(d.settings)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(keySettings), data); err != nil {
				return err
			}
			return txn.Set([]byte(keyVersion), []byte(d.version))
		}
		if err != nil {
			return err
		}

		var version string
		if err := item.Value(func(val []byte) error {
			version = string(val)
			return nil
		}); err != nil {
			return err
		}
		if version != d.version {
			return fmt.Errorf("%w: have %q, want %q", ErrVersionMismatch, version, d.version)
		}

		item, err = txn.Get([]byte(keySettings))
		if err != nil {
			return fmt.Errorf("%w: settings: %v", ErrCorruptRecord, err)
		}
		var stored Settings
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return fmt.Errorf("%w: settings: %v", ErrCorruptRecord, err)
		}
		if stored != d.settings {
			return fmt.Errorf("%w: have %+v, want %+v", ErrSettingsMismatch, stored, d.settings)
		}
		return nil
	})
}

func (d *DB) startGC(interval time.Duration, ratio float64) {
	if ratio <= 0 {
		ratio = 0.5
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.stopGC = cancel
	d.gcDone = make(chan struct{})
	go func() {
		defer close(d.gcDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for d.db.RunValueLogGC(ratio) == nil {
				}
			}
		}
	}()
}

// Settings returns the settings the database was opened with.
func (d *DB) Settings() Settings {
	return d.settings
}

// Close closes the database.
func (d *DB) Close() error {
	if d.stopGC != nil {
		d.stopGC()
		<-d.gcDone
	}
	return d.db.Close()
}

func stateKey(stones int, hash uint64) []byte {
	key := make([]byte, 10)
	key[0] = prefixState
	key[1] = byte(stones)
	binary.BigEndian.PutUint64(key[2:], hash)
	return key
}

// sealValue appends an xxhash checksum to data.
func sealValue(data []byte) []byte {
	val := make([]byte, len(data)+8)
	copy(val, data)
	binary.BigEndian.PutUint64(val[len(data):], xxhash.Sum64(data))
	return val
}

// openValue strips and checks the checksum written by sealValue.
func openValue(val []byte) ([]byte, error) {
	if len(val) < 8 {
		return nil, fmt.Errorf("%w: value of %d bytes", ErrCorruptRecord, len(val))
	}
	data, sum := val[:len(val)-8], binary.BigEndian.Uint64(val[len(val)-8:])
	if xxhash.Sum64(data) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptRecord)
	}
	return data, nil
}

// Get returns the encoded record for a position, or nil if absent.
func (d *DB) Get(stones int, hash uint64) ([]byte, error) {
	d.gets.Add(1)
	var data []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey(stones, hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get state %016x: %w", hash, err)
	}
	if data == nil {
		return nil, nil
	}
	d.hits.Add(1)
	if data, err = openValue(data); err != nil {
		return nil, fmt.Errorf("get state %016x: %w", hash, err)
	}
	return data, nil
}

// Put stores the encoded record of a position.
func (d *DB) Put(stones int, hash uint64, data []byte) error {
	d.puts.Add(1)
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey(stones, hash), sealValue(data))
	})
	if err != nil {
		return fmt.Errorf("put state %016x: %w", hash, err)
	}
	d.writes.Add(1)
	return nil
}

// Entry is one record of a bulk insert.
type Entry struct {
	Stones int
	Hash   uint64
	Data   []byte
}

// PutBatch stores many records with a single write batch.
func (d *DB) PutBatch(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		d.puts.Add(1)
		if err := wb.Set(stateKey(e.Stones, e.Hash), sealValue(e.Data)); err != nil {
			return fmt.Errorf("batch put: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("batch flush: %w", err)
	}
	d.writes.Add(uint64(len(entries)))
	return nil
}

// CountByStones returns how many states are stored per stone count.
func (d *DB) CountByStones() (map[int]int, error) {
	counts := make(map[int]int)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{prefixState}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) == 10 {
				counts[int(key[1])]++
			}
		}
		return nil
	})
	return counts, err
}

// Stats returns the traffic counters.
func (d *DB) Stats() DBStats {
	return DBStats{
		Gets:   d.gets.Load(),
		Hits:   d.hits.Load(),
		Puts:   d.puts.Load(),
		Writes: d.writes.Load(),
	}
}
