package store

import (
	"sync"
	"sync/atomic"
)

// Number of shards for table locking (power of 2 for fast modulo)
const shardCount = 256
const shardMask = shardCount - 1

// entry is one slot of a Table.
type entry[T any] struct {
	key  uint64 // full 64-bit Zobrist hash for verification
	used bool
	data T
}

// Table is a fixed-size hash table of solved positions.
// Uses sharded locking so one table may be shared between workers.
type Table[T any] struct {
	entries []entry[T]
	shards  [shardCount]sync.RWMutex
	size    uint64
	mask    uint64

	// Statistics (atomic for thread-safety)
	hits   atomic.Uint64
	probes atomic.Uint64
	stores atomic.Uint64
}

// NewTable creates a table with 2^bits entries.
func NewTable[T any](bits uint) *Table[T] {
	if bits == 0 {
		bits = 1
	}
	numEntries := uint64(1) << bits
	return &Table[T]{
		entries: make([]entry[T], numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// shardIndex returns the shard index for a given entry index.
func (t *Table[T]) shardIndex(idx uint64) int {
	return int(idx & shardMask)
}

// Get looks up a position.
func (t *Table[T]) Get(hash uint64) (T, bool) {
	t.probes.Add(1)

	idx := hash & t.mask
	shard := t.shardIndex(idx)

	t.shards[shard].RLock()
	e := t.entries[idx]
	t.shards[shard].RUnlock()

	if e.used && e.key == hash {
		t.hits.Add(1)
		return e.data, true
	}
	var zero T
	return zero, false
}

// Put saves a position, evicting whatever occupied its slot. The search
// relies on its most recent write being readable again, so newer entries
// always win over older ones.
func (t *Table[T]) Put(hash uint64, data T) {
	idx := hash & t.mask
	shard := t.shardIndex(idx)

	t.shards[shard].Lock()
	e := &t.entries[idx]
	e.key = hash
	e.used = true
	e.data = data
	t.shards[shard].Unlock()
	t.stores.Add(1)
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (t *Table[T]) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > t.size {
		sampleSize = int(t.size)
	}
	for i := 0; i < sampleSize; i++ {
		if t.entries[i].used {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// TableStats is a snapshot of table counters.
type TableStats struct {
	Probes   uint64
	Hits     uint64
	Stores   uint64
	HashFull int
}

// Stats returns the current counters.
func (t *Table[T]) Stats() TableStats {
	return TableStats{
		Probes:   t.probes.Load(),
		Hits:     t.hits.Load(),
		Stores:   t.stores.Load(),
		HashFull: t.HashFull(),
	}
}
