package storage

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dreamware/nuke/internal/shard"
)

// Store defines the per-partition key-value contract.
// All implementations must be thread-safe for concurrent access.
type Store interface {
	// Insert stores value under key, replacing any live or tombstoned entry
	Insert(key string, value []byte) Entry

	// Delete tombstones a live entry
	// Returns ErrCacheItemNotFound if the key is absent or already tombstoned
	Delete(key string) (Entry, error)

	// Read returns the live entry for key
	// Returns ErrCacheItemNotFound if absent, ErrReadError if tombstoned
	Read(key string) (Entry, error)

	// Count returns the number of entries, tombstones included
	Count() int

	// Keys returns every key, live or tombstoned
	// Order is not guaranteed
	Keys() []string

	// Clear removes every entry
	Clear()
}

// OperationStats tracks operation counts
type OperationStats struct {
	Reads   uint64 // Number of read operations
	Inserts uint64 // Number of insert operations
	Deletes uint64 // Number of delete operations
}

// PartitionStats contains statistics about a partition
type PartitionStats struct {
	Number     int            `json:"partition"`
	Entries    int            `json:"entries"`
	Live       int            `json:"live"`
	Tombstoned int            `json:"tombstoned"`
	Bytes      int            `json:"bytes"`
	Persisted  bool           `json:"persisted"`
	Ops        OperationStats `json:"ops"`
}

// Partition owns one shard of the key space.
// Every access to entries goes through mu; a Partition never calls into
// another Partition.
type Partition struct {
	mu        sync.RWMutex      // Protects entries and persisted
	entries   map[string]*Entry // Key to entry, tombstones included
	path      string            // Snapshot file
	logger    *zap.Logger
	ops       OperationStats // Updated atomically
	number    int
	persisted bool
}

// NewPartition creates an empty partition that snapshots to path.
// It does not touch the filesystem; call LoadSnapshot to resume data.
func NewPartition(number int, path string, logger *zap.Logger) *Partition {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Partition{
		entries: make(map[string]*Entry),
		number:  number,
		path:    path,
		logger:  logger.With(zap.Int("partition", number)),
	}
}

// Number returns the 0-based partition identity
func (p *Partition) Number() int {
	return p.number
}

// Path returns the snapshot file path
func (p *Partition) Path() string {
	return p.path
}

// Persisted reports whether data was resumed from a snapshot at startup
func (p *Partition) Persisted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.persisted
}

// Insert stores a copy of value under key and returns the stored entry.
// A previous entry for key, live or tombstoned, is replaced.
func (p *Partition) Insert(key string, value []byte) Entry {
	atomic.AddUint64(&p.ops.Inserts, 1)

	// Make a copy to prevent external modification
	stored := make(Bytes, len(value))
	copy(stored, value)

	entry := &Entry{
		Key:       key,
		HashedKey: shard.Fingerprint(key),
		Value:     stored,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries[key] = entry
	return entry.clone()
}

// Delete flips the tombstone on a live entry and returns it.
// Deleting an absent or already tombstoned key is an error, not a no-op.
func (p *Partition) Delete(key string) (Entry, error) {
	atomic.AddUint64(&p.ops.Deletes, 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	entry, exists := p.entries[key]
	if !exists || entry.Deleted {
		return Entry{}, ErrCacheItemNotFound
	}

	entry.Deleted = true
	return entry.clone(), nil
}

// Read returns a copy of the live entry for key
func (p *Partition) Read(key string) (Entry, error) {
	atomic.AddUint64(&p.ops.Reads, 1)

	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, exists := p.entries[key]
	if !exists {
		return Entry{}, ErrCacheItemNotFound
	}
	if entry.Deleted {
		return Entry{}, ErrReadError
	}
	return entry.clone(), nil
}

// Count returns the number of entries including tombstones
func (p *Partition) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Keys returns every key in the partition, live or tombstoned
func (p *Partition) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, 0, len(p.entries))
	for key := range p.entries {
		keys = append(keys, key)
	}
	return keys
}

// Clear removes every entry
func (p *Partition) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]*Entry)
}

// Stats returns current partition statistics
func (p *Partition) Stats() PartitionStats {
	p.mu.RLock()
	stats := PartitionStats{
		Number:    p.number,
		Entries:   len(p.entries),
		Persisted: p.persisted,
	}
	for _, entry := range p.entries {
		if entry.Deleted {
			stats.Tombstoned++
			continue
		}
		stats.Live++
		stats.Bytes += len(entry.Value)
	}
	p.mu.RUnlock()

	stats.Ops = OperationStats{
		Reads:   atomic.LoadUint64(&p.ops.Reads),
		Inserts: atomic.LoadUint64(&p.ops.Inserts),
		Deletes: atomic.LoadUint64(&p.ops.Deletes),
	}
	return stats
}
