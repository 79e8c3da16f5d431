package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dreamware/nuke/internal/shard"
	"github.com/dreamware/nuke/internal/storage"
)

// ErrInvalidPartitionCount is returned by New for a non-positive count.
var ErrInvalidPartitionCount = errors.New("partition count must be positive")

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger used by the database and its partitions.
func WithLogger(logger *zap.Logger) Option {
	return func(db *Database) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// Database routes keys to a fixed set of partitions.
//
// The partition slice is built once in New and never modified, so it is
// read without locking. All synchronization lives in the partitions, and
// no Database method holds more than one partition lock at a time.
type Database struct {
	logger     *zap.Logger
	basePath   string
	partitions []*storage.Partition
}

// PartitionPath returns the snapshot path of partition i under basePath.
func PartitionPath(basePath string, i int) string {
	return filepath.Join(basePath, fmt.Sprintf("partition_%d", i))
}

// New creates count partitions under basePath and loads any existing
// snapshots, one partition after another.
//
// A corrupt snapshot aborts construction and the error (wrapping
// storage.ErrSnapshotCorrupt) is returned. A missing snapshot is not an
// error.
func New(count int, basePath string, opts ...Option) (*Database, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPartitionCount, count)
	}

	db := &Database{
		logger:     zap.NewNop(),
		basePath:   basePath,
		partitions: make([]*storage.Partition, 0, count),
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", basePath, err)
	}

	resumed := 0
	for i := 0; i < count; i++ {
		p := storage.NewPartition(i, PartitionPath(basePath, i), db.logger)

		loaded, err := p.LoadSnapshot()
		if err != nil {
			return nil, fmt.Errorf("load partition %d: %w", i, err)
		}
		if loaded {
			resumed++
		}

		db.partitions = append(db.partitions, p)
	}

	db.logger.Info("database opened",
		zap.String("path", basePath),
		zap.Int("partitions", count),
		zap.Int("resumed", resumed))
	return db, nil
}

// BasePath returns the directory holding the snapshot files
func (db *Database) BasePath() string {
	return db.basePath
}

// PartitionCount returns the fixed number of partitions
func (db *Database) PartitionCount() int {
	return len(db.partitions)
}

// Partition returns partition i, or nil if i is out of range
func (db *Database) Partition(i int) *storage.Partition {
	if i < 0 || i >= len(db.partitions) {
		return nil
	}
	return db.partitions[i]
}

// Partitions returns the partitions in index order.
// The returned slice is a copy; the partitions themselves are shared.
func (db *Database) Partitions() []*storage.Partition {
	return slices.Clone(db.partitions)
}

// Route returns the index of the partition that owns key.
// It is the only routing decision in the process: reads, writes and
// snapshots all go through it.
func (db *Database) Route(key string) int {
	return shard.Index(key, len(db.partitions))
}

func (db *Database) partitionFor(key string) *storage.Partition {
	return db.partitions[db.Route(key)]
}

// Insert stores value under key in the owning partition
func (db *Database) Insert(key string, value []byte) storage.Entry {
	return db.partitionFor(key).Insert(key, value)
}

// Delete tombstones key in the owning partition
func (db *Database) Delete(key string) (storage.Entry, error) {
	return db.partitionFor(key).Delete(key)
}

// Read returns the live entry for key from the owning partition
func (db *Database) Read(key string) (storage.Entry, error) {
	return db.partitionFor(key).Read(key)
}

// CountAll returns the number of entries in all partitions, tombstones
// included. Partitions are counted one at a time, so the total is not a
// point-in-time snapshot under concurrent writes.
func (db *Database) CountAll() int {
	total := 0
	for _, p := range db.partitions {
		total += p.Count()
	}
	return total
}

// CountPerPartition returns the entry count of each partition in index order
func (db *Database) CountPerPartition() []int {
	counts := make([]int, len(db.partitions))
	for i, p := range db.partitions {
		counts[i] = p.Count()
	}
	return counts
}

// KeysAll returns the union of every partition's keys.
// Partitions are disjoint, so no key appears twice. Order is not guaranteed.
func (db *Database) KeysAll() []string {
	var keys []string
	for _, p := range db.partitions {
		keys = append(keys, p.Keys()...)
	}
	return keys
}

// ClearAll clears every partition.
// There is no cross-partition atomicity: a concurrent reader may observe
// some partitions cleared and others not.
func (db *Database) ClearAll() {
	for _, p := range db.partitions {
		p.Clear()
	}
	db.logger.Info("database cleared")
}

// PersistAll snapshots every partition.
// A failing partition does not stop the others; all failures are joined.
func (db *Database) PersistAll() error {
	var errs []error
	for _, p := range db.partitions {
		if err := p.PersistSnapshot(); err != nil {
			errs = append(errs, fmt.Errorf("partition %d: %w", p.Number(), err))
		}
	}

	if len(errs) > 0 {
		db.logger.Warn("persist completed with errors", zap.Int("failed", len(errs)))
		return errors.Join(errs...)
	}
	db.logger.Debug("all partitions persisted", zap.Int("partitions", len(db.partitions)))
	return nil
}

// Stats returns the statistics of each partition in index order
func (db *Database) Stats() []storage.PartitionStats {
	stats := make([]storage.PartitionStats, len(db.partitions))
	for i, p := range db.partitions {
		stats[i] = p.Stats()
	}
	return stats
}
