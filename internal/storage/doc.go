// Package storage implements the partition, the unit of locking and
// persistence in nuke. A partition owns one shard of the key space, guards
// it with a reader/writer lock, and snapshots it to a JSON file.
//
// # Overview
//
// The store is split into a fixed number of partitions (see package
// database). Each partition is fully independent: it has its own map, its
// own lock, and its own snapshot file. Nothing in this package ever holds
// two partition locks at once.
//
//	┌─────────────────────────────────────┐
//	│            Partition                │
//	├─────────────────────────────────────┤
//	│  entries  map[string]*Entry         │
//	│  mu       sync.RWMutex              │
//	│  path     <base>/partition_<n>      │
//	│  ops      atomic counters           │
//	└─────────────────────────────────────┘
//
// # Entry Lifecycle
//
// A key is in one of three states:
//
//	absent ──Insert──▶ live ──Delete──▶ tombstoned
//	                    ▲                   │
//	                    └──────Insert───────┘
//
// Delete never removes an entry from the map; it sets Deleted. Insert always
// replaces the map entry with a fresh live one, which is the only way back
// from a tombstone. Tombstones count toward Count and appear in Keys and are
// never compacted.
//
// # Operations
//
// Insert (write lock):
//   - Always succeeds
//   - Computes the key fingerprint
//   - Replaces any previous entry
//
// Delete (write lock):
//   - Absent key: ErrCacheItemNotFound
//   - Tombstoned key: ErrCacheItemNotFound
//   - Live key: flips the tombstone, returns the entry
//
// Read (read lock):
//   - Absent key: ErrCacheItemNotFound
//   - Tombstoned key: ErrReadError
//   - Live key: returns a copy of the entry
//
// Count, Keys, Stats take the read lock. Clear takes the write lock.
//
// Values are copied on the way in and on the way out; callers may freely
// modify the slices they pass or receive.
//
// # Snapshots
//
// A snapshot is one JSON object per partition mapping each key to its entry:
//
//	{
//	  "a": {"key": "a", "hashed_key": 620310408636712809, "value": [1,2,3], "deleted": true}
//	}
//
// Values are arrays of integers, not base64 strings.
//
// LoadSnapshot runs once at construction. A missing file means a new
// partition. Any other failure is returned to the caller; decode failures
// wrap ErrSnapshotCorrupt so startup can refuse to run over corrupt data.
//
// PersistSnapshot holds the write lock while it encodes and writes, so it
// blocks and is blocked by writers on the same partition only. The file is
// written to <path>.tmp and renamed into place. Failures are logged and
// returned; they never change in-memory state.
//
// # Error Handling
//
//   - ErrCacheItemNotFound: no entry, or delete of a tombstone
//   - ErrReadError: read of a tombstone
//   - ErrPushError, ErrPopError: reserved for insert/delete validation
//   - ErrSnapshotCorrupt: snapshot exists but does not decode
//
// # Testing
//
//	go test ./internal/storage/...
//	go test -race ./internal/storage/...
package storage
