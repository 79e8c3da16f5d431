// Package database owns the fixed set of partitions that make up a nuke
// store and routes every key to exactly one of them.
//
// # Overview
//
//	            ┌──────────────────────────┐
//	key ──────▶ │ Database.Route(key)      │
//	            │ shard.Index(key, n)      │
//	            └────────────┬─────────────┘
//	                         │
//	     ┌──────────┬────────┼────────┬──────────┐
//	     ▼          ▼        ▼        ▼          ▼
//	┌─────────┐┌─────────┐      ┌─────────┐┌─────────┐
//	│ part 0  ││ part 1  │ ...  │ part n-2││ part n-1│
//	└─────────┘└─────────┘      └─────────┘└─────────┘
//
// The partition count is fixed by New and never changes. Each partition
// snapshots to <base>/partition_<i>. Opening a directory with a different
// count than it was written with routes keys to the wrong partitions.
//
// # Construction
//
// New validates the count, creates the base directory, then builds and
// loads partitions sequentially. A corrupt snapshot aborts construction;
// the caller (process startup) decides whether to exit.
//
// # Single-key Operations
//
// Insert, Delete and Read route the key once and forward the partition's
// result unchanged, including its errors (storage.ErrCacheItemNotFound,
// storage.ErrReadError).
//
// # Aggregate Operations
//
// CountAll, CountPerPartition, KeysAll, ClearAll, PersistAll and Stats visit
// partitions one at a time. They are not atomic across partitions: a
// concurrent writer can change partition 5 while ClearAll is still working
// on partition 2.
//
// # Background Snapshots
//
// Snapshotter calls PersistAll on a fixed interval. It is optional; most
// deployments persist on shutdown or on an explicit admin command.
//
// # Concurrency
//
// A single *Database is shared by every connection goroutine. The
// partition slice is immutable after New, so routing needs no lock. No
// method acquires more than one partition lock at a time, which rules out
// lock-ordering deadlocks between partitions.
package database
