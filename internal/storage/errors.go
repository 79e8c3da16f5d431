package storage

import "errors"

var (
	// ErrCacheItemNotFound is returned when a key has no entry, or when a
	// delete targets an entry that is already tombstoned.
	ErrCacheItemNotFound = errors.New("cache item not found")

	// ErrReadError is returned when reading a key whose entry is tombstoned.
	ErrReadError = errors.New("cache item deleted")

	// ErrPushError is reserved for insert validation failures.
	ErrPushError = errors.New("push failed")

	// ErrPopError is reserved for delete validation failures.
	ErrPopError = errors.New("pop failed")

	// ErrSnapshotCorrupt is returned when a snapshot file exists but cannot
	// be decoded.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)
