package shard

import (
	"hash/fnv"
)

// keyTerminator is appended to every key before hashing. Existing snapshot
// files were written with terminated string hashes.
const keyTerminator = 0xff

// Hash returns the canonical 64-bit hash of a key.
// It is FNV-1a over the key bytes followed by a single terminator byte and
// is stable across processes, which snapshot routing depends on.
func Hash(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	h.Write([]byte{keyTerminator})
	return h.Sum64()
}

// Fingerprint returns the value stored alongside an entry to record which
// key it was hashed from. It is the same function used for routing.
func Fingerprint(key string) uint64 {
	return Hash(key)
}

// Index determines which of numShards partitions owns a key.
// Panics if numShards is not positive; callers validate the count once at
// construction time.
func Index(key string, numShards int) int {
	if numShards <= 0 {
		panic("shard: number of shards must be positive")
	}
	return int(Hash(key) % uint64(numShards))
}

// Owns reports whether the partition with the given id owns key.
func Owns(id int, key string, numShards int) bool {
	if numShards <= 0 {
		return false
	}
	return Index(key, numShards) == id
}
