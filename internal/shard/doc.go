// Package shard owns the single routing function of the store: the mapping
// from a key to the partition that holds it.
//
// # Overview
//
// Every key is hashed with one canonical, content-based 64-bit hash. The
// same hash serves two purposes:
//
//   - Routing: Index(key, n) = Hash(key) mod n picks the owning partition
//   - Fingerprinting: each stored entry records Fingerprint(key) so that a
//     snapshot file carries the origin of every key it contains
//
// # Hash Function
//
// Hash is 64-bit FNV-1a computed over the key bytes followed by one 0xff
// terminator byte:
//
//	offset basis 0xcbf29ce484222325
//	for each byte b in key + [0xff]:
//	    h ^= b
//	    h *= 0x100000001b3
//
// The terminator matches the way earlier versions of the server fed string
// keys into FNV, so data directories written by those versions keep routing
// to the same partitions.
//
// # Stability
//
// Routing is a pure function of the key and the partition count. Changing
// either the hash or the count makes previously persisted snapshots
// unaddressable: keys would be looked up in partitions that never stored
// them. Safe re-sharding is not supported.
//
//	┌──────────┐   Hash    ┌────────────┐  mod n   ┌─────────────┐
//	│   key    │ ────────▶ │   uint64   │ ───────▶ │ partition i │
//	└──────────┘           └────────────┘          └─────────────┘
//
// # Usage
//
//	idx := shard.Index("user:123", 10)
//	if shard.Owns(idx, "user:123", 10) {
//	    // always true
//	}
package shard
