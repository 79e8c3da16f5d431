package shard

import (
	"fmt"
	"hash/fnv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// TestHash pins the hash to known values so snapshot routing never drifts
func TestHash(t *testing.T) {
	tests := []struct {
		key      string
		expected uint64
	}{
		{key: "", expected: 12638352127299873646},
		{key: "a", expected: 620310408636712809},
		{key: "key", expected: 6348100577171099721},
		{key: "user:123", expected: 4030698300335698309},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("hash %q", tt.key), func(t *testing.T) {
			assert.Equal(t, tt.expected, Hash(tt.key))
		})
	}
}

// TestHashIncludesTerminator verifies the key is not hashed as plain FNV-1a
func TestHashIncludesTerminator(t *testing.T) {
	h := fnv.New64a()
	h.Write([]byte("key"))
	assert.NotEqual(t, h.Sum64(), Hash("key"))

	h.Write([]byte{0xff})
	assert.Equal(t, h.Sum64(), Hash("key"))
}

func TestFingerprintMatchesHash(t *testing.T) {
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key_%d", i)
		assert.Equal(t, Hash(key), Fingerprint(key))
	}
}

// TestIndex tests shard selection for a fixed set of keys
func TestIndex(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		numShards int
		expected  int
	}{
		{name: "single shard owns everything", key: "anything", numShards: 1, expected: 0},
		{name: "empty key with 10 shards", key: "", numShards: 10, expected: 6},
		{name: "key a with 10 shards", key: "a", numShards: 10, expected: 9},
		{name: "key with 10 shards", key: "key", numShards: 10, expected: 1},
		{name: "user key with 4 shards", key: "user:123", numShards: 4, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Index(tt.key, tt.numShards))
		})
	}
}

func TestIndexPanicsOnInvalidCount(t *testing.T) {
	assert.Panics(t, func() { Index("key", 0) })
	assert.Panics(t, func() { Index("key", -3) })
}

// TestOwns tests key ownership determination
func TestOwns(t *testing.T) {
	// Find a key that hashes to shard 0 with 4 shards
	var keyForShard0 string
	for i := 0; i < 1000; i++ {
		testKey := fmt.Sprintf("test-key-%d", i)
		if Hash(testKey)%4 == 0 {
			keyForShard0 = testKey
			break
		}
	}

	assert.True(t, Owns(0, keyForShard0, 4))
	assert.False(t, Owns(1, keyForShard0, 4))
	assert.True(t, Owns(0, "any-key", 1))
	assert.False(t, Owns(0, "any-key", 0))
}

// TestIndexDistribution checks that keys spread over every shard
func TestIndexDistribution(t *testing.T) {
	const numShards = 10
	counts := make([]int, numShards)
	for i := 0; i < 1000; i++ {
		counts[Index(fmt.Sprintf("key_%d", i), numShards)]++
	}

	for i, c := range counts {
		assert.Greater(t, c, 0, "shard %d received no keys", i)
	}
}

func TestIndexProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("index is within range", prop.ForAll(
		func(key string, n int) bool {
			idx := Index(key, n)
			return idx >= 0 && idx < n
		},
		gen.AnyString(),
		gen.IntRange(1, 128),
	))

	properties.Property("index is deterministic", prop.ForAll(
		func(key string, n int) bool {
			return Index(key, n) == Index(key, n)
		},
		gen.AnyString(),
		gen.IntRange(1, 128),
	))

	properties.Property("keys with equal hash residue share a shard", prop.ForAll(
		func(a, b string, n int) bool {
			if Hash(a)%uint64(n) != Hash(b)%uint64(n) {
				return true
			}
			return Index(a, n) == Index(b, n)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}
