package storage

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamware/nuke/internal/shard"
)

func newTestPartition(t *testing.T) *Partition {
	t.Helper()
	return NewPartition(0, filepath.Join(t.TempDir(), "partition_0"), zap.NewNop())
}

// TestPartition tests the single-partition entry lifecycle
func TestPartition(t *testing.T) {
	t.Run("new partition is empty", func(t *testing.T) {
		p := newTestPartition(t)

		if p.Count() != 0 {
			t.Errorf("Expected empty partition, got %d entries", p.Count())
		}
		if len(p.Keys()) != 0 {
			t.Errorf("Expected no keys, got %v", p.Keys())
		}
		if p.Persisted() {
			t.Error("New partition should not be marked persisted")
		}

		_, err := p.Read("nonexistent")
		if !errors.Is(err, ErrCacheItemNotFound) {
			t.Errorf("Expected ErrCacheItemNotFound, got %v", err)
		}
	})

	t.Run("insert and read", func(t *testing.T) {
		p := newTestPartition(t)

		entry := p.Insert("key1", []byte("value1"))
		assert.Equal(t, "key1", entry.Key)
		assert.Equal(t, shard.Fingerprint("key1"), entry.HashedKey)
		assert.False(t, entry.Deleted)

		got, err := p.Read("key1")
		require.NoError(t, err)
		if !bytes.Equal(got.Value, []byte("value1")) {
			t.Errorf("Expected 'value1', got %s", string(got.Value))
		}
	})

	t.Run("overwrite existing key", func(t *testing.T) {
		p := newTestPartition(t)

		p.Insert("key1", []byte("value1"))
		p.Insert("key1", []byte("value2"))

		got, err := p.Read("key1")
		require.NoError(t, err)
		assert.Equal(t, Bytes("value2"), got.Value)
		assert.Equal(t, 1, p.Count())
	})

	t.Run("read twice returns identical values", func(t *testing.T) {
		p := newTestPartition(t)
		p.Insert("key1", []byte{1, 2, 3})

		first, err := p.Read("key1")
		require.NoError(t, err)
		second, err := p.Read("key1")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("delete live key tombstones it", func(t *testing.T) {
		p := newTestPartition(t)
		p.Insert("a", []byte{1, 2, 3})

		entry, err := p.Delete("a")
		require.NoError(t, err)
		assert.True(t, entry.Deleted)
		assert.Equal(t, Bytes{1, 2, 3}, entry.Value)

		_, err = p.Read("a")
		assert.ErrorIs(t, err, ErrReadError)

		// Tombstones stay in the map
		assert.Equal(t, 1, p.Count())
		assert.Equal(t, []string{"a"}, p.Keys())
	})

	t.Run("delete tombstoned key fails", func(t *testing.T) {
		p := newTestPartition(t)
		p.Insert("a", []byte{1})

		_, err := p.Delete("a")
		require.NoError(t, err)

		_, err = p.Delete("a")
		assert.ErrorIs(t, err, ErrCacheItemNotFound)
	})

	t.Run("delete absent key fails", func(t *testing.T) {
		p := newTestPartition(t)

		_, err := p.Delete("never-inserted")
		assert.ErrorIs(t, err, ErrCacheItemNotFound)
		assert.Equal(t, 0, p.Count())
	})

	t.Run("insert revives tombstone without growing", func(t *testing.T) {
		p := newTestPartition(t)
		p.Insert("a", []byte("old"))
		_, err := p.Delete("a")
		require.NoError(t, err)

		entry := p.Insert("a", []byte("new"))
		assert.False(t, entry.Deleted)
		assert.Equal(t, 1, p.Count())

		got, err := p.Read("a")
		require.NoError(t, err)
		assert.Equal(t, Bytes("new"), got.Value)
	})

	t.Run("clear removes live and tombstoned entries", func(t *testing.T) {
		p := newTestPartition(t)
		p.Insert("a", []byte("1"))
		p.Insert("b", []byte("2"))
		_, err := p.Delete("b")
		require.NoError(t, err)

		p.Clear()
		assert.Equal(t, 0, p.Count())

		_, err = p.Read("a")
		assert.ErrorIs(t, err, ErrCacheItemNotFound)
		_, err = p.Read("b")
		assert.ErrorIs(t, err, ErrCacheItemNotFound)
	})

	t.Run("keys lists live and tombstoned", func(t *testing.T) {
		p := newTestPartition(t)
		for _, k := range []string{"key1", "key2", "key3"} {
			p.Insert(k, []byte(k))
		}
		_, err := p.Delete("key2")
		require.NoError(t, err)

		keys := p.Keys()
		sort.Strings(keys)
		assert.Equal(t, []string{"key1", "key2", "key3"}, keys)
	})

	t.Run("empty key and empty value", func(t *testing.T) {
		p := newTestPartition(t)
		p.Insert("", []byte{})

		got, err := p.Read("")
		require.NoError(t, err)
		assert.Len(t, got.Value, 0)
	})
}

// TestPartitionCopiesValues verifies callers cannot mutate stored bytes
func TestPartitionCopiesValues(t *testing.T) {
	p := newTestPartition(t)

	input := []byte("value")
	returned := p.Insert("key", input)
	input[0] = 'X'
	returned.Value[1] = 'X'

	got, err := p.Read("key")
	require.NoError(t, err)
	assert.Equal(t, Bytes("value"), got.Value)

	got.Value[2] = 'X'
	again, err := p.Read("key")
	require.NoError(t, err)
	assert.Equal(t, Bytes("value"), again.Value)
}

func TestPartitionIdentity(t *testing.T) {
	p := NewPartition(7, "/tmp/somewhere/partition_7", nil)
	assert.Equal(t, 7, p.Number())
	assert.Equal(t, "/tmp/somewhere/partition_7", p.Path())
}

// TestPartitionStats tests the statistics functionality
func TestPartitionStats(t *testing.T) {
	p := newTestPartition(t)

	stats := p.Stats()
	if stats.Entries != 0 || stats.Bytes != 0 {
		t.Errorf("Initial stats should be zero, got entries=%d bytes=%d", stats.Entries, stats.Bytes)
	}

	p.Insert("key1", []byte("value1"))   // 6 bytes
	p.Insert("key2", []byte("value22"))  // 7 bytes
	p.Insert("key3", []byte("value333")) // 8 bytes
	p.Read("key1")
	p.Read("missing")
	_, err := p.Delete("key2")
	require.NoError(t, err)

	stats = p.Stats()
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 2, stats.Live)
	assert.Equal(t, 1, stats.Tombstoned)
	assert.Equal(t, 6+8, stats.Bytes)
	assert.Equal(t, OperationStats{Reads: 2, Inserts: 3, Deletes: 1}, stats.Ops)
}

// TestPartitionConcurrency tests thread-safe concurrent access
func TestPartitionConcurrency(t *testing.T) {
	t.Run("concurrent writes", func(t *testing.T) {
		p := newTestPartition(t)

		numGoroutines := 100
		numOps := 100

		var wg sync.WaitGroup
		wg.Add(numGoroutines)

		// Each goroutine writes its own keys
		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < numOps; j++ {
					key := fmt.Sprintf("goroutine-%d-key-%d", id, j)
					p.Insert(key, []byte(fmt.Sprintf("value-%d-%d", id, j)))
				}
			}(i)
		}

		wg.Wait()

		if p.Count() != numGoroutines*numOps {
			t.Errorf("Expected %d entries, got %d", numGoroutines*numOps, p.Count())
		}
	})

	t.Run("concurrent deletes succeed exactly once", func(t *testing.T) {
		p := newTestPartition(t)
		p.Insert("contested", []byte("v"))

		numDeleters := 50
		var successes int64
		var mu sync.Mutex
		var wg sync.WaitGroup
		wg.Add(numDeleters)

		for i := 0; i < numDeleters; i++ {
			go func() {
				defer wg.Done()
				if _, err := p.Delete("contested"); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, int64(1), successes)
	})

	t.Run("concurrent mixed operations", func(t *testing.T) {
		p := newTestPartition(t)

		var wg sync.WaitGroup
		numGoroutines := 50
		wg.Add(numGoroutines * 4)

		// Writers
		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					p.Insert(fmt.Sprintf("key-%d", j), []byte(fmt.Sprintf("writer-%d-value-%d", id, j)))
				}
			}(i)
		}

		// Readers
		for i := 0; i < numGoroutines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					p.Read(fmt.Sprintf("key-%d", j)) // May be absent, live or tombstoned
				}
			}()
		}

		// Deleters
		for i := 0; i < numGoroutines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j += 10 {
					p.Delete(fmt.Sprintf("key-%d", j))
				}
			}()
		}

		// Listers and persisters
		for i := 0; i < numGoroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					p.Keys()
					p.Stats()
					if id == 0 {
						p.PersistSnapshot()
					}
					time.Sleep(time.Microsecond)
				}
			}(i)
		}

		wg.Wait()

		// Partition should still be functional
		p.Insert("final-key", []byte("final-value"))
		got, err := p.Read("final-key")
		require.NoError(t, err)
		assert.Equal(t, Bytes("final-value"), got.Value)
	})
}

// TestStoreInterface verifies Partition satisfies Store
func TestStoreInterface(t *testing.T) {
	var _ Store = (*Partition)(nil)

	var store Store = newTestPartition(t)
	store.Insert("interface-key", []byte("interface-value"))

	entry, err := store.Read("interface-key")
	require.NoError(t, err)
	assert.Equal(t, Bytes("interface-value"), entry.Value)
	assert.Equal(t, 1, store.Count())
}
