package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dreamware/nuke/internal/shard"
)

// LoadSnapshot replaces the partition contents with the snapshot file.
//
// A missing file is the normal state of a new partition and returns
// (false, nil). A file that exists but cannot be read or decoded returns an
// error; decode failures wrap ErrSnapshotCorrupt. The caller decides whether
// that aborts startup.
func (p *Partition) LoadSnapshot() (bool, error) {
	file, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("no snapshot found", zap.String("path", p.path))
			return false, nil
		}
		return false, fmt.Errorf("open snapshot %s: %w", p.path, err)
	}
	defer file.Close()

	var entries map[string]*Entry
	dec := json.NewDecoder(bufio.NewReader(file))
	if err := dec.Decode(&entries); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrSnapshotCorrupt, p.path, err)
	}
	// The file must hold exactly one JSON value
	if _, err := dec.Token(); err != io.EOF {
		return false, fmt.Errorf("%w: %s: trailing data after snapshot object", ErrSnapshotCorrupt, p.path)
	}

	for key, entry := range entries {
		if entry == nil {
			return false, fmt.Errorf("%w: %s: null entry for key %q", ErrSnapshotCorrupt, p.path, key)
		}
		if entry.Key != key {
			p.logger.Warn("snapshot entry key mismatch, using map key",
				zap.String("key", key), zap.String("entry_key", entry.Key))
			entry.Key = key
		}
		if fp := shard.Fingerprint(key); entry.HashedKey != fp {
			p.logger.Warn("snapshot fingerprint mismatch, recomputing",
				zap.String("key", key), zap.Uint64("stored", entry.HashedKey), zap.Uint64("computed", fp))
			entry.HashedKey = fp
		}
	}
	if entries == nil {
		entries = make(map[string]*Entry)
	}

	p.mu.Lock()
	p.entries = entries
	p.persisted = true
	p.mu.Unlock()

	p.logger.Info("snapshot loaded", zap.String("path", p.path), zap.Int("entries", len(entries)))
	return true, nil
}

// PersistSnapshot writes the whole partition to its snapshot file.
//
// The write lock is held for the duration so the snapshot is a consistent
// view of the partition. Data goes to a temporary sibling file that is
// renamed over the snapshot, so a failed write leaves the previous snapshot
// intact. Errors are logged and returned; the in-memory state is unaffected.
func (p *Partition) PersistSnapshot() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeSnapshot(); err != nil {
		p.logger.Error("persist snapshot failed", zap.String("path", p.path), zap.Error(err))
		return err
	}

	p.logger.Debug("snapshot persisted", zap.String("path", p.path), zap.Int("entries", len(p.entries)))
	return nil
}

// writeSnapshot must be called with mu held.
func (p *Partition) writeSnapshot() error {
	data, err := json.Marshal(p.entries)
	if err != nil {
		return fmt.Errorf("marshal partition %d: %w", p.number, err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := p.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := bufio.NewWriter(file)
	if _, err := w.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
