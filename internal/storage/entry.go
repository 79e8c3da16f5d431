package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Bytes is an opaque value. It encodes to JSON as an array of integers
// rather than base64 so snapshot files keep their historical shape.
type Bytes []byte

// MarshalJSON encodes b as [b0,b1,...].
func (b Bytes) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(b)*4)
	buf = append(buf, '[')
	for i, v := range b {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(v), 10)
	}
	buf = append(buf, ']')
	return buf, nil
}

// UnmarshalJSON decodes an array of integers in [0, 255]. null is rejected.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("value: null is not a byte array")
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("value: %w", err)
	}

	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("value: byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Entry is a single stored record.
// HashedKey always equals shard.Fingerprint(Key).
type Entry struct {
	Key       string `json:"key"`
	HashedKey uint64 `json:"hashed_key"`
	Value     Bytes  `json:"value"`
	Deleted   bool   `json:"deleted"`
}

// clone returns a deep copy so callers never alias stored bytes.
func (e *Entry) clone() Entry {
	out := *e
	if e.Value != nil {
		out.Value = make(Bytes, len(e.Value))
		copy(out.Value, e.Value)
	}
	return out
}
