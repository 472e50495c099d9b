package models

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot returns a deep copy of a layout. The firmware pipeline works on a
// snapshot so the editing session can keep mutating the original.
func Snapshot(l *Layout) (*Layout, error) {
	data, err := msgpack.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encoding layout snapshot: %w", err)
	}
	var out Layout
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding layout snapshot: %w", err)
	}
	return &out, nil
}
