// Package export writes field snapshots to JSON and reads them back.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/latticeworks/rp2wb-sim/model"
)

// WriteSnapshot encodes snap as indented JSON.
func WriteSnapshot(w io.Writer, snap model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("export: encode snapshot: %w", err)
	}
	return nil
}

// WriteSnapshotFile writes snap to path, creating parent directories as
// needed.
func WriteSnapshotFile(path string, snap model.Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: mkdir %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %q: %w", path, err)
	}
	defer f.Close()
	if err := WriteSnapshot(f, snap); err != nil {
		return err
	}
	return f.Close()
}

// ReadSnapshot decodes a snapshot from r.
func ReadSnapshot(r io.Reader) (model.Snapshot, error) {
	var snap model.Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("export: decode snapshot: %w", err)
	}
	return snap, nil
}

// ReadSnapshotFile reads a snapshot from disk.
func ReadSnapshotFile(path string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("export: open %q: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
