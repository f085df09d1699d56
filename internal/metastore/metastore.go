// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metastore persists per-keyword publication metadata as a JSON
// snapshot. The store is the acquisition stage's source of truth for
// resumability: it is loaded once at loop start and rewritten after every
// processed candidate. One writer owns a given store path at a time;
// concurrent writers are out of contract.
package metastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papaper/papaper/pkg/types"
)

// ErrCorrupt marks a metadata file that exists but cannot be parsed.
// Corrupt history is surfaced immediately rather than silently discarded.
var ErrCorrupt = errors.New("corrupt metadata file")

// Load reads the metadata snapshot at path. A missing file is not an
// error: it yields an empty store, the state before any search pass.
func Load(path string) (types.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Metadata{}, nil
		}
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}

	var m types.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrCorrupt, path, err)
	}
	if m == nil {
		m = types.Metadata{}
	}
	return m, nil
}

// Save writes m to path as an indented JSON snapshot. The write goes to a
// temp file in the same directory followed by a rename, so a concurrent
// reader never observes a torn snapshot.
func Save(path string, m types.Metadata) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing metadata: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
