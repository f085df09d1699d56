// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/papaper/papaper/pkg/types"
)

const (
	localIndexFile    = "index.gob"
	localManifestFile = "manifest.yaml"
)

// Manifest describes a saved local index. It is written alongside the
// entry file so `papaper index info` and compatibility checks do not need
// to decode the whole index.
type Manifest struct {
	Model      string    `yaml:"model"`
	Dimensions int       `yaml:"dimensions"`
	EntryCount int       `yaml:"entry_count"`
	BuiltAt    time.Time `yaml:"built_at"`
}

// LocalIndex is the ephemeral index backend: the whole entry set lives in
// memory and is rebuilt from the current document tree on every build run,
// then saved as one atomic snapshot. No dedup state survives across runs.
// Distance metric: cosine similarity, descending (the backend's configured
// metric, not an implicit default).
type LocalIndex struct {
	Model      string
	Dimensions int
	Entries    []types.IndexEntry

	hashes map[string]struct{}
}

// NewLocal returns an empty local index for the given model.
func NewLocal(model string, dimensions int) *LocalIndex {
	return &LocalIndex{
		Model:      model,
		Dimensions: dimensions,
		hashes:     make(map[string]struct{}),
	}
}

// Has reports whether the hash was inserted during this run. Nothing
// persists across runs, so a rebuild always starts from an empty set.
func (x *LocalIndex) Has(ctx context.Context, hash string) (bool, error) {
	_, ok := x.hashes[hash]
	return ok, nil
}

// Insert appends an entry after checking its vector length.
func (x *LocalIndex) Insert(ctx context.Context, e types.IndexEntry) error {
	if len(e.Vector) != x.Dimensions {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(e.Vector), x.Dimensions)
	}
	if x.hashes == nil {
		x.hashes = make(map[string]struct{})
	}
	x.Entries = append(x.Entries, e)
	x.hashes[e.Hash] = struct{}{}
	return nil
}

// Query returns up to k entries by descending cosine similarity to vector.
func (x *LocalIndex) Query(ctx context.Context, vector []float32, k int) ([]types.IndexEntry, error) {
	type scored struct {
		entry types.IndexEntry
		sim   float64
	}
	all := make([]scored, 0, len(x.Entries))
	for _, e := range x.Entries {
		all = append(all, scored{entry: e, sim: cosineSimilarity(vector, e.Vector)})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].sim > all[j].sim })

	if k > 0 && len(all) > k {
		all = all[:k]
	}
	entries := make([]types.IndexEntry, len(all))
	for i, sc := range all {
		entries[i] = sc.entry
	}
	return entries, nil
}

func (x *LocalIndex) Close() error { return nil }

// Save writes the index to dir as a gob snapshot plus a YAML manifest.
// The entry file goes through a temp file and rename, so a reader never
// observes a torn index.
func (x *LocalIndex) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	path := filepath.Join(dir, localIndexFile)
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	encErr := gob.NewEncoder(tmp).Encode(x)
	closeErr := tmp.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("encoding index: %w", encErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	manifest, err := yaml.Marshal(Manifest{
		Model:      x.Model,
		Dimensions: x.Dimensions,
		EntryCount: len(x.Entries),
		BuiltAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, localManifestFile), manifest, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// LoadLocal reads a saved local index from dir. A missing index yields
// ErrIndexNotFound. When dimensions is non-zero, an index built with a
// different vector length is rejected: searching it with another model's
// query embedding would rank garbage.
func LoadLocal(dir string, dimensions int) (*LocalIndex, error) {
	f, err := os.Open(filepath.Join(dir, localIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, dir)
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var x LocalIndex
	if err := gob.NewDecoder(f).Decode(&x); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}

	if dimensions != 0 && x.Dimensions != dimensions {
		return nil, fmt.Errorf("index built with %d-dimensional embeddings, want %d (rebuild with the current model)",
			x.Dimensions, dimensions)
	}

	x.hashes = make(map[string]struct{}, len(x.Entries))
	for _, e := range x.Entries {
		x.hashes[e.Hash] = struct{}{}
	}
	return &x, nil
}

// ReadManifest reads the manifest of a saved local index.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, localManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrIndexNotFound, dir)
		}
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// cosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1], or 0 for mismatched or zero-length input.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
