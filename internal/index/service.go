// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds and queries vector indexes over document chunks.
// Two backends exist: a persistent SQLite index updated incrementally via
// content-hash dedup, and an ephemeral local index fully rebuilt each run.
package index

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"

	"github.com/papaper/papaper/pkg/types"
)

// ErrIndexNotFound means no index exists at the given location. Callers
// must be able to tell a missing index from an empty one.
var ErrIndexNotFound = errors.New("vector index not found")

// Service is a vector-index backend: content-hash membership, insertion,
// and nearest-neighbor query.
type Service interface {
	// Has reports whether an entry with the given content hash is stored.
	Has(ctx context.Context, hash string) (bool, error)

	// Insert stores an entry. Inserting a hash that is already present is
	// a no-op for the persistent backend.
	Insert(ctx context.Context, e types.IndexEntry) error

	// Query returns up to k entries nearest to vector, best first under
	// the backend's distance metric.
	Query(ctx context.Context, vector []float32, k int) ([]types.IndexEntry, error)

	Close() error
}

// Hash returns the hex SHA-1 digest of text, the dedup identity of a chunk.
func Hash(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
