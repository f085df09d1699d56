// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papaper/papaper/pkg/types"
)

// SQLiteService is the persistent index backend. Entries are keyed by a
// monotonically increasing integer id and deduplicated by content hash, so
// reruns are strictly additive: only chunks whose hash is absent trigger an
// embedding computation. Distance metric: Euclidean (L2), ascending.
type SQLiteService struct {
	db *sql.DB
}

// OpenSQLite opens or creates the index database at path, creating the
// schema if it does not exist.
func OpenSQLite(path string) (*SQLiteService, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	s := &SQLiteService{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// OpenSQLiteExisting opens the index database at path for querying. A
// missing file yields ErrIndexNotFound rather than an empty index.
func OpenSQLiteExisting(path string) (*SQLiteService, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("checking index database: %w", err)
	}
	return OpenSQLite(path)
}

func (s *SQLiteService) createSchema() error {
	_, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sha1 TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`)
	return err
}

// Close releases the database connection.
func (s *SQLiteService) Close() error {
	return s.db.Close()
}

// Has reports whether an entry with the given content hash is stored.
func (s *SQLiteService) Has(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM entries WHERE sha1 = ?`, hash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying hash: %w", err)
	}
	return true, nil
}

// Insert stores an entry, ignoring duplicates by content hash.
func (s *SQLiteService) Insert(ctx context.Context, e types.IndexEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO entries (sha1, category, title, content, embedding)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Hash, e.Category, e.Title, e.Content, encodeVector(e.Vector))
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *SQLiteService) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Query scans all stored entries and returns the k nearest to vector by L2
// distance. A linear scan is fine at the corpus sizes one keyword produces;
// the dedup table, not the scan, is what keeps rebuilds cheap.
func (s *SQLiteService) Query(ctx context.Context, vector []float32, k int) ([]types.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sha1, category, title, content, embedding FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	type scored struct {
		entry types.IndexEntry
		dist  float64
	}
	var all []scored

	for rows.Next() {
		var e types.IndexEntry
		var blob []byte
		if err := rows.Scan(&e.Hash, &e.Category, &e.Title, &e.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Vector = decodeVector(blob)
		all = append(all, scored{entry: e, dist: l2Distance(vector, e.Vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].dist < all[j].dist })

	if k > 0 && len(all) > k {
		all = all[:k]
	}
	entries := make([]types.IndexEntry, len(all))
	for i, sc := range all {
		entries[i] = sc.entry
	}
	return entries, nil
}

// encodeVector packs a float32 vector into a little-endian byte blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}

// l2Distance returns the squared Euclidean distance between a and b.
// Squared distance preserves L2 ordering and skips the square root.
func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
