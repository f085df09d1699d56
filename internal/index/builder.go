// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papaper/papaper/internal/embedding"
	"github.com/papaper/papaper/internal/parser"
	"github.com/papaper/papaper/internal/worker"
	"github.com/papaper/papaper/pkg/types"
)

// Tag prefixes the builder's progress messages.
const Tag = "index"

// BuildInput describes one index-build run. DocsRoot's immediate
// subdirectories are categories (publication years for acquired papers)
// and the files inside them are the documents to index.
type BuildInput struct {
	DocsRoot     string
	ChunkSize    int
	ChunkOverlap int
}

// Builder turns a document tree into index entries: parse each document
// into chunks, hash each chunk, and embed and insert only the chunks the
// service does not already hold.
type Builder struct {
	provider embedding.Provider
	service  Service
}

// NewBuilder returns a Builder writing to service with vectors from provider.
func NewBuilder(provider embedding.Provider, service Service) *Builder {
	return &Builder{provider: provider, service: service}
}

// document is one file queued for indexing.
type document struct {
	path     string
	category string
	title    string
}

// Build processes every document under in.DocsRoot. Documents are handled
// strictly one at a time, in directory-listing order, so an interrupted run
// leaves a consistent boundary at document granularity. A document that
// fails to parse is skipped with a logged line; an embedding or service
// failure aborts the build, and the entries inserted so far remain valid.
func (b *Builder) Build(ctx context.Context, in BuildInput, box *worker.Mailbox) error {
	size := in.ChunkSize
	if size <= 0 {
		size = parser.DefaultChunkSize
	}
	overlap := in.ChunkOverlap
	if overlap < 0 {
		overlap = parser.DefaultChunkOverlap
	}

	box.Progressf(Tag, "initialize")

	docs, err := listDocuments(in.DocsRoot)
	if err != nil {
		return err
	}

	for i, doc := range docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunks, err := parser.Parse(doc.path, size, overlap)
		if err != nil {
			// One unreadable document must not abort a long build.
			box.Progressf(Tag, "skip %s %s: %v", doc.category, doc.title, err)
			continue
		}

		if err := b.indexChunks(ctx, doc, chunks); err != nil {
			return err
		}

		box.Progressf(Tag, "%d / %d parsed %d chunks from %s %s",
			i+1, len(docs), len(chunks), doc.category, doc.title)
	}

	return nil
}

// indexChunks inserts a document's chunks as a unit, skipping chunks whose
// content hash the service already holds. The skip happens before the
// embedding call: duplicate content never costs a provider round trip.
func (b *Builder) indexChunks(ctx context.Context, doc document, texts []string) error {
	for _, text := range texts {
		chunk := types.Chunk{Category: doc.category, Title: doc.title, Text: text}
		hash := Hash(chunk.Text)

		ok, err := b.service.Has(ctx, hash)
		if err != nil {
			return fmt.Errorf("querying index for %s: %w", doc.title, err)
		}
		if ok {
			continue
		}

		vec, err := b.provider.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embedding chunk of %s: %w", doc.title, err)
		}

		err = b.service.Insert(ctx, types.IndexEntry{
			Hash:     hash,
			Category: chunk.Category,
			Title:    chunk.Title,
			Content:  chunk.Text,
			Vector:   vec,
		})
		if err != nil {
			return fmt.Errorf("inserting chunk of %s: %w", doc.title, err)
		}
	}
	return nil
}

// listDocuments collects every file one level below root, tagged with its
// category directory. Non-directory entries at the top level are ignored,
// as are nested directories.
func listDocuments(root string) ([]document, error) {
	categories, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading documents root %s: %w", root, err)
	}

	var docs []document
	for _, cat := range categories {
		if !cat.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, cat.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading category %s: %w", cat.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			docs = append(docs, document{
				path:     filepath.Join(root, cat.Name(), f.Name()),
				category: cat.Name(),
				title:    f.Name(),
			})
		}
	}
	return docs, nil
}
