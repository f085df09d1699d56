// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve answers similarity queries against a built vector index.
package retrieve

import (
	"context"
	"fmt"

	"github.com/papaper/papaper/internal/embedding"
	"github.com/papaper/papaper/internal/index"
	"github.com/papaper/papaper/internal/worker"
	"github.com/papaper/papaper/pkg/types"
)

// Tag prefixes the engine's progress messages.
const Tag = "search"

// DefaultTopK bounds a query's result set when no explicit limit is given.
const DefaultTopK = 100

// ResultKey names the structured payload a search worker posts.
const ResultKey = "related_papers"

// Engine embeds query text with the same provider the index was built with
// and ranks the stored chunks against it.
type Engine struct {
	provider embedding.Provider
	service  index.Service
}

// NewEngine returns an Engine reading from service with query vectors
// from provider.
func NewEngine(provider embedding.Provider, service index.Service) *Engine {
	return &Engine{provider: provider, service: service}
}

// Search embeds query once and returns up to topK chunks ordered from most
// to least relevant. An empty result on a valid index is not an error.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]types.RankedChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vec, err := e.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	entries, err := e.service.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	ranked := make([]types.RankedChunk, 0, len(entries))
	for _, entry := range entries {
		ranked = append(ranked, types.RankedChunk{
			Category: entry.Category,
			Title:    entry.Title,
			Text:     entry.Content,
		})
	}
	return ranked, nil
}

// Run executes one search as a worker body: progress lines around the
// query, then the ranked chunks as a single structured result message.
func (e *Engine) Run(ctx context.Context, query string, topK int, box *worker.Mailbox) error {
	box.Progressf(Tag, "embedding query")

	ranked, err := e.Search(ctx, query, topK)
	if err != nil {
		return err
	}

	box.Progressf(Tag, "retrieved %d chunks", len(ranked))
	box.Result(ResultKey, ranked)
	return nil
}
