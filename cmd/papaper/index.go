// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papaper/papaper/internal/embedding"
	"github.com/papaper/papaper/internal/index"
	"github.com/papaper/papaper/internal/worker"
	"github.com/papaper/papaper/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or inspect the semantic vector index",
	Long: `Index manages the vector index built over downloaded papers. The sqlite
backend keeps a persistent database and on rebuilds embeds only chunks it has
not seen before; the local backend rebuilds an index directory from scratch
each run.`,
}

func init() {
	for _, c := range []*cobra.Command{indexBuildCmd, indexInfoCmd} {
		c.Flags().String("backend", string(types.BackendSQLite), "index backend: sqlite or local")
		c.Flags().String("index", "", "index location (default index.db for sqlite, index/ for local)")
		c.Flags().Int("dimensions", embedding.DefaultDimensions, "embedding vector length")
	}
	indexBuildCmd.Flags().String("docs-dir", "papers", "root of the downloaded document tree")
	indexBuildCmd.Flags().Int("chunk-size", 0, "chunk length in characters (default 200)")
	indexBuildCmd.Flags().Int("chunk-overlap", -1, "character overlap between chunks (default 20)")
	indexBuildCmd.Flags().String("embed-url", embedding.DefaultOllamaURL, "Ollama API endpoint")
	indexBuildCmd.Flags().String("embed-model", embedding.DefaultModel, "embedding model name")
	indexBuildCmd.Flags().Duration("embed-timeout", embedding.DefaultTimeout, "per-request embedding timeout")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

// indexFlags holds the flag values the index subcommands share.
type indexFlags struct {
	backend    types.IndexBackend
	location   string
	dimensions int
}

func readIndexFlags(cmd *cobra.Command) (indexFlags, error) {
	cfg := pipelineConfig()
	backend, _ := cmd.Flags().GetString("backend")
	if !cmd.Flags().Changed("backend") && cfg.Index.Backend != "" {
		backend = string(cfg.Index.Backend)
	}
	location, _ := cmd.Flags().GetString("index")
	dimensions, _ := cmd.Flags().GetInt("dimensions")
	if !cmd.Flags().Changed("dimensions") && cfg.Embedding.Dimensions != 0 {
		dimensions = cfg.Embedding.Dimensions
	}

	f := indexFlags{backend: types.IndexBackend(backend), location: location, dimensions: dimensions}
	switch f.backend {
	case types.BackendSQLite:
		if f.location == "" {
			f.location = "index.db"
		}
	case types.BackendLocal:
		if f.location == "" {
			f.location = "index"
		}
	default:
		return f, fmt.Errorf("unknown backend %q (want sqlite or local)", backend)
	}
	return f, nil
}

func newProvider(cmd *cobra.Command, dimensions int) *embedding.OllamaProvider {
	cfg := pipelineConfig().Embedding
	url, _ := cmd.Flags().GetString("embed-url")
	if !cmd.Flags().Changed("embed-url") && cfg.BaseURL != "" {
		url = cfg.BaseURL
	}
	model, _ := cmd.Flags().GetString("embed-model")
	if !cmd.Flags().Changed("embed-model") && cfg.Model != "" {
		model = cfg.Model
	}
	timeout, _ := cmd.Flags().GetDuration("embed-timeout")
	if !cmd.Flags().Changed("embed-timeout") && cfg.Timeout != 0 {
		timeout = cfg.Timeout
	}

	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(url),
		embedding.WithModel(model),
		embedding.WithDimensions(dimensions),
		embedding.WithTimeout(timeout),
	)
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Index the downloaded papers into the vector index",
	Long: `Build walks the document tree, splits each paper's text into chunks,
embeds each chunk through the Ollama API, and stores the vectors. Chunks
already present in the index are skipped without an embedding call, so the
sqlite backend extends an existing index incrementally. A paper that cannot
be parsed is skipped with a warning; an embedding or storage failure stops
the build.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	f, err := readIndexFlags(cmd)
	if err != nil {
		return err
	}
	docsDir, _ := cmd.Flags().GetString("docs-dir")
	idxCfg := pipelineConfig().Index
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	if chunkSize == 0 {
		chunkSize = idxCfg.ChunkSize
	}
	chunkOverlap, _ := cmd.Flags().GetInt("chunk-overlap")
	if chunkOverlap < 0 && idxCfg.ChunkOverlap > 0 {
		chunkOverlap = idxCfg.ChunkOverlap
	}

	provider := newProvider(cmd, f.dimensions)

	var service index.Service
	var local *index.LocalIndex
	switch f.backend {
	case types.BackendSQLite:
		s, err := index.OpenSQLite(f.location)
		if err != nil {
			return err
		}
		service = s
	case types.BackendLocal:
		local = index.NewLocal(provider.ModelName(), f.dimensions)
		service = local
	}
	defer service.Close()

	builder := index.NewBuilder(provider, service)

	box := worker.NewMailbox()
	h := worker.Start(cmd.Context(), index.Tag, box, func(ctx context.Context) error {
		return builder.Build(ctx, index.BuildInput{
			DocsRoot:     docsDir,
			ChunkSize:    chunkSize,
			ChunkOverlap: chunkOverlap,
		}, box)
	})
	pump(h, box, os.Stdout)
	if err := h.Err(); err != nil {
		return err
	}

	// The local backend persists only after a fully successful build.
	if local != nil {
		if err := local.Save(f.location); err != nil {
			return err
		}
		fmt.Printf("saved %d entries to %s\n", len(local.Entries), f.location)
	}
	return nil
}

// --- info subcommand ---

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the stored entry count and metadata of an index",
	RunE:  runIndexInfo,
}

func runIndexInfo(cmd *cobra.Command, args []string) error {
	f, err := readIndexFlags(cmd)
	if err != nil {
		return err
	}

	switch f.backend {
	case types.BackendSQLite:
		s, err := index.OpenSQLiteExisting(f.location)
		if err != nil {
			return err
		}
		defer s.Close()
		n, err := s.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("backend:  sqlite\nlocation: %s\nentries:  %d\n", f.location, n)
	case types.BackendLocal:
		m, err := index.ReadManifest(f.location)
		if err != nil {
			return err
		}
		fmt.Printf("backend:    local\nlocation:   %s\nmodel:      %s\ndimensions: %d\nentries:    %d\nbuilt:      %s\n",
			f.location, m.Model, m.Dimensions, m.EntryCount, m.BuiltAt.Format(time.RFC3339))
	}
	return nil
}
