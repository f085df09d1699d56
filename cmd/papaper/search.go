// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papaper/papaper/internal/contextpack"
	"github.com/papaper/papaper/internal/embedding"
	"github.com/papaper/papaper/internal/index"
	"github.com/papaper/papaper/internal/retrieve"
	"github.com/papaper/papaper/internal/worker"
	"github.com/papaper/papaper/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve the chunks most relevant to a query",
	Long: `Search embeds the query with the same model the index was built with
and prints the nearest stored chunks with their source paper and year. With
--tokens the ranked chunks are packed into a single context block that stays
within the given token budget.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("backend", string(types.BackendSQLite), "index backend: sqlite or local")
	searchCmd.Flags().String("index", "", "index location (default index.db for sqlite, index/ for local)")
	searchCmd.Flags().Int("dimensions", 0, "embedding vector length (default 768, or the local manifest's value)")
	searchCmd.Flags().Int("top-k", retrieve.DefaultTopK, "number of chunks to retrieve")
	searchCmd.Flags().Bool("json", false, "output ranked chunks as JSON")
	searchCmd.Flags().Int("tokens", 0, "pack results into a context block under this token budget")
	searchCmd.Flags().String("tokenizer", contextpack.DefaultTokenizerModel, "model whose tokenizer measures the budget")
	searchCmd.Flags().String("embed-url", "", "Ollama API endpoint")
	searchCmd.Flags().String("embed-model", "", "embedding model name")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	cfg := pipelineConfig()
	backend, _ := cmd.Flags().GetString("backend")
	location, _ := cmd.Flags().GetString("index")
	dimensions, _ := cmd.Flags().GetInt("dimensions")
	if dimensions == 0 {
		dimensions = cfg.Embedding.Dimensions
	}
	topK, _ := cmd.Flags().GetInt("top-k")
	if !cmd.Flags().Changed("top-k") && cfg.Search.TopK != 0 {
		topK = cfg.Search.TopK
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	tokens, _ := cmd.Flags().GetInt("tokens")
	if tokens == 0 {
		tokens = cfg.Context.TokenBudget
	}
	tokenizer, _ := cmd.Flags().GetString("tokenizer")
	if !cmd.Flags().Changed("tokenizer") && cfg.Context.TokenizerModel != "" {
		tokenizer = cfg.Context.TokenizerModel
	}
	embedURL, _ := cmd.Flags().GetString("embed-url")
	if embedURL == "" {
		embedURL = cfg.Embedding.BaseURL
	}
	embedModel, _ := cmd.Flags().GetString("embed-model")
	if embedModel == "" {
		embedModel = cfg.Embedding.Model
	}

	var service index.Service
	switch types.IndexBackend(backend) {
	case types.BackendSQLite:
		if location == "" {
			location = "index.db"
		}
		s, err := index.OpenSQLiteExisting(location)
		if err != nil {
			return err
		}
		service = s
		if dimensions == 0 {
			dimensions = embedding.DefaultDimensions
		}
	case types.BackendLocal:
		if location == "" {
			location = "index"
		}
		m, err := index.ReadManifest(location)
		if err != nil {
			return err
		}
		if dimensions == 0 {
			dimensions = m.Dimensions
		}
		if embedModel == "" {
			embedModel = m.Model
		}
		s, err := index.LoadLocal(location, dimensions)
		if err != nil {
			return err
		}
		service = s
	default:
		return fmt.Errorf("unknown backend %q (want sqlite or local)", backend)
	}
	defer service.Close()

	var opts []embedding.OllamaOption
	if embedURL != "" {
		opts = append(opts, embedding.WithBaseURL(embedURL))
	}
	if embedModel != "" {
		opts = append(opts, embedding.WithModel(embedModel))
	}
	opts = append(opts, embedding.WithDimensions(dimensions))
	provider := embedding.NewOllamaProvider(opts...)

	engine := retrieve.NewEngine(provider, service)

	box := worker.NewMailbox()
	h := worker.Start(cmd.Context(), retrieve.Tag, box, func(ctx context.Context) error {
		return engine.Run(ctx, query, topK, box)
	})
	ranked := pump(h, box, os.Stderr)
	if err := h.Err(); err != nil {
		return err
	}

	if tokens > 0 {
		return printPacked(ranked, tokens, tokenizer)
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]types.RankedChunk{retrieve.ResultKey: ranked})
	}

	for i, chunk := range ranked {
		fmt.Printf("%3d. [%s] %s\n     %s\n", i+1, chunk.Category, chunk.Title, chunk.Text)
	}
	return nil
}

// printPacked joins the ranked chunk texts into one budgeted context block
// and prints it, with the token cost reported on stderr.
func printPacked(ranked []types.RankedChunk, budget int, tokenizer string) error {
	counter, err := contextpack.NewTiktoken(tokenizer)
	if err != nil {
		return err
	}

	texts := make([]string, 0, len(ranked))
	for _, chunk := range ranked {
		texts = append(texts, chunk.Text)
	}

	block, used := contextpack.Pack(texts, budget, counter)
	fmt.Println(block)
	fmt.Fprintf(os.Stderr, "packed %d tokens (budget %d)\n", used, budget)
	return nil
}
