// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papaper/papaper/internal/acquire"
	"github.com/papaper/papaper/internal/fetch"
	"github.com/papaper/papaper/internal/scholar"
	"github.com/papaper/papaper/internal/worker"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "papaper/0.1"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Search for papers by keyword and download their full text",
	Long: `Acquire searches Semantic Scholar for papers matching a keyword within
the last N years, downloads each paper's full text when a location can be
found, and records every result in <save-dir>/<keyword>.json. Re-running
with the same store resumes where the last run stopped and never re-fetches
a paper it has already recorded.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().String("save-dir", "papers", "base directory for downloads and metadata")
	acquireCmd.Flags().String("keyword", "", "search keyword (required)")
	acquireCmd.Flags().Int("papers", 10, "target number of papers, counting those already recorded")
	acquireCmd.Flags().Int("years", 5, "restrict the search to the last N publication years")
	acquireCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	acquireCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	acquireCmd.Flags().String("api-key", "", "Semantic Scholar API key (default: .secrets/semantic-scholar-api-key)")
	acquireCmd.Flags().String("mailto", "", "contact email for OpenAlex requests (default: .secrets/openalex-email)")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	if keyword == "" {
		return fmt.Errorf("--keyword is required")
	}

	saveDir, _ := cmd.Flags().GetString("save-dir")
	papers, _ := cmd.Flags().GetInt("papers")
	years, _ := cmd.Flags().GetInt("years")
	if years < 1 {
		years = 1
	}
	cfg := pipelineConfig().Acquisition
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DownloadDelay == 0 {
		cfg.DownloadDelay = defaultDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout != 0 {
		cfg.Timeout = timeout
	}
	if delay, _ := cmd.Flags().GetDuration("delay"); delay != 0 {
		cfg.DownloadDelay = delay
	}

	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	mailtoFlag, _ := cmd.Flags().GetString("mailto")
	apiKey := secretDefault("semantic-scholar-api-key", firstNonEmpty(apiKeyFlag, cfg.SemanticScholarAPIKey))
	mailto := secretDefault("openalex-email", firstNonEmpty(mailtoFlag, cfg.OpenAlexEmail))

	client := &http.Client{Timeout: cfg.Timeout}

	yearHigh := time.Now().Year()
	yearLow := yearHigh - years + 1

	stream := scholar.NewStream(client, keyword, yearLow, yearHigh, apiKey, cfg.UserAgent)
	fetcher := fetch.New(client, cfg.UserAgent, mailto)
	controller := acquire.NewController(stream, fetcher)

	box := worker.NewMailbox()
	h := worker.Start(cmd.Context(), acquire.Tag, box, func(ctx context.Context) error {
		return controller.Run(ctx, acquire.Input{
			SaveDir:      saveDir,
			Keyword:      keyword,
			TargetPapers: papers,
			Delay:        cfg.DownloadDelay,
		}, box)
	})
	pump(h, box, os.Stdout)
	return h.Err()
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
