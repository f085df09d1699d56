// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire drives the resumable search-and-download loop: pull
// candidates from a search stream, record each one in the metadata store
// before attempting its download, and stop once the store holds the target
// number of papers or the stream runs dry.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/papaper/papaper/internal/metastore"
	"github.com/papaper/papaper/internal/scholar"
	"github.com/papaper/papaper/internal/worker"
	"github.com/papaper/papaper/pkg/types"
)

// Tag prefixes the controller's progress messages.
const Tag = "paper"

// maxStreamFailures bounds consecutive transient search errors before the
// run is treated as exhausted.
const maxStreamFailures = 5

// Stream yields publication candidates until it returns scholar.ErrExhausted.
type Stream interface {
	Next(ctx context.Context) (scholar.Candidate, error)
}

// Fetcher locates and downloads a candidate's full text.
type Fetcher interface {
	Locate(ctx context.Context, arxivID, doi string) (string, error)
	Fetch(ctx context.Context, rawURL, destPath string) error
}

// Input describes one acquisition run.
type Input struct {
	SaveDir      string
	Keyword      string
	TargetPapers int

	// Delay is the pause between consecutive candidates, a courtesy to
	// the upstream providers. Zero means no pause.
	Delay time.Duration
}

// Controller runs the acquisition loop for one keyword.
type Controller struct {
	stream  Stream
	fetcher Fetcher
}

// NewController returns a Controller pulling from stream and downloading
// through fetcher.
func NewController(stream Stream, fetcher Fetcher) *Controller {
	return &Controller{stream: stream, fetcher: fetcher}
}

// Run pulls candidates until the metadata store counts in.TargetPapers
// records or the stream is exhausted. Every candidate is recorded before
// its download is attempted and the store is saved after every candidate,
// so an interrupted run resumes from the last processed record and never
// re-fetches a paper it has already seen, whatever its download outcome.
// Download failures are recorded and never abort the pass; a corrupt
// metadata file or an unwritable store is terminal.
func (c *Controller) Run(ctx context.Context, in Input, box *worker.Mailbox) error {
	metaPath := filepath.Join(in.SaveDir, in.Keyword+".json")

	meta, err := metastore.Load(metaPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(in.SaveDir, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	searched := meta.Count()
	box.Progressf(Tag, "resuming at %d / %d", searched, in.TargetPapers)

	failures := 0
	for searched < in.TargetPapers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cand, err := c.stream.Next(ctx)
		if errors.Is(err, scholar.ErrExhausted) {
			box.Progressf(Tag, "search exhausted at %d / %d", searched, in.TargetPapers)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			box.Progressf(Tag, "search error: %v", err)
			if failures >= maxStreamFailures {
				box.Progressf(Tag, "stopping after %d consecutive search errors", failures)
				return nil
			}
			continue
		}
		failures = 0

		year := cand.Year
		if year == "" {
			year = "unknown"
		}
		title := cand.Title
		if title == "" {
			title = "untitled"
		}

		if _, ok := meta.Lookup(year, title); ok {
			// Already counted toward the target on a previous pull or a
			// previous run. Refresh its bibliographic fields only.
			meta.MergeFields(year, title, cand.Fields)
		} else {
			// Record discovery before the fetch so a crash mid-download
			// cannot lose the candidate.
			meta.Put(year, title, types.PublicationRecord{Fields: cand.Fields})
			if err := metastore.Save(metaPath, meta); err != nil {
				return err
			}

			status := c.download(ctx, in.SaveDir, year, title, cand, box)
			rec, _ := meta.Lookup(year, title)
			rec.Download = status
			meta.Put(year, title, rec)
		}

		if err := metastore.Save(metaPath, meta); err != nil {
			return err
		}

		searched = meta.Count()
		box.Progressf(Tag, "%d / %d %s", searched, in.TargetPapers, title)

		if in.Delay > 0 && searched < in.TargetPapers {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(in.Delay):
			}
		}
	}

	return nil
}

// download attempts one candidate's full-text fetch and reports the outcome
// as a download status. It never fails the run.
func (c *Controller) download(ctx context.Context, saveDir, year, title string, cand scholar.Candidate, box *worker.Mailbox) types.DownloadStatus {
	url, err := c.fetcher.Locate(ctx, cand.ArxivID, cand.DOI)
	if err != nil {
		box.Progressf(Tag, "no full text for %s: %v", title, err)
		return types.DownloadFailed
	}

	dest := filepath.Join(saveDir, year, SanitizeTitle(title)+".pdf")
	if err := c.fetcher.Fetch(ctx, url, dest); err != nil {
		box.Progressf(Tag, "download failed for %s: %v", title, err)
		return types.DownloadFailed
	}
	return types.DownloadSucceeded
}

var unsafeFilename = regexp.MustCompile(`[\\/:*?"<>|[:cntrl:]]+`)

// SanitizeTitle makes a publication title safe to use as a filename by
// stripping path separators, shell-hostile punctuation, and control
// characters. A title that sanitizes to nothing becomes "untitled".
func SanitizeTitle(title string) string {
	s := unsafeFilename.ReplaceAllString(title, " ")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "untitled"
	}
	return s
}
