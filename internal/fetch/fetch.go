// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch resolves publication candidates to downloadable full-text
// URLs and downloads them. Resolution prefers the arXiv PDF endpoint when
// an arXiv ID is known, then the OpenAlex open-access location for a DOI,
// then the DOI resolver itself.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/papaper/papaper/internal/httputil"
)

// Base URLs for location resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivPDFBase    = "https://arxiv.org/pdf/"
	doiBase         = "https://doi.org/"
	openAlexAPIBase = "https://api.openalex.org/works/"
)

// ErrNoLocation means the candidate carries no identifier the fetcher can
// resolve to a full-text URL.
var ErrNoLocation = errors.New("no full-text location found")

// Fetcher locates and downloads publication full texts.
type Fetcher struct {
	client    *http.Client
	userAgent string
	mailto    string
}

// New returns a Fetcher. mailto, when non-empty, is sent on OpenAlex
// requests as the polite-pool identifier.
func New(client *http.Client, userAgent, mailto string) *Fetcher {
	return &Fetcher{client: client, userAgent: userAgent, mailto: mailto}
}

// Locate resolves a candidate's identifiers to a downloadable URL.
func (f *Fetcher) Locate(ctx context.Context, arxivID, doi string) (string, error) {
	if arxivID != "" {
		return arxivPDFBase + arxivID, nil
	}
	if doi != "" {
		if oaURL, err := f.resolveOpenAlex(ctx, doi); err == nil && oaURL != "" {
			return oaURL, nil
		}
		// The DOI resolver redirects to the publisher; the HTTP client
		// follows redirects and the Accept header asks for PDF.
		return doiBase + doi, nil
	}
	return "", ErrNoLocation
}

// Fetch downloads rawURL to destPath using a temporary file renamed into
// place on success, so a crash never leaves a partial document behind.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// openAlexResponse captures the fields we need from an OpenAlex work record.
type openAlexResponse struct {
	BestOALocation *openAlexLocation `json:"best_oa_location"`
}

type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
}

// resolveOpenAlex queries the OpenAlex API for a DOI and returns the
// open-access PDF URL if one exists. It returns an empty string when the
// paper has no open-access PDF.
func (f *Fetcher) resolveOpenAlex(ctx context.Context, doi string) (string, error) {
	apiURL := openAlexAPIBase + "https://doi.org/" + doi
	if f.mailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(f.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating OpenAlex request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oa openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oa); err != nil {
		return "", fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	if oa.BestOALocation == nil {
		return "", nil
	}
	return oa.BestOALocation.PDFURL, nil
}
