// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar streams publication candidates from the Semantic Scholar
// paper search API. The stream is lazy: candidates are pulled one at a time
// and further result pages are fetched transparently as the buffer drains.
package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/papaper/papaper/internal/httputil"
)

// apiBase is the Semantic Scholar paper search endpoint. Declared as a var
// so tests can substitute an httptest server.
var apiBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	searchFields = "title,abstract,authors,venue,externalIds,year,publicationDate"
	pageSize     = 20
)

// ErrExhausted is returned by Next once the provider has no further
// results. Running out of results is a normal terminal condition for the
// acquisition loop, not a failure.
var ErrExhausted = errors.New("search stream exhausted")

// Candidate is one publication returned by the search stream. Year is the
// publication year as a string, empty when the provider does not know it.
// Fields carries the provider's bibliographic record verbatim; ArxivID and
// DOI are lifted out for the fetch stage.
type Candidate struct {
	Year    string
	Title   string
	Fields  map[string]any
	ArxivID string
	DOI     string
}

// Stream pulls candidates for one keyword scoped to a year range.
type Stream struct {
	client    *http.Client
	query     string
	yearLow   int
	yearHigh  int
	apiKey    string
	userAgent string

	buf       []Candidate
	offset    int
	exhausted bool
}

// NewStream opens a search stream for keyword over [yearLow, yearHigh].
// No request is made until the first Next call.
func NewStream(client *http.Client, keyword string, yearLow, yearHigh int, apiKey, userAgent string) *Stream {
	return &Stream{
		client:    client,
		query:     keyword,
		yearLow:   yearLow,
		yearHigh:  yearHigh,
		apiKey:    apiKey,
		userAgent: userAgent,
	}
}

// Next returns the next candidate, fetching the next result page when the
// buffer is empty. It returns ErrExhausted once the provider has no more
// results; any other error is transient and the caller may keep pulling.
func (s *Stream) Next(ctx context.Context) (Candidate, error) {
	if len(s.buf) == 0 {
		if s.exhausted {
			return Candidate{}, ErrExhausted
		}
		if err := s.fill(ctx); err != nil {
			return Candidate{}, err
		}
		if len(s.buf) == 0 {
			s.exhausted = true
			return Candidate{}, ErrExhausted
		}
	}

	c := s.buf[0]
	s.buf = s.buf[1:]
	return c, nil
}

// fill fetches the next result page into the buffer.
func (s *Stream) fill(ctx context.Context) error {
	params := url.Values{
		"query":  {s.query},
		"offset": {fmt.Sprintf("%d", s.offset)},
		"limit":  {fmt.Sprintf("%d", pageSize)},
		"fields": {searchFields},
		"year":   {fmt.Sprintf("%d-%d", s.yearLow, s.yearHigh)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return fmt.Errorf("search API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search API returned HTTP %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("parsing search response: %w", err)
	}

	for _, p := range sr.Data {
		s.buf = append(s.buf, toCandidate(p))
	}
	s.offset += len(sr.Data)

	// An empty or short page means the provider is out of results.
	if len(sr.Data) < pageSize {
		s.exhausted = true
	}
	return nil
}

// toCandidate maps a provider record to a Candidate, keeping the full
// bibliographic record in Fields.
func toCandidate(p searchPaper) Candidate {
	var authors []any
	for _, a := range p.Authors {
		authors = append(authors, a.Name)
	}

	fields := map[string]any{
		"title":    p.Title,
		"abstract": p.Abstract,
		"authors":  authors,
		"venue":    p.Venue,
	}
	if p.Year > 0 {
		fields["pub_year"] = fmt.Sprintf("%d", p.Year)
	}
	if p.PublicationDate != "" {
		fields["publication_date"] = p.PublicationDate
	}
	if p.ExternalIDs.DOI != "" {
		fields["doi"] = p.ExternalIDs.DOI
	}
	if p.ExternalIDs.ArXiv != "" {
		fields["arxiv_id"] = p.ExternalIDs.ArXiv
	}
	if p.PaperID != "" {
		fields["paper_id"] = p.PaperID
	}

	year := ""
	if p.Year > 0 {
		year = fmt.Sprintf("%d", p.Year)
	}

	return Candidate{
		Year:    year,
		Title:   p.Title,
		Fields:  fields,
		ArxivID: p.ExternalIDs.ArXiv,
		DOI:     p.ExternalIDs.DOI,
	}
}

// Semantic Scholar API JSON structures.
type searchResponse struct {
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Data   []searchPaper `json:"data"`
}

type searchPaper struct {
	PaperID         string            `json:"paperId"`
	Title           string            `json:"title"`
	Abstract        string            `json:"abstract"`
	Venue           string            `json:"venue"`
	Year            int               `json:"year"`
	PublicationDate string            `json:"publicationDate"`
	Authors         []searchAuthor    `json:"authors"`
	ExternalIDs     searchExternalIDs `json:"externalIds"`
}

type searchAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type searchExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
