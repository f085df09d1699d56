// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// newPagedServer serves totalPapers synthetic results honoring offset/limit,
// recording the query parameters of the last request.
func newPagedServer(t *testing.T, totalPapers int, lastParams *map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if lastParams != nil {
			*lastParams = map[string]string{
				"query": q.Get("query"),
				"year":  q.Get("year"),
			}
		}

		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		fmt.Fprint(w, `{"total":`+strconv.Itoa(totalPapers)+`,"offset":`+strconv.Itoa(offset)+`,"data":[`)
		first := true
		for i := offset; i < offset+limit && i < totalPapers; i++ {
			if !first {
				fmt.Fprint(w, ",")
			}
			first = false
			fmt.Fprintf(w, `{"paperId":"p%d","title":"Paper %d","year":2023,"authors":[{"name":"A"}],"externalIds":{"DOI":"10.1/p%d"}}`, i, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
}

func TestStreamPullsAcrossPages(t *testing.T) {
	ts := newPagedServer(t, pageSize+3, nil)
	defer ts.Close()

	old := apiBase
	apiBase = ts.URL
	defer func() { apiBase = old }()

	s := NewStream(ts.Client(), "quantum", 2022, 2023, "", "papaper-test")

	var got []Candidate
	for {
		c, err := s.Next(context.Background())
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, c)
	}

	if len(got) != pageSize+3 {
		t.Fatalf("pulled %d candidates, want %d", len(got), pageSize+3)
	}
	if got[0].Title != "Paper 0" || got[pageSize].Title != fmt.Sprintf("Paper %d", pageSize) {
		t.Errorf("candidates out of stream order: first %q, page boundary %q", got[0].Title, got[pageSize].Title)
	}

	// Exhaustion is sticky.
	if _, err := s.Next(context.Background()); !errors.Is(err, ErrExhausted) {
		t.Errorf("Next() after exhaustion = %v, want ErrExhausted", err)
	}
}

func TestStreamYearScope(t *testing.T) {
	var params map[string]string
	ts := newPagedServer(t, 1, &params)
	defer ts.Close()

	old := apiBase
	apiBase = ts.URL
	defer func() { apiBase = old }()

	s := NewStream(ts.Client(), "transformers", 2021, 2023, "", "papaper-test")
	if _, err := s.Next(context.Background()); err != nil {
		t.Fatal(err)
	}

	if params["query"] != "transformers" {
		t.Errorf("query param = %q", params["query"])
	}
	if params["year"] != "2021-2023" {
		t.Errorf("year param = %q, want 2021-2023", params["year"])
	}
}

func TestStreamCandidateMapping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total":1,"offset":0,"data":[
			{"paperId":"abc","title":"Attention Is All You Need","abstract":"We propose...",
			 "venue":"NeurIPS","year":2017,"publicationDate":"2017-06-12",
			 "authors":[{"authorId":"1","name":"Ashish Vaswani"}],
			 "externalIds":{"DOI":"10.5555/3295222","ArXiv":"1706.03762"}}]}`)
	}))
	defer ts.Close()

	old := apiBase
	apiBase = ts.URL
	defer func() { apiBase = old }()

	s := NewStream(ts.Client(), "attention", 2017, 2017, "", "papaper-test")
	c, err := s.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if c.Year != "2017" {
		t.Errorf("Year = %q", c.Year)
	}
	if c.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.ArxivID != "1706.03762" || c.DOI != "10.5555/3295222" {
		t.Errorf("identifiers = (%q, %q)", c.ArxivID, c.DOI)
	}
	if c.Fields["venue"] != "NeurIPS" || c.Fields["pub_year"] != "2017" {
		t.Errorf("Fields = %v", c.Fields)
	}
}

func TestStreamTransientError(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"total":1,"offset":0,"data":[{"paperId":"p","title":"T","year":2023,"externalIds":{}}]}`)
	}))
	defer ts.Close()

	old := apiBase
	apiBase = ts.URL
	defer func() { apiBase = old }()

	s := NewStream(ts.Client(), "q", 2023, 2023, "", "papaper-test")

	// First pull fails but the stream is not exhausted: the caller may retry.
	if _, err := s.Next(context.Background()); err == nil || errors.Is(err, ErrExhausted) {
		t.Fatalf("Next() = %v, want transient error", err)
	}
	c, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() after transient error = %v", err)
	}
	if c.Title != "T" {
		t.Errorf("Title = %q", c.Title)
	}
}
