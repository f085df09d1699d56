// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocatePrefersArxiv(t *testing.T) {
	f := New(http.DefaultClient, "papaper-test", "")

	got, err := f.Locate(context.Background(), "1706.03762", "10.5555/3295222")
	if err != nil {
		t.Fatal(err)
	}
	if got != arxivPDFBase+"1706.03762" {
		t.Errorf("Locate() = %q, want arXiv PDF URL", got)
	}
}

func TestLocateOpenAlex(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.String(), "10.1000/xyz") {
			t.Errorf("unexpected OpenAlex path %s", r.URL)
		}
		fmt.Fprint(w, `{"best_oa_location":{"pdf_url":"https://repo.example.com/xyz.pdf"}}`)
	}))
	defer ts.Close()

	old := openAlexAPIBase
	openAlexAPIBase = ts.URL + "/"
	defer func() { openAlexAPIBase = old }()

	f := New(ts.Client(), "papaper-test", "lab@example.com")
	got, err := f.Locate(context.Background(), "", "10.1000/xyz")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://repo.example.com/xyz.pdf" {
		t.Errorf("Locate() = %q, want open-access PDF URL", got)
	}
}

func TestLocateFallsBackToDOIResolver(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"best_oa_location":null}`)
	}))
	defer ts.Close()

	old := openAlexAPIBase
	openAlexAPIBase = ts.URL + "/"
	defer func() { openAlexAPIBase = old }()

	f := New(ts.Client(), "papaper-test", "")
	got, err := f.Locate(context.Background(), "", "10.1000/xyz")
	if err != nil {
		t.Fatal(err)
	}
	if got != doiBase+"10.1000/xyz" {
		t.Errorf("Locate() = %q, want DOI resolver URL", got)
	}
}

func TestLocateNoIdentifiers(t *testing.T) {
	f := New(http.DefaultClient, "papaper-test", "")
	_, err := f.Locate(context.Background(), "", "")
	if !errors.Is(err, ErrNoLocation) {
		t.Fatalf("Locate() = %v, want ErrNoLocation", err)
	}
}

func TestFetchWritesAtomically(t *testing.T) {
	const body = "%PDF-1.5 fake pdf body"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/pdf" {
			t.Errorf("Accept header = %q", got)
		}
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "2023", "Paper A.pdf")
	f := New(ts.Client(), "papaper-test", "")

	if err := f.Fetch(context.Background(), ts.URL, dest); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != body {
		t.Errorf("downloaded body = %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("destination directory has %d entries, want 1 (no temp files)", len(entries))
	}
}

func TestFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "x.pdf")
	f := New(ts.Client(), "papaper-test", "")

	err := f.Fetch(context.Background(), ts.URL, dest)
	if err == nil {
		t.Fatal("Fetch() = nil, want error on HTTP 404")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file created despite failed download")
	}
}
