// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newOllamaServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPathEmbeddings {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Prompt == "" {
			t.Error("empty prompt")
		}

		vec := make([]float32, dims)
		for i := range vec {
			vec[i] = float32(i)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: vec})
	}))
}

func TestEmbed(t *testing.T) {
	ts := newOllamaServer(t, 8)
	defer ts.Close()

	p := NewOllamaProvider(WithBaseURL(ts.URL), WithModel("test-model"), WithDimensions(8))

	vec, err := p.Embed(context.Background(), "some chunk text")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 8 {
		t.Fatalf("len(vec) = %d, want 8", len(vec))
	}
	if p.ModelName() != "test-model" || p.Dimensions() != 8 {
		t.Errorf("provider metadata = (%q, %d)", p.ModelName(), p.Dimensions())
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	ts := newOllamaServer(t, 4)
	defer ts.Close()

	p := NewOllamaProvider(WithBaseURL(ts.URL), WithDimensions(768))

	if _, err := p.Embed(context.Background(), "text"); err == nil {
		t.Fatal("Embed() = nil, want dimension mismatch error")
	}
}

func TestEmbedServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "model not found")
	}))
	defer ts.Close()

	p := NewOllamaProvider(WithBaseURL(ts.URL))

	_, err := p.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("Embed() = nil, want error")
	}
}
