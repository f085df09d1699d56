// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package contextpack assembles retrieved chunks into a prompt-sized block
// of text under a token budget.
package contextpack

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokenizerModel selects the encoding used to count tokens.
const DefaultTokenizerModel = "gpt-4"

// TokenCounter reports how many tokens a piece of text costs.
type TokenCounter interface {
	Count(text string) int
}

// Tiktoken counts tokens with the BPE encoding of a named chat model.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken returns a counter for model's encoding. An empty model name
// falls back to DefaultTokenizerModel.
func NewTiktoken(model string) (*Tiktoken, error) {
	if model == "" {
		model = DefaultTokenizerModel
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer for %s: %w", model, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Count implements TokenCounter.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Pack joins texts with newlines, greedily in order, stopping before the
// first text that would push the running total past budget. The first text
// is always included, so the result can exceed the budget by at most one
// text; an empty input packs to an empty string at zero tokens.
func Pack(texts []string, budget int, counter TokenCounter) (string, int) {
	var parts []string
	total := 0

	for _, text := range texts {
		n := counter.Count(text)
		if len(parts) > 0 && total+n > budget {
			break
		}
		parts = append(parts, text)
		total += n
	}

	return strings.Join(parts, "\n"), total
}
