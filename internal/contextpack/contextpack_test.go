// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package contextpack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// wordCounter charges one token per whitespace-separated word, which keeps
// the budgets in these tables easy to read without fetching BPE tables.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func TestPack(t *testing.T) {
	tests := []struct {
		name       string
		texts      []string
		budget     int
		wantText   string
		wantTokens int
	}{
		{
			name:       "empty input",
			texts:      nil,
			budget:     100,
			wantText:   "",
			wantTokens: 0,
		},
		{
			name:       "zero budget still takes the first text",
			texts:      []string{"one two three"},
			budget:     0,
			wantText:   "one two three",
			wantTokens: 3,
		},
		{
			name:       "oversized first text stands alone",
			texts:      []string{"a b c d e", "f"},
			budget:     2,
			wantText:   "a b c d e",
			wantTokens: 5,
		},
		{
			name:       "stops before the text that would overflow",
			texts:      []string{"a b", "c d", "e f g"},
			budget:     5,
			wantText:   "a b\nc d",
			wantTokens: 4,
		},
		{
			name:       "everything fits",
			texts:      []string{"a b", "c d", "e"},
			budget:     5,
			wantText:   "a b\nc d\ne",
			wantTokens: 5,
		},
		{
			name:       "exact boundary is included",
			texts:      []string{"a b", "c d"},
			budget:     4,
			wantText:   "a b\nc d",
			wantTokens: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, tokens := Pack(tt.texts, tt.budget, wordCounter{})
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantTokens, tokens)
		})
	}
}

func TestPackOrderPreserved(t *testing.T) {
	texts := []string{"third most relevant", "second", "first in rank order no wait"}
	text, _ := Pack(texts, 100, wordCounter{})
	assert.Equal(t, strings.Join(texts, "\n"), text,
		"packing keeps the caller's ranking order")
}
