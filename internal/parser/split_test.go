// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"strings"
	"testing"
)

// deoverlap reconstructs the original text from chunks produced with the
// given overlap.
func deoverlap(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		runes := []rune(c)
		if len(runes) > overlap {
			b.WriteString(string(runes[overlap:]))
		}
	}
	return b.String()
}

func TestSplitReconstructs(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		size    int
		overlap int
	}{
		{"short single chunk", 150, 200, 20},
		{"exact chunk boundary", 200, 200, 20},
		{"several chunks", 1000, 200, 20},
		{"no overlap", 777, 100, 0},
		{"large overlap", 500, 50, 40},
		{"one char", 1, 200, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("abcdefghij", (tt.length+9)/10)[:tt.length]
			chunks := Split(text, tt.size, tt.overlap)

			if got := deoverlap(chunks, tt.overlap); got != text {
				t.Errorf("de-overlapped concatenation differs from input: len %d vs %d", len(got), len(text))
			}
			for i, c := range chunks {
				if n := len([]rune(c)); n > tt.size {
					t.Errorf("chunk %d has %d chars, exceeds size %d", i, n, tt.size)
				}
			}

			// Chunk count is about ceil(length / (size - overlap)).
			step := tt.size - tt.overlap
			want := (tt.length + step - 1) / step
			if len(chunks) > want+1 || len(chunks) < want-1 {
				t.Errorf("chunk count = %d, want about %d", len(chunks), want)
			}
		})
	}
}

func TestSplitPathologicalSingleLine(t *testing.T) {
	// A single very long line still never produces an oversized chunk.
	text := strings.Repeat("x", 5000)
	chunks := Split(text, 200, 20)
	for i, c := range chunks {
		if len(c) > 200 {
			t.Fatalf("chunk %d has %d chars", i, len(c))
		}
	}
	if got := deoverlap(chunks, 20); got != text {
		t.Error("de-overlapped concatenation differs from input")
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := Split("", 200, 20); got != nil {
		t.Errorf("Split(empty) = %v, want nil", got)
	}
}

func TestSplitMultiByte(t *testing.T) {
	text := strings.Repeat("량자컴퓨터 연구 ", 60)
	chunks := Split(text, 50, 10)
	if got := deoverlap(chunks, 10); got != text {
		t.Error("de-overlapped concatenation differs from input")
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 50 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
}

func TestSplitDegenerateOverlap(t *testing.T) {
	// overlap >= size is clamped rather than looping forever.
	chunks := Split(strings.Repeat("y", 100), 10, 10)
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	if got := deoverlap(chunks, 9); got != strings.Repeat("y", 100) {
		t.Error("clamped overlap loses content")
	}
}
