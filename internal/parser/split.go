// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 200

	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 20
)

// Split divides text into chunks of at most size characters, each sharing
// its first overlap characters with the tail of the previous chunk. Length
// is measured in runes so multi-byte text never splits mid-character.
//
// Concatenating the chunks with the overlaps removed reconstructs the
// original text exactly, and no chunk ever exceeds size, regardless of the
// input's line structure.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		chunks = append(chunks, string(runes[start:end]))
	}
}
