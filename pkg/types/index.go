// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Chunk is a bounded contiguous slice of one document's extracted text, the
// unit of embedding and retrieval. Category is the document's directory name
// (publication year for acquired papers) and Title its file name.
type Chunk struct {
	Category string
	Title    string
	Text     string
}

// IndexEntry is one stored chunk with its embedding. Hash is the hex SHA-1
// digest of the chunk text and serves as the entry's dedup identity: the
// persistent backend holds at most one entry per hash.
type IndexEntry struct {
	Hash     string
	Category string
	Title    string
	Content  string
	Vector   []float32
}

// RankedChunk is one retrieval result. Slices of RankedChunk are ordered
// best-first under the backend's distance metric.
type RankedChunk struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Text     string `json:"text"`
}
