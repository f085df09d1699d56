// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "papaper/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AcquisitionConfig holds settings for the acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DownloadDelay is the delay between consecutive full-text downloads
	// (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as the mailto parameter on OpenAlex requests.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
}

// IndexBackend identifies the vector-index backend.
type IndexBackend string

const (
	// BackendSQLite is the persistent, incrementally updated index: reruns
	// embed and insert only chunks whose content hash is not yet stored.
	BackendSQLite IndexBackend = "sqlite"

	// BackendLocal is the ephemeral full-rebuild index: every run parses
	// and embeds the complete document set and atomically replaces the
	// on-disk index directory contents.
	BackendLocal IndexBackend = "local"
)

// EmbeddingConfig holds settings for the embedding provider.
type EmbeddingConfig struct {
	// BaseURL is the Ollama API endpoint (default http://localhost:11434).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the embedding model name (default "nomic-embed-text").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Dimensions is the expected embedding vector length (default 768).
	Dimensions int `json:"dimensions" yaml:"dimensions" mapstructure:"dimensions"`

	// Timeout is the per-request timeout for embedding calls.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// IndexConfig holds settings for the index-build stage.
type IndexConfig struct {
	// Backend selects the index backend: sqlite or local.
	Backend IndexBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// ChunkSize is the target chunk length in characters (default 200).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// ChunkOverlap is the character overlap between consecutive chunks
	// (default 20).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
}

// SearchConfig holds settings for the retrieval stage.
type SearchConfig struct {
	// TopK is the number of nearest chunks to retrieve (default 100).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
}

// ContextConfig holds settings for context assembly.
type ContextConfig struct {
	// TokenBudget is the soft ceiling on assembled context size, measured
	// by the reference tokenizer.
	TokenBudget int `json:"token_budget" yaml:"token_budget" mapstructure:"token_budget"`

	// TokenizerModel selects the tiktoken encoding (default "gpt-4").
	TokenizerModel string `json:"tokenizer_model" yaml:"tokenizer_model" mapstructure:"tokenizer_model"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Embedding   EmbeddingConfig   `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Index       IndexConfig       `json:"index" yaml:"index" mapstructure:"index"`
	Search      SearchConfig      `json:"search" yaml:"search" mapstructure:"search"`
	Context     ContextConfig     `json:"context" yaml:"context" mapstructure:"context"`
}
