// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StoreConfig holds settings for the article store.
type StoreConfig struct {
	// DataDir is the base directory holding the store database
	// (DataDir/index/evidence.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// EmbeddingConfig holds settings for the embedding provider.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the embedding model identifier (e.g. "voyage-large-2").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the embedding API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// PubMedConfig holds settings for the PubMed E-utilities connector.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent with requests per NCBI usage policy. Optional.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// APIKey raises NCBI rate limits. Optional.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestDelay is the minimum delay between consecutive E-utilities
	// calls (default 500ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// IngestionConfig holds settings for on-demand and bulk ingestion.
type IngestionConfig struct {
	// BatchSize is the maximum number of candidate articles fetched per
	// coverage round (default 8).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MinResults is the minimum ranked-result count for the evidence base
	// to count as sufficient (default 2).
	MinResults int `json:"min_results" yaml:"min_results"`

	// SimilarityThreshold is the minimum top-1 raw similarity for the
	// evidence base to count as sufficient (default 0.3).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
}

// SynthesisConfig holds settings for the plan-synthesis model call.
type SynthesisConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the model's output size (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// EvidenceCount is the number of ranked articles supplied to the
	// model (fixed policy: 5).
	EvidenceCount int `json:"evidence_count" yaml:"evidence_count"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	PubMed    PubMedConfig    `json:"pubmed" yaml:"pubmed"`
	Ingestion IngestionConfig `json:"ingestion" yaml:"ingestion"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
}
