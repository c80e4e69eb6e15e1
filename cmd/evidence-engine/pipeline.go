// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/prompt-health/evidence-engine/internal/embedding"
	"github.com/prompt-health/evidence-engine/internal/ingest"
	"github.com/prompt-health/evidence-engine/internal/pubmed"
	"github.com/prompt-health/evidence-engine/internal/retrieval"
	"github.com/prompt-health/evidence-engine/internal/store"
	"github.com/prompt-health/evidence-engine/internal/synthesis"
	"github.com/prompt-health/evidence-engine/pkg/types"
)

// pipelineConfig assembles stage configuration from viper (config file and
// EVIDENCE_ENGINE_* environment) with secrets as fallback for API keys.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("embedding.model", "voyage-large-2")
	viper.SetDefault("pubmed.request_delay", "500ms")
	viper.SetDefault("synthesis.model", "claude-sonnet-4-20250514")

	return types.PipelineConfig{
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
		Embedding: types.EmbeddingConfig{
			Model:  viper.GetString("embedding.model"),
			APIKey: secretDefault("voyage-api-key", viper.GetString("embedding.api_key")),
		},
		PubMed: types.PubMedConfig{
			Email:        secretDefault("entrez-email", viper.GetString("pubmed.email")),
			APIKey:       secretDefault("ncbi-api-key", viper.GetString("pubmed.api_key")),
			RequestDelay: viper.GetDuration("pubmed.request_delay"),
		},
		Ingestion: types.IngestionConfig{
			BatchSize:           viper.GetInt("ingestion.batch_size"),
			MinResults:          viper.GetInt("ingestion.min_results"),
			SimilarityThreshold: viper.GetFloat64("ingestion.similarity_threshold"),
		},
		Synthesis: types.SynthesisConfig{
			Model:         viper.GetString("synthesis.model"),
			APIKey:        secretDefault("anthropic-api-key", viper.GetString("synthesis.api_key")),
			MaxTokens:     viper.GetInt("synthesis.max_tokens"),
			EvidenceCount: viper.GetInt("synthesis.evidence_count"),
		},
	}
}

// pipeline holds the wired stages for one command invocation.
type pipeline struct {
	store    *store.Store
	embedder *embedding.Client
	pubmed   *pubmed.Client
	engine   *retrieval.Engine
	ingestor *ingest.Orchestrator
}

// buildPipeline opens the store and wires the retrieval and ingestion
// stages. Progress output goes to w. The caller must Close the result.
func buildPipeline(cfg types.PipelineConfig, w io.Writer) (*pipeline, error) {
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening evidence store: %w", err)
	}

	embedder := embedding.NewClient(cfg.Embedding)
	pm := pubmed.NewClient(cfg.PubMed, nil)
	engine := retrieval.NewEngine(st, embedder, cfg.Ingestion)

	evidenceCount := cfg.Synthesis.EvidenceCount
	if evidenceCount <= 0 {
		evidenceCount = synthesis.DefaultEvidenceCount
	}
	ingestor := ingest.NewOrchestrator(engine, pm, embedder, st, cfg.Ingestion, evidenceCount, w)

	return &pipeline{
		store:    st,
		embedder: embedder,
		pubmed:   pm,
		engine:   engine,
		ingestor: ingestor,
	}, nil
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

// requireKey fails early when a stage needs an API key that is not
// configured, instead of surfacing a 401 mid-pipeline.
func requireKey(value, name, secretFile string) error {
	if value == "" {
		return fmt.Errorf("%s is not configured: set %s in config, EVIDENCE_ENGINE_%s, or .secrets/%s",
			name, name, envName(name), secretFile)
	}
	return nil
}

func envName(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '.' || c == '-' {
			c = '_'
		} else if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
