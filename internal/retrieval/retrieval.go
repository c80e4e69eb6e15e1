// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval ranks stored evidence against a query and decides
// whether the evidence base is sufficient. Ranking blends semantic
// similarity with evidence quality; the sufficiency decision looks at raw
// similarity only.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

// Ranking constants. These are part of the observable contract: combined
// scores and the resulting order must be reproducible from them.
const (
	// similarityWeight and tierWeight blend raw cosine similarity with
	// the normalized evidence-tier weight. Similarity dominates so that
	// quality biases ranking without overriding topical relevance.
	similarityWeight = 0.7
	tierWeight       = 0.3

	// overFetchFactor is how many times k candidates the engine requests
	// from the store before re-ranking. Fixed policy, not per-call.
	overFetchFactor = 2
)

// Sufficiency defaults. The gate reports insufficiency when fewer than
// MinResults documents rank, or the top document's raw similarity falls
// below SimilarityThreshold.
const (
	DefaultMinResults          = 2
	DefaultSimilarityThreshold = 0.3
)

// VectorStore is the slice of the article store the engine needs.
type VectorStore interface {
	QuerySimilar(ctx context.Context, queryEmbedding []float64, limit int) ([]types.RankedArticle, error)
}

// QueryEmbedder embeds retrieval queries.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// Engine retrieves and re-ranks evidence for a query.
type Engine struct {
	store    VectorStore
	embedder QueryEmbedder

	minResults          int
	similarityThreshold float64
}

// NewEngine builds an engine over the given store and embedder. Zero
// values in cfg fall back to the package defaults.
func NewEngine(store VectorStore, embedder QueryEmbedder, cfg types.IngestionConfig) *Engine {
	minResults := cfg.MinResults
	if minResults <= 0 {
		minResults = DefaultMinResults
	}
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Engine{
		store:               store,
		embedder:            embedder,
		minResults:          minResults,
		similarityThreshold: threshold,
	}
}

// CombinedScore computes the ranking score for one candidate from its raw
// similarity and evidence tier.
func CombinedScore(similarity float64, tier types.EvidenceTier) float64 {
	return similarity*similarityWeight + float64(tier.Weight())/types.MaxTierWeight*tierWeight
}

// Retrieve embeds queryText, over-fetches 2*k candidates by similarity,
// re-ranks them by combined score, and returns the top k. Fewer than k
// stored candidates rank and return as-is; an empty store yields an empty
// result, not an error.
func (e *Engine) Retrieve(ctx context.Context, queryText string, k int) ([]types.RankedArticle, error) {
	if k <= 0 {
		return nil, nil
	}

	queryEmbedding, err := e.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	candidates, err := e.store.QuerySimilar(ctx, queryEmbedding, overFetchFactor*k)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}

	for i := range candidates {
		candidates[i].CombinedScore = CombinedScore(candidates[i].Similarity, candidates[i].Tier)
	}

	// Stable: ties keep the store's similarity order so output is
	// reproducible.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// NeedsMoreResearch reports whether the evidence base for queryText is
// inadequate: too few ranked documents, or a top document that is only
// weakly related. The check uses raw similarity, not combined score;
// sufficiency is about topical coverage, and quality only affects ranking.
// Each call re-evaluates from the store; nothing is cached.
func (e *Engine) NeedsMoreResearch(ctx context.Context, queryText string, k int) (bool, error) {
	results, err := e.Retrieve(ctx, queryText, k)
	if err != nil {
		return false, err
	}
	if len(results) < e.minResults {
		return true, nil
	}
	return results[0].Similarity < e.similarityThreshold, nil
}
