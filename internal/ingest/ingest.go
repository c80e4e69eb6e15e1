// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest tops up the evidence base on demand. When the sufficiency
// gate reports inadequate coverage for a query, the orchestrator fetches a
// bounded batch of candidate articles, classifies and embeds them, and
// commits them to the store. Connector failures degrade to zero new
// articles; they never abort the surrounding plan request.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prompt-health/evidence-engine/internal/evidence"
	"github.com/prompt-health/evidence-engine/internal/pubmed"
	"github.com/prompt-health/evidence-engine/pkg/types"
)

// searchQualifier narrows diagnosis-derived fetch queries to the
// physiotherapy literature.
const searchQualifier = "physical therapy treatment"

// DefaultBatchSize is the maximum number of candidates fetched per
// coverage round.
const DefaultBatchSize = 8

// Gate decides whether the evidence base for a query needs augmenting.
type Gate interface {
	NeedsMoreResearch(ctx context.Context, queryText string, k int) (bool, error)
}

// Source produces candidate articles from the literature index.
type Source interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
	Fetch(ctx context.Context, ids []string) ([]pubmed.Candidate, error)
	SearchHighQuality(ctx context.Context, query string, maxResults int) ([]string, error)
	FetchHighQuality(ctx context.Context, ids []string) ([]pubmed.Candidate, error)
}

// DocumentEmbedder embeds candidate article text in document mode.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
}

// ArticleStore commits classified candidates.
type ArticleStore interface {
	InsertIfNew(ctx context.Context, rec types.ArticleRecord, embedding []float64) (bool, error)
}

// Orchestrator drives fetch-classify-store rounds.
type Orchestrator struct {
	gate      Gate
	source    Source
	embedder  DocumentEmbedder
	store     ArticleStore
	batchSize int
	gateK     int
	w         io.Writer
}

// NewOrchestrator wires an orchestrator. gateK is the retrieval depth the
// sufficiency gate evaluates at; progress and warnings go to w.
func NewOrchestrator(gate Gate, source Source, embedder DocumentEmbedder, store ArticleStore, cfg types.IngestionConfig, gateK int, w io.Writer) *Orchestrator {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if w == nil {
		w = io.Discard
	}
	return &Orchestrator{
		gate:      gate,
		source:    source,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		gateK:     gateK,
		w:         w,
	}
}

// EnsureCoverage checks the sufficiency gate for patientQuery and, when
// coverage is inadequate, runs exactly one fetch-and-store round keyed on
// the diagnosis. It returns the number of newly stored records. The round
// is bounded: it never loops until sufficiency, so a single request issues
// at most one batch of external fetches.
func (o *Orchestrator) EnsureCoverage(ctx context.Context, patientQuery, diagnosis string) (int, error) {
	insufficient, err := o.gate.NeedsMoreResearch(ctx, patientQuery, o.gateK)
	if err != nil {
		return 0, fmt.Errorf("checking evidence coverage: %w", err)
	}
	if !insufficient {
		return 0, nil
	}

	fmt.Fprintf(o.w, "evidence gap for %q, fetching up to %d articles\n", patientQuery, o.batchSize)

	candidates, err := o.fetchCandidates(ctx, diagnosis+" "+searchQualifier, o.batchSize, false)
	if err != nil {
		// Connector outage: log and proceed with existing evidence.
		var se *pubmed.SourceError
		if errors.As(err, &se) {
			fmt.Fprintf(o.w, "warning: literature source unavailable: %v\n", err)
			return 0, nil
		}
		return 0, err
	}

	return o.storeCandidates(ctx, candidates, patientQuery)
}

// fetchCandidates searches and fetches one batch from the source.
func (o *Orchestrator) fetchCandidates(ctx context.Context, query string, max int, highQuality bool) ([]pubmed.Candidate, error) {
	var (
		ids []string
		err error
	)
	if highQuality {
		ids, err = o.source.SearchHighQuality(ctx, query, max)
	} else {
		ids, err = o.source.Search(ctx, query, max)
	}
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if highQuality {
		return o.source.FetchHighQuality(ctx, ids)
	}
	return o.source.Fetch(ctx, ids)
}

// storeCandidates classifies, embeds, and inserts a batch. Candidates
// without usable content are skipped. One record's insert failure is
// logged and does not abort the batch; an embedding failure is surfaced
// because nothing downstream can proceed without vectors.
func (o *Orchestrator) storeCandidates(ctx context.Context, candidates []pubmed.Candidate, queryTerm string) (int, error) {
	var usable []pubmed.Candidate
	for _, c := range candidates {
		if !c.Usable() {
			fmt.Fprintf(o.w, "skipped %s: missing title or abstract\n", c.PMID)
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return 0, nil
	}

	records := make([]types.ArticleRecord, len(usable))
	texts := make([]string, len(usable))
	for i, c := range usable {
		records[i] = types.ArticleRecord{
			PMID:      c.PMID,
			Title:     c.Title,
			Abstract:  c.Abstract,
			Authors:   c.Authors,
			Year:      c.Year,
			URL:       c.URL,
			Source:    c.Source,
			Tier:      evidence.Classify(c.Title, c.Abstract),
			QueryTerm: queryTerm,
		}
		texts[i] = records[i].EmbeddingText()
	}

	embeddings, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding candidates: %w", err)
	}

	stored := 0
	for i, rec := range records {
		ok, err := o.store.InsertIfNew(ctx, rec, embeddings[i])
		if err != nil {
			fmt.Fprintf(o.w, "failed  %s: %v\n", rec.PMID, err)
			continue
		}
		if ok {
			fmt.Fprintf(o.w, "stored  %s [%s]\n", rec.PMID, rec.Tier)
			stored++
		} else {
			fmt.Fprintf(o.w, "skipped %s: already stored\n", rec.PMID)
		}
	}
	return stored, nil
}
