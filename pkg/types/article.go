// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the evidence engine:
// article records and evidence tiers, patient assessments, treatment plans,
// and per-stage configuration.
package types

import "strings"

// EvidenceTier is an ordinal label for a study's methodological strength.
// Higher tiers outrank lower ones in ranking but never act as a hard filter.
type EvidenceTier string

const (
	TierSystematicReview EvidenceTier = "systematic_review"
	TierRCT              EvidenceTier = "rct"
	TierClinicalTrial    EvidenceTier = "clinical_trial"
	TierObservational    EvidenceTier = "observational"
	TierStandard         EvidenceTier = "standard"
)

// MaxTierWeight is the weight of the highest tier. The tier list is closed,
// so combined-score normalization divides by this constant.
const MaxTierWeight = 4

// tierWeights maps each tier to its ordinal weight.
var tierWeights = map[EvidenceTier]int{
	TierSystematicReview: 4,
	TierRCT:              3,
	TierClinicalTrial:    2,
	TierObservational:    1,
	TierStandard:         0,
}

// Weight returns the tier's ordinal weight. Unknown tiers weigh zero.
func (t EvidenceTier) Weight() int {
	return tierWeights[t]
}

// Valid reports whether t is one of the five defined tiers.
func (t EvidenceTier) Valid() bool {
	_, ok := tierWeights[t]
	return ok
}

// ArticleRecord is a single piece of literature evidence. Records are
// created by ingestion, never mutated, and never deleted. The pair
// (PMID, SourceDB) is unique in the store.
type ArticleRecord struct {
	// PMID is the article's identifier within its source database.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year as reported by the source. May be empty.
	Year string `json:"year" yaml:"year"`

	// URL is the canonical article URL.
	URL string `json:"url" yaml:"url"`

	// Source is the source label, e.g. "PubMed" or "PubMed (High Quality)".
	Source string `json:"source" yaml:"source"`

	// Tier is the evidence-quality tier assigned at ingestion.
	Tier EvidenceTier `json:"evidence_tier" yaml:"evidence_tier"`

	// QueryTerm records the search term that caused ingestion. Optional.
	QueryTerm string `json:"query_term,omitempty" yaml:"query_term,omitempty"`
}

// SourceDB returns the lowercased source label, the second half of the
// store's uniqueness key.
func (a ArticleRecord) SourceDB() string {
	return strings.ToLower(a.Source)
}

// EmbeddingText returns the text embedded for this article: title and
// abstract joined the way the embedding index expects.
func (a ArticleRecord) EmbeddingText() string {
	return a.Title + ". " + a.Abstract
}

// RankedArticle projects an ArticleRecord with retrieval scores. It is
// transient: produced by one retrieval call and never persisted.
type RankedArticle struct {
	ArticleRecord

	// Similarity is the raw cosine similarity to the query embedding.
	Similarity float64 `json:"similarity" yaml:"similarity"`

	// CombinedScore blends similarity with evidence tier. Used only for
	// ordering, never for the sufficiency decision.
	CombinedScore float64 `json:"combined_score" yaml:"combined_score"`
}
