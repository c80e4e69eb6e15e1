// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence assigns evidence-quality tiers to candidate articles
// from study-type keywords in the title and abstract. The classifier is
// heuristic: it stands in for a full per-study grading pipeline.
package evidence

import (
	"strings"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

// tierKeywords pairs each tier with its trigger keywords, highest tier
// first. Matching is first-match-wins over this order.
var tierKeywords = []struct {
	tier     types.EvidenceTier
	keywords []string
}{
	{types.TierSystematicReview, []string{"systematic review", "meta-analysis", "cochrane"}},
	{types.TierRCT, []string{"randomized controlled", "randomised controlled", "rct", "randomized trial"}},
	{types.TierClinicalTrial, []string{"clinical trial", "controlled trial"}},
	{types.TierObservational, []string{"cohort study", "case control", "observational"}},
}

// Classify returns the evidence tier for an article given its title and
// abstract. Matching is case-insensitive over the concatenation of both
// fields. Articles matching no keyword set are TierStandard.
func Classify(title, abstract string) types.EvidenceTier {
	text := strings.ToLower(title + " " + abstract)
	for _, tk := range tierKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(text, kw) {
				return tk.tier
			}
		}
	}
	return types.TierStandard
}
