// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"testing"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		abstract string
		want     types.EvidenceTier
	}{
		{
			"systematic review in title",
			"Exercise therapy for chronic low back pain: a systematic review",
			"",
			types.TierSystematicReview,
		},
		{
			"meta-analysis in abstract",
			"Eccentric loading in Achilles tendinopathy",
			"We conducted a meta-analysis of 14 trials.",
			types.TierSystematicReview,
		},
		{
			"cochrane",
			"Cochrane corner: manual therapy for neck pain",
			"",
			types.TierSystematicReview,
		},
		{
			"randomised controlled (British spelling)",
			"A randomised controlled trial of early mobilisation",
			"",
			types.TierRCT,
		},
		{
			"rct abbreviation",
			"Blood flow restriction training after ACL reconstruction: an RCT",
			"",
			types.TierRCT,
		},
		{
			"clinical trial",
			"A clinical trial of dry needling for plantar fasciitis",
			"",
			types.TierClinicalTrial,
		},
		{
			"cohort study",
			"Return to sport after hamstring strain",
			"A prospective cohort study of 212 athletes.",
			types.TierObservational,
		},
		{
			"case control",
			"Risk factors for patellofemoral pain: a case control design",
			"",
			types.TierObservational,
		},
		{
			"no keywords",
			"Shoulder pain overview",
			"General discussion of rehabilitation principles.",
			types.TierStandard,
		},
		{
			"both empty",
			"",
			"",
			types.TierStandard,
		},
		{
			"case insensitive",
			"SYSTEMATIC REVIEW of exercise dosage",
			"",
			types.TierSystematicReview,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.title, tt.abstract); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Higher-tier keywords must win when several keyword sets appear in the
// same text.
func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.EvidenceTier
	}{
		{
			"systematic review beats rct",
			"A systematic review of randomized controlled trials",
			types.TierSystematicReview,
		},
		{
			"rct beats clinical trial",
			"A randomized controlled clinical trial",
			types.TierRCT,
		},
		{
			"clinical trial beats observational",
			"A controlled trial with an observational follow-up",
			types.TierClinicalTrial,
		},
		{
			"all tiers present",
			"Systematic review and meta-analysis of randomized controlled trials, clinical trials, and cohort study data",
			types.TierSystematicReview,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, ""); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTierWeights(t *testing.T) {
	order := []types.EvidenceTier{
		types.TierStandard,
		types.TierObservational,
		types.TierClinicalTrial,
		types.TierRCT,
		types.TierSystematicReview,
	}
	for i, tier := range order {
		if tier.Weight() != i {
			t.Errorf("%s.Weight() = %d, want %d", tier, tier.Weight(), i)
		}
	}
	if types.TierSystematicReview.Weight() != types.MaxTierWeight {
		t.Errorf("top tier weight %d does not match MaxTierWeight %d",
			types.TierSystematicReview.Weight(), types.MaxTierWeight)
	}
}
