// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
)

// DefaultConditions seeds the store with common musculoskeletal
// presentations when no condition list is supplied.
var DefaultConditions = []string{
	"ACL reconstruction rehabilitation physical therapy",
	"rotator cuff tear physical therapy treatment",
	"lateral ankle sprain rehabilitation",
	"patellofemoral pain syndrome exercise treatment",
	"lumbar disc herniation physical therapy",
	"shoulder impingement syndrome rehabilitation",
	"Achilles tendinopathy exercise treatment",
	"knee osteoarthritis physical therapy",
	"plantar fasciitis treatment rehabilitation",
	"cervical radiculopathy physical therapy",
	"hip labral tear rehabilitation",
	"tennis elbow lateral epicondylitis treatment",
	"frozen shoulder adhesive capsulitis treatment",
	"meniscus tear rehabilitation physical therapy",
	"carpal tunnel syndrome physical therapy",
	"IT band syndrome rehabilitation running",
	"hamstring strain rehabilitation return to sport",
	"low back pain exercise therapy treatment",
	"biceps tendinopathy rehabilitation",
	"tibial stress fracture rehabilitation",
}

// BulkSummary holds counts from a bulk ingestion run.
type BulkSummary struct {
	Stored int
	Failed int
}

// BulkIngest seeds the store across a condition list, fetching up to
// perCondition articles for each. highQuality switches to the filtered
// publication-type search and source label. A condition whose fetch fails
// is counted and skipped; the run continues. The source's injected rate
// limiter paces the calls.
func (o *Orchestrator) BulkIngest(ctx context.Context, conditions []string, perCondition int, highQuality bool) (BulkSummary, error) {
	if len(conditions) == 0 {
		conditions = DefaultConditions
	}
	if perCondition <= 0 {
		perCondition = o.batchSize
	}

	var summary BulkSummary
	for i, condition := range conditions {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		fmt.Fprintf(o.w, "[%d/%d] %s\n", i+1, len(conditions), condition)

		candidates, err := o.fetchCandidates(ctx, condition, perCondition, highQuality)
		if err != nil {
			fmt.Fprintf(o.w, "warning: %s: %v\n", condition, err)
			summary.Failed++
			continue
		}

		stored, err := o.storeCandidates(ctx, candidates, condition)
		if err != nil {
			fmt.Fprintf(o.w, "warning: %s: %v\n", condition, err)
			summary.Failed++
			continue
		}
		summary.Stored += stored
	}

	fmt.Fprintf(o.w, "\nstored: %d, failed conditions: %d\n", summary.Stored, summary.Failed)
	return summary, nil
}
