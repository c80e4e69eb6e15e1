// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns a patient assessment plus retrieved evidence
// into a structured treatment plan via one language-model call. The model
// answers in a fixed JSON schema; anything that does not parse or is
// missing required fields fails the request. The engine never substitutes
// a default plan.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

// DefaultEvidenceCount is how many ranked articles are supplied to the
// model. Fixed policy.
const DefaultEvidenceCount = 5

// ParseError marks model output that is not valid JSON after optional
// code-fence stripping.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("synthesis: model output is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError marks parsed model output missing required plan fields.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("synthesis: plan is missing required fields: %s", strings.Join(e.Missing, ", "))
}

// EvidenceRetriever provides the final ranked evidence set.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, queryText string, k int) ([]types.RankedArticle, error)
}

// CoverageEnsurer tops up the evidence base before retrieval.
type CoverageEnsurer interface {
	EnsureCoverage(ctx context.Context, patientQuery, diagnosis string) (int, error)
}

// Coordinator drives one plan-generation request end to end: coverage
// check, retrieval, prompt, model call, parse, validate. Steps run
// strictly in that order with no retries or loops.
type Coordinator struct {
	retriever     EvidenceRetriever
	ingestor      CoverageEnsurer
	model         ModelBackend
	evidenceCount int
	w             io.Writer
}

// NewCoordinator wires a coordinator. Progress goes to w; a zero
// evidenceCount uses the default of 5.
func NewCoordinator(retriever EvidenceRetriever, ingestor CoverageEnsurer, model ModelBackend, cfg types.SynthesisConfig, w io.Writer) *Coordinator {
	count := cfg.EvidenceCount
	if count <= 0 {
		count = DefaultEvidenceCount
	}
	if w == nil {
		w = io.Discard
	}
	return &Coordinator{
		retriever:     retriever,
		ingestor:      ingestor,
		model:         model,
		evidenceCount: count,
		w:             w,
	}
}

// GeneratePlan produces a treatment plan for the patient. Failures keep
// their subsystem visible: evidence retrieval/storage errors wrap the
// underlying store or embedding error, while model-output problems come
// back as *ParseError or *ValidationError.
func (c *Coordinator) GeneratePlan(ctx context.Context, patient types.PatientRecord) (*types.TreatmentPlan, error) {
	if err := patient.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	query := BuildQuery(patient)
	fmt.Fprintf(c.w, "plan %s: query %q\n", requestID, query)

	stored, err := c.ingestor.EnsureCoverage(ctx, query, patient.Diagnosis)
	if err != nil {
		return nil, fmt.Errorf("evidence retrieval failed: %w", err)
	}
	if stored > 0 {
		fmt.Fprintf(c.w, "plan %s: ingested %d new articles\n", requestID, stored)
	}

	evidence, err := c.retriever.Retrieve(ctx, query, c.evidenceCount)
	if err != nil {
		return nil, fmt.Errorf("evidence retrieval failed: %w", err)
	}
	fmt.Fprintf(c.w, "plan %s: %d evidence documents\n", requestID, len(evidence))

	prompt, err := buildPrompt(patient, evidence)
	if err != nil {
		return nil, err
	}

	raw, err := c.model.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	plan, err := parsePlan(raw)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.w, "plan %s: done (%d citations)\n", requestID, len(plan.Citations))
	return plan, nil
}

// requiredPlanFields must all be present in the model's JSON output.
var requiredPlanFields = []string{
	"differential_diagnosis",
	"gold_standard",
	"special_tests",
	"treatment_plan",
	"manual_therapy",
	"exercise_protocol",
	"progression_criteria",
	"contraindications",
	"recovery_timeline",
	"citations",
}

// parsePlan strips an optional code fence, parses the JSON, and validates
// the result against the plan schema.
func parsePlan(raw string) (*types.TreatmentPlan, error) {
	clean := stripCodeFence(raw)

	// Probe key presence first: a slice field that unmarshals to nil is
	// indistinguishable from an absent one afterwards.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var missing []string
	for _, field := range requiredPlanFields {
		if _, ok := fields[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	var plan types.TreatmentPlan
	if err := json.Unmarshal([]byte(clean), &plan); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	if strings.TrimSpace(plan.TreatmentPlan) == "" {
		missing = append(missing, "treatment_plan")
	}
	if strings.TrimSpace(plan.RecoveryTimeline) == "" {
		missing = append(missing, "recovery_timeline")
	}
	if strings.TrimSpace(plan.GoldStandard) == "" {
		missing = append(missing, "gold_standard")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return &plan, nil
}

// stripCodeFence removes a wrapping Markdown code fence, with or without a
// language tag, if one is present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
