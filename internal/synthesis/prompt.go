// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/prompt-health/evidence-engine/pkg/types"
)

// planPromptTmpl is the prompt sent to the model for one plan request. It
// embeds the patient assessment and the numbered evidence set and pins the
// response to a fixed JSON schema, citing only from the supplied evidence.
var planPromptTmpl = template.Must(template.New("plan").Parse(`You are an expert Physical Therapy clinical decision support AI.
You must ONLY make recommendations that are directly supported by the provided research evidence.
You must NEVER hallucinate or invent medical recommendations without citation.

PATIENT ASSESSMENT:
- Injury: {{.Injury}}
- Diagnosis: {{.Diagnosis}}
- Symptoms: {{.Symptoms}}
- Stage of Healing: {{.HealingStage}}
- Functional Limitations: {{.FunctionalLimitations}}
- Pain Level: {{.PainLevel}}/10
{{- if .PainWithMovement}}
- Pain With Movement: {{.PainWithMovement}}
{{- end}}
{{- if .TendernessLocations}}
- Tenderness: {{.TendernessLocations}}
{{- end}}
- Constraints: {{.Constraints}}

RETRIEVED EVIDENCE:
{{.Evidence}}

Based ONLY on the evidence above, generate a structured treatment plan in the following JSON format:
{
  "differential_diagnosis": ["alternative diagnosis 1", "alternative diagnosis 2"],
  "gold_standard": "summary of the best-supported intervention for this presentation",
  "special_tests": [
    {"name": "test name", "procedure": "how to perform it", "positive_finding": "what a positive looks like", "indicates": "what it implicates"}
  ],
  "treatment_plan": "detailed narrative treatment plan with evidence references",
  "manual_therapy": [
    {"technique": "technique name", "target": "tissue or joint", "rationale": "why"}
  ],
  "exercise_protocol": [
    {"name": "exercise name", "description": "how to perform it", "sets": "number of sets", "reps": "number of reps", "frequency": "how often", "notes": "any special notes"}
  ],
  "progression_criteria": ["criterion 1", "criterion 2"],
  "contraindications": ["contraindication 1", "contraindication 2"],
  "recovery_timeline": "expected recovery timeline narrative",
  "citations": [
    {"title": "article title", "authors": ["author1", "author2"], "year": "year", "url": "article url", "source": "source label"}
  ]
}

Respond with valid JSON only. No additional text. No markdown. No code fences.
`))

// promptData flattens the patient record and evidence block for the
// template.
type promptData struct {
	Injury                string
	Diagnosis             string
	Symptoms              string
	HealingStage          string
	FunctionalLimitations string
	PainLevel             int
	PainWithMovement      string
	TendernessLocations   string
	Constraints           string
	Evidence              string
}

// BuildQuery derives the retrieval query from a patient record. The
// construction is deterministic: the same record always yields the same
// query, which also serves as the provenance tag on newly ingested
// articles.
func BuildQuery(p types.PatientRecord) string {
	return fmt.Sprintf("%s %s %s stage rehabilitation %s",
		p.Injury, p.Diagnosis, p.HealingStage, strings.Join(p.Symptoms, " "))
}

// formatEvidence renders the ranked evidence as a numbered block the model
// can cite by index.
func formatEvidence(evidence []types.RankedArticle) string {
	if len(evidence) == 0 {
		return "(no evidence documents available; state the evidence gap explicitly in the plan)"
	}
	var b strings.Builder
	for i, doc := range evidence {
		authors := "Unknown"
		if len(doc.Authors) > 0 {
			authors = strings.Join(doc.Authors, ", ")
		}
		fmt.Fprintf(&b, "\n[%d] Title: %s\nAuthors: %s\nYear: %s\nURL: %s\nEvidence level: %s\nAbstract: %s\n---\n",
			i+1, doc.Title, authors, doc.Year, doc.URL, doc.Tier, doc.Abstract)
	}
	return b.String()
}

// buildPrompt renders the full model prompt for a patient and their
// retrieved evidence.
func buildPrompt(p types.PatientRecord, evidence []types.RankedArticle) (string, error) {
	constraints := "None"
	if len(p.Constraints) > 0 {
		constraints = strings.Join(p.Constraints, ", ")
	}
	data := promptData{
		Injury:                p.Injury,
		Diagnosis:             p.Diagnosis,
		Symptoms:              strings.Join(p.Symptoms, ", "),
		HealingStage:          string(p.HealingStage),
		FunctionalLimitations: strings.Join(p.FunctionalLimitations, ", "),
		PainLevel:             p.PainLevel,
		PainWithMovement:      strings.Join(p.PainWithMovement, ", "),
		TendernessLocations:   strings.Join(p.TendernessLocations, ", "),
		Constraints:           constraints,
		Evidence:              formatEvidence(evidence),
	}

	var buf bytes.Buffer
	if err := planPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
