// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Citation records one evidence article cited by a treatment plan.
type Citation struct {
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Year    string   `json:"year" yaml:"year"`
	URL     string   `json:"url" yaml:"url"`
	Source  string   `json:"source" yaml:"source"`
}

// SpecialTest is a recommended orthopedic special test.
type SpecialTest struct {
	Name            string `json:"name" yaml:"name"`
	Procedure       string `json:"procedure" yaml:"procedure"`
	PositiveFinding string `json:"positive_finding" yaml:"positive_finding"`
	Indicates       string `json:"indicates" yaml:"indicates"`
}

// ManualTherapyItem is one recommended manual therapy technique.
type ManualTherapyItem struct {
	Technique string `json:"technique" yaml:"technique"`
	Target    string `json:"target" yaml:"target"`
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// ExerciseItem is one prescribed exercise in the protocol.
type ExerciseItem struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Sets        string `json:"sets,omitempty" yaml:"sets,omitempty"`
	Reps        string `json:"reps,omitempty" yaml:"reps,omitempty"`
	Frequency   string `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TreatmentPlan is the structured, citation-backed output of one synthesis
// run. Field names match the JSON schema the model is instructed to emit.
type TreatmentPlan struct {
	// DifferentialDiagnosis lists alternative diagnoses to consider.
	DifferentialDiagnosis []string `json:"differential_diagnosis" yaml:"differential_diagnosis"`

	// GoldStandard summarizes the best-supported intervention for the
	// presentation.
	GoldStandard string `json:"gold_standard" yaml:"gold_standard"`

	// SpecialTests lists recommended special tests.
	SpecialTests []SpecialTest `json:"special_tests" yaml:"special_tests"`

	// TreatmentPlan is the narrative plan with inline evidence references.
	TreatmentPlan string `json:"treatment_plan" yaml:"treatment_plan"`

	// ManualTherapy lists recommended manual therapy techniques.
	ManualTherapy []ManualTherapyItem `json:"manual_therapy" yaml:"manual_therapy"`

	// ExerciseProtocol is the prescribed exercise program.
	ExerciseProtocol []ExerciseItem `json:"exercise_protocol" yaml:"exercise_protocol"`

	// ProgressionCriteria lists conditions for advancing the program.
	ProgressionCriteria []string `json:"progression_criteria" yaml:"progression_criteria"`

	// Contraindications lists interventions to avoid.
	Contraindications []string `json:"contraindications" yaml:"contraindications"`

	// RecoveryTimeline is the expected recovery narrative.
	RecoveryTimeline string `json:"recovery_timeline" yaml:"recovery_timeline"`

	// Citations lists the evidence the plan draws on. Only supplied
	// evidence may appear here.
	Citations []Citation `json:"citations" yaml:"citations"`
}
