// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// HealingStage identifies where the patient is in tissue healing.
type HealingStage string

const (
	StageAcute    HealingStage = "acute"
	StageSubacute HealingStage = "subacute"
	StageChronic  HealingStage = "chronic"
)

// Valid reports whether s is a recognized healing stage.
func (s HealingStage) Valid() bool {
	switch s {
	case StageAcute, StageSubacute, StageChronic:
		return true
	}
	return false
}

// PatientRecord is the structured patient assessment driving one
// plan-generation request.
type PatientRecord struct {
	// Injury is the type of injury.
	Injury string `json:"injury" yaml:"injury"`

	// Diagnosis is the clinical diagnosis.
	Diagnosis string `json:"diagnosis" yaml:"diagnosis"`

	// Symptoms lists reported symptoms.
	Symptoms []string `json:"symptoms" yaml:"symptoms"`

	// HealingStage is one of acute, subacute, chronic.
	HealingStage HealingStage `json:"healing_stage" yaml:"healing_stage"`

	// FunctionalLimitations lists activities the patient cannot perform.
	FunctionalLimitations []string `json:"functional_limitations" yaml:"functional_limitations"`

	// PainLevel is the reported pain on a 0-10 scale.
	PainLevel int `json:"pain_level" yaml:"pain_level"`

	// PainWithMovement lists movements that provoke pain. Optional.
	PainWithMovement []string `json:"pain_with_movement,omitempty" yaml:"pain_with_movement,omitempty"`

	// TendernessLocations lists palpation findings. Optional.
	TendernessLocations []string `json:"tenderness_locations,omitempty" yaml:"tenderness_locations,omitempty"`

	// Constraints lists treatment constraints, e.g. "no weight bearing". Optional.
	Constraints []string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Validate checks required fields and value ranges.
func (p PatientRecord) Validate() error {
	if strings.TrimSpace(p.Diagnosis) == "" {
		return fmt.Errorf("patient record: diagnosis is required")
	}
	if !p.HealingStage.Valid() {
		return fmt.Errorf("patient record: healing stage %q is not one of acute, subacute, chronic", p.HealingStage)
	}
	if len(p.Symptoms) == 0 {
		return fmt.Errorf("patient record: at least one symptom is required")
	}
	if p.PainLevel < 0 || p.PainLevel > 10 {
		return fmt.Errorf("patient record: pain level %d out of range [0,10]", p.PainLevel)
	}
	return nil
}
