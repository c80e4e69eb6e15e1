// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/prompt-health/evidence-engine/internal/synthesis"
	"github.com/prompt-health/evidence-engine/pkg/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate an evidence-grounded treatment plan for one patient",
	Long: `Plan reads a patient assessment (JSON or YAML), tops up the evidence
base if coverage is thin, retrieves the best-matching research, and asks the
model for a structured treatment plan citing only the supplied evidence.

The assessment file needs at least diagnosis, healing_stage, and symptoms.
Pass --patient - to read the assessment from stdin (JSON).`,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	patientPath, _ := cmd.Flags().GetString("patient")
	if patientPath == "" {
		return fmt.Errorf("--patient is required")
	}

	patient, err := loadPatient(patientPath)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	if err := requireKey(cfg.Embedding.APIKey, "embedding.api_key", "voyage-api-key"); err != nil {
		return err
	}
	if err := requireKey(cfg.Synthesis.APIKey, "synthesis.api_key", "anthropic-api-key"); err != nil {
		return err
	}

	p, err := buildPipeline(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer p.Close()

	backend := synthesis.NewClaudeBackend(cfg.Synthesis)
	coordinator := synthesis.NewCoordinator(p.engine, p.ingestor, backend, cfg.Synthesis, os.Stderr)

	plan, err := coordinator.GeneratePlan(context.Background(), patient)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Plan written to %s\n", outPath)
	}
	return nil
}

// loadPatient reads a patient assessment from path. "-" reads JSON from
// stdin; otherwise the extension picks the decoder (.yaml/.yml or JSON).
func loadPatient(path string) (types.PatientRecord, error) {
	var patient types.PatientRecord

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return patient, fmt.Errorf("reading patient assessment: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, &patient)
	} else {
		err = json.Unmarshal(data, &patient)
	}
	if err != nil {
		return patient, fmt.Errorf("parsing patient assessment %s: %w", path, err)
	}
	return patient, nil
}

func init() {
	planCmd.Flags().String("patient", "", "patient assessment file (JSON or YAML; - for stdin)")
	planCmd.Flags().String("out", "", "write the plan JSON to a file instead of stdout")

	rootCmd.AddCommand(planCmd)
}
