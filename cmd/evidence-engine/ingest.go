// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prompt-health/evidence-engine/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [condition ...]",
	Short: "Populate the evidence base from PubMed",
	Long: `Ingest searches PubMed for rehabilitation research on the given
conditions, classifies each article by evidence tier, embeds it, and stores
it. Articles already in the base are skipped, so re-running is safe.

With no arguments, ingest runs over the built-in list of common
musculoskeletal conditions. A failed condition is reported and skipped;
the remaining conditions still run.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	perCondition, _ := cmd.Flags().GetInt("per-condition")
	highQuality, _ := cmd.Flags().GetBool("high-quality")

	cfg := pipelineConfig()
	if err := requireKey(cfg.Embedding.APIKey, "embedding.api_key", "voyage-api-key"); err != nil {
		return err
	}

	p, err := buildPipeline(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	conditions := args
	if len(conditions) == 0 {
		conditions = ingest.DefaultConditions
		fmt.Fprintf(os.Stdout, "No conditions given, ingesting the built-in list (%d conditions)\n", len(conditions))
	}

	summary, err := p.ingestor.BulkIngest(context.Background(), conditions, perCondition, highQuality)
	if err != nil {
		return err
	}

	total, err := p.store.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Stored %d new article(s); evidence base now holds %d\n", summary.Stored, total)

	if summary.Failed > 0 {
		return fmt.Errorf("%d condition(s) failed", summary.Failed)
	}
	return nil
}

func init() {
	ingestCmd.Flags().Int("per-condition", 10, "maximum articles to fetch per condition")
	ingestCmd.Flags().Bool("high-quality", false, "restrict to systematic reviews, meta-analyses, RCTs, and guidelines")

	rootCmd.AddCommand(ingestCmd)
}
