// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompt-health/evidence-engine/internal/evidence"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Grade a single article's evidence tier",
	Long: `Classify applies the evidence-tier keyword rules to a title and
abstract and prints the resulting tier and its ranking weight. Useful for
checking how an article would be graded before ingesting it.`,
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	abstract, _ := cmd.Flags().GetString("abstract")
	if title == "" && abstract == "" {
		return fmt.Errorf("--title or --abstract is required")
	}

	tier := evidence.Classify(title, abstract)
	fmt.Printf("%s (weight %d)\n", tier, tier.Weight())
	return nil
}

func init() {
	classifyCmd.Flags().String("title", "", "article title")
	classifyCmd.Flags().String("abstract", "", "article abstract")

	rootCmd.AddCommand(classifyCmd)
}
