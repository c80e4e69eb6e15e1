// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the evidence base",
	Long: `Retrieve embeds the query, finds the most similar stored articles, and
ranks them by combined score (semantic similarity blended with evidence
tier). Use it to inspect what evidence a plan request would draw on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := pipelineConfig()
	if err := requireKey(cfg.Embedding.APIKey, "embedding.api_key", "voyage-api-key"); err != nil {
		return err
	}

	p, err := buildPipeline(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	results, err := p.engine.Retrieve(ctx, query, limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-8s  %-8s  %-20s  %-6s  %s\n",
		"Rank", "Score", "Sim", "Tier", "Year", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for i, r := range results {
		title := r.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-8.3f  %-8.3f  %-20s  %-6s  %s\n",
			i+1, r.CombinedScore, r.Similarity, r.Tier, r.Year, title)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))

	thin, err := p.engine.NeedsMoreResearch(ctx, query, limit)
	if err == nil && thin {
		fmt.Fprintln(os.Stdout, "Coverage is thin for this query; consider running ingest.")
	}
	return nil
}

func init() {
	retrieveCmd.Flags().Int("limit", 5, "maximum number of results")
	retrieveCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(retrieveCmd)
}
