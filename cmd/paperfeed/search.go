// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfeed/internal/search"
	"github.com/pdiddy/paperfeed/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search and print papers without enrichment or publishing",
	Long: `Search queries Semantic Scholar and arXiv for papers matching the
configured keywords, deduplicates the results, and prints them. Results can
be saved to a query file and reloaded later without re-querying the APIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := searchConfig()

		var papers []types.Paper
		if load, _ := cmd.Flags().GetString("load"); load != "" {
			qf, err := search.ReadQueryFile(load)
			if err != nil {
				return err
			}
			papers = qf.Results
		} else {
			if len(cfg.Queries) == 0 {
				return fmt.Errorf("no keywords configured; add a keywords list to the config file")
			}
			client := &http.Client{Timeout: cfg.Timeout}
			backends := search.DefaultBackends(client, cfg.SemanticScholarAPIKey)

			var err error
			papers, err = search.Search(cmd.Context(), backends, cfg, os.Stderr)
			if err != nil {
				return err
			}
		}

		if save, _ := cmd.Flags().GetString("save"); save != "" {
			if err := search.WriteQueryFile(save, cfg, papers); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved query file: %s\n", save)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		asCSL, _ := cmd.Flags().GetBool("csl")
		switch {
		case asJSON:
			return search.FormatJSON(papers, os.Stdout)
		case asCSL:
			return search.FormatCSL(papers, os.Stdout)
		default:
			search.PrintSummary(papers, nil, os.Stdout)
			return nil
		}
	},
}

func init() {
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML")
	searchCmd.Flags().String("save", "", "save queries and results to a YAML query file")
	searchCmd.Flags().String("load", "", "load results from a saved query file instead of searching")

	rootCmd.AddCommand(searchCmd)
}
