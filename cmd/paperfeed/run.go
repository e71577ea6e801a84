// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfeed/internal/llm"
	"github.com/pdiddy/paperfeed/internal/notion"
	"github.com/pdiddy/paperfeed/internal/search"
	"github.com/pdiddy/paperfeed/internal/snapshot"
	"github.com/pdiddy/paperfeed/pkg/types"
)

// runPipeline executes the full search, enrich, report, publish sequence.
func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := searchConfig()
	if len(cfg.Queries) == 0 {
		return fmt.Errorf("no keywords configured; add a keywords list to the config file")
	}

	client := &http.Client{Timeout: cfg.Timeout}

	fmt.Fprintln(os.Stderr, "Step 1: searching papers...")
	backends := search.DefaultBackends(client, cfg.SemanticScholarAPIKey)
	papers, err := search.Search(ctx, backends, cfg, os.Stderr)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Println("No papers found for the configured keywords and date range.")
		return nil
	}

	noLLM, _ := cmd.Flags().GetBool("no-llm")
	enrichments := map[string]types.Enrichment{}
	if noLLM {
		fmt.Fprintln(os.Stderr, "Step 2: skipped (--no-llm)")
	} else {
		fmt.Fprintln(os.Stderr, "Step 2: LLM translation and novelty extraction...")
		allowCPU := os.Getenv("PAPERFEED_ALLOW_CPU") == "1"
		enrichments, err = llm.NewClient(llmConfig()).Process(ctx, papers, allowCPU, os.Stderr)
		if err != nil {
			return err
		}
	}

	out := outputConfig()
	if out.Console {
		search.PrintSummary(papers, enrichments, os.Stdout)
	}
	if out.JSONFile {
		path, err := snapshot.Write(out.JSONDir, papers, enrichments)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved snapshot: %s\n", path)
	}

	noNotion, _ := cmd.Flags().GetBool("no-notion")
	notionCfg := notionConfig()
	if !notionCfg.Enabled || noNotion {
		fmt.Fprintln(os.Stderr, "Step 3: Notion publishing disabled")
		return nil
	}

	fmt.Fprintln(os.Stderr, "Step 3: publishing to Notion...")
	publisher, err := notion.NewPublisher(ctx, client, notionCfg, os.Stderr)
	if err != nil {
		// Misconfigured Notion should not discard the search results.
		fmt.Fprintf(os.Stderr, "Notion setup error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Skipping Notion. Set NOTION_TOKEN and NOTION_DATABASE_ID in .env or .secrets/.")
		return nil
	}
	count, err := publisher.PublishAll(ctx, papers, enrichments, os.Stderr)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Published %d papers to Notion.\n", count)
	return nil
}
