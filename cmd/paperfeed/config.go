// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paperfeed/internal/secrets"
	"github.com/pdiddy/paperfeed/pkg/types"
)

// searchConfig assembles the search stage configuration from the config
// file, secrets, and environment.
func searchConfig() types.SearchConfig {
	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "paperfeed/" + version,
		},
		Queries:            parseQueries(viper.Get("keywords")),
		LookbackDays:       viper.GetInt("date_range_days"),
		MaxResultsPerQuery: viper.GetInt("max_results_per_keyword"),
		Venues:             viper.GetStringSlice("venues"),
		FieldsOfStudy:      viper.GetStringSlice("fields_of_study"),
		ArxivCategories:    viper.GetStringSlice("arxiv_categories"),
	}
	cfg.SemanticScholarAPIKey = secrets.Resolve(
		viper.GetString("s2_api_key"), loadedSecrets, "semantic-scholar-api-key", "S2_API_KEY")
	return cfg
}

// parseQueries converts the keywords config value into search queries. Each
// entry is either a plain string (single-term query) or a list of strings
// (a conjunction). Anything else is ignored with a warning.
func parseQueries(raw any) []types.SearchQuery {
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}

	var queries []types.SearchQuery
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			queries = append(queries, types.SearchQuery{v})
		case []any:
			var q types.SearchQuery
			for _, t := range v {
				if s, ok := t.(string); ok {
					q = append(q, s)
				}
			}
			if len(q) > 0 {
				queries = append(queries, q)
			}
		default:
			fmt.Fprintf(os.Stderr, "warning: ignoring keywords entry of type %T\n", entry)
		}
	}
	return queries
}

// llmConfig assembles the LLM stage configuration. OLLAMA_BASE_URL in the
// environment overrides the config file so a remote server can be swapped
// in per run.
func llmConfig() types.LLMConfig {
	cfg := types.LLMConfig{
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Timeout:     viper.GetDuration("llm.timeout"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
	}
	if env := os.Getenv("OLLAMA_BASE_URL"); env != "" {
		cfg.BaseURL = env
	}
	return cfg
}

// notionConfig assembles the Notion stage configuration, resolving the
// token and database ID from config, secrets, and environment.
func notionConfig() types.NotionConfig {
	return types.NotionConfig{
		Enabled: viper.GetBool("notion.enabled"),
		Token: secrets.Resolve(
			viper.GetString("notion.token"), loadedSecrets, "notion-token", "NOTION_TOKEN"),
		DatabaseID: secrets.Resolve(
			viper.GetString("notion.database_id"), loadedSecrets, "notion-database-id", "NOTION_DATABASE_ID"),
	}
}

// outputConfig assembles the output stage configuration. Console and JSON
// snapshots default to on.
func outputConfig() types.OutputConfig {
	cfg := types.OutputConfig{
		Console:  true,
		JSONFile: true,
		JSONDir:  "results",
	}
	if viper.IsSet("output.console") {
		cfg.Console = viper.GetBool("output.console")
	}
	if viper.IsSet("output.json_file") {
		cfg.JSONFile = viper.GetBool("output.json_file")
	}
	if dir := viper.GetString("output.json_dir"); dir != "" {
		cfg.JSONDir = dir
	}
	return cfg
}
