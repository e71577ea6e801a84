// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperfeed pipeline.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperfeed/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchQuery is one logical search: a single term, or an ordered
// AND-conjunction of terms that must all match.
type SearchQuery []string

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Queries lists the logical searches to run against each backend.
	Queries []SearchQuery `json:"queries" yaml:"queries"`

	// LookbackDays bounds results to the trailing time window (default 7).
	LookbackDays int `json:"lookback_days" yaml:"lookback_days"`

	// MaxResultsPerQuery caps the results requested per query (default 20).
	MaxResultsPerQuery int `json:"max_results_per_query" yaml:"max_results_per_query"`

	// Venues is an optional allow-list matched case-insensitively as a
	// substring of the venue (or arXiv categories). Empty means no filter.
	Venues []string `json:"venues,omitempty" yaml:"venues,omitempty"`

	// FieldsOfStudy is passed through to the Semantic Scholar API.
	FieldsOfStudy []string `json:"fields_of_study,omitempty" yaml:"fields_of_study,omitempty"`

	// ArxivCategories restricts arXiv queries to these categories (e.g. "cs.RO").
	ArxivCategories []string `json:"arxiv_categories,omitempty" yaml:"arxiv_categories,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	// Without one, the backend paces itself for the anonymous shared pool.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// LLMConfig holds settings for the local Ollama enrichment stage.
type LLMConfig struct {
	// Model is the Ollama model identifier (default "qwen2.5:7b").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the Ollama server address (default "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout is the per-request timeout (default 180s; local generation is slow).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Temperature is the sampling temperature (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of corrective retries when the model drifts
	// out of Korean (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// NotionConfig holds settings for the Notion publishing stage.
type NotionConfig struct {
	// Enabled controls whether results are published to Notion.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Token is the Notion integration token.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// DatabaseID is the target database.
	DatabaseID string `json:"database_id,omitempty" yaml:"database_id,omitempty"`
}

// OutputConfig holds settings for the console and snapshot outputs.
type OutputConfig struct {
	// Console enables the human-readable summary on stdout (default true).
	Console bool `json:"console" yaml:"console"`

	// JSONFile enables the timestamped JSON snapshot (default true).
	JSONFile bool `json:"json_file" yaml:"json_file"`

	// JSONDir is the snapshot directory (default "results").
	JSONDir string `json:"json_dir" yaml:"json_dir"`
}

// Config groups all stage configurations for one run.
type Config struct {
	Search SearchConfig `json:"search" yaml:"search"`
	LLM    LLMConfig    `json:"llm" yaml:"llm"`
	Notion NotionConfig `json:"notion" yaml:"notion"`
	Output OutputConfig `json:"output" yaml:"output"`
}
