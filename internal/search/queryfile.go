// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfeed/pkg/types"
)

// QueryFile is the on-disk representation of a search run and its results.
// The researcher can save a run to a file and reload it later without
// re-querying APIs.
type QueryFile struct {
	Queries []types.SearchQuery `yaml:"queries"`
	Config  QueryFileConfig     `yaml:"config"`
	Results []types.Paper       `yaml:"results"`
	Summary QuerySummary        `yaml:"summary"`
}

// QueryFileConfig stores the search configuration that produced the results.
type QueryFileConfig struct {
	LookbackDays       int      `yaml:"lookback_days"`
	MaxResultsPerQuery int      `yaml:"max_results_per_query"`
	Venues             []string `yaml:"venues,omitempty"`
	FieldsOfStudy      []string `yaml:"fields_of_study,omitempty"`
	ArxivCategories    []string `yaml:"arxiv_categories,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the queries, the configuration that ran them, and the
// merged results to a YAML file.
func WriteQueryFile(path string, cfg types.SearchConfig, papers []types.Paper) error {
	qf := QueryFile{
		Queries: cfg.Queries,
		Config: QueryFileConfig{
			LookbackDays:       cfg.LookbackDays,
			MaxResultsPerQuery: cfg.MaxResultsPerQuery,
			Venues:             cfg.Venues,
			FieldsOfStudy:      cfg.FieldsOfStudy,
			ArxivCategories:    cfg.ArxivCategories,
		},
		Results: papers,
		Summary: QuerySummary{
			Total:     len(papers),
			Timestamp: time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
