// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot writes timestamped JSON result files so each run leaves
// an auditable record on disk.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/paperfeed/pkg/types"
)

// Record is one paper with its enrichment, flattened into a single JSON
// object by the embedded structs.
type Record struct {
	types.Paper
	types.Enrichment
}

// Write saves the papers and their enrichments to a timestamped JSON file
// under dir, creating dir if needed. Returns the path written.
func Write(dir string, papers []types.Paper, enrichments map[string]types.Enrichment) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	records := make([]Record, len(papers))
	for i, p := range papers {
		records[i] = Record{
			Paper:      p,
			Enrichment: enrichments[p.UniqueKey()],
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}

	path := filepath.Join(dir, time.Now().Format("papers_20060102_150405.json"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}
