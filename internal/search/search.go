// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search finds recent papers across literature providers and merges
// the results into a single deduplicated, date-ordered list.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paperfeed/pkg/types"
)

// Backend is a literature provider that can run the configured queries.
type Backend interface {
	// Name returns a short identifier used in logs and result provenance.
	Name() string

	// Search runs every configured query and returns the raw (unmerged)
	// papers. Progress and per-query warnings go to w.
	Search(ctx context.Context, cfg types.SearchConfig, w io.Writer) ([]types.Paper, error)
}

// DefaultBackends returns the standard provider set: Semantic Scholar first,
// then arXiv. The order is fixed so merge ties resolve the same way across
// runs.
func DefaultBackends(client *http.Client, semanticAPIKey string) []Backend {
	return []Backend{
		&SemanticBackend{Client: client, APIKey: semanticAPIKey},
		&ArxivBackend{Client: client},
	}
}

// Search runs all backends in order, collects their results, and merges
// them. A backend failure is logged and the remaining backends still run;
// only context cancellation aborts the pipeline. An empty backend list is
// an error.
func Search(ctx context.Context, backends []Backend, cfg types.SearchConfig, w io.Writer) ([]types.Paper, error) {
	if len(backends) == 0 {
		return nil, errors.New("no search backends configured")
	}

	var all []types.Paper
	counts := make([]string, 0, len(backends))
	for _, b := range backends {
		papers, err := b.Search(ctx, cfg, w)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", b.Name(), err)
		}
		counts = append(counts, fmt.Sprintf("%s: %d", b.Name(), len(papers)))
		all = append(all, papers...)
	}

	merged := MergeUnique(all)
	fmt.Fprintf(w, "[search] total unique papers: %d (%s)\n", len(merged), strings.Join(counts, ", "))
	return merged, nil
}
