// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"

	"github.com/pdiddy/paperfeed/pkg/types"
)

// MergeUnique deduplicates papers by identity key. The first occurrence of
// a key is canonical and keeps its position relative to other first
// occurrences; later duplicates contribute only their keyword tags, which
// are unioned onto the canonical record in arrival order. The merged set is
// then sorted newest first by date string, with undated papers last. The
// sort is stable so ties keep arrival order. The input slice is not
// modified.
func MergeUnique(papers []types.Paper) []types.Paper {
	seen := make(map[string]int, len(papers))
	merged := make([]types.Paper, 0, len(papers))

	for _, p := range papers {
		key := p.UniqueKey()
		if idx, ok := seen[key]; ok {
			canon := &merged[idx]
			for _, kw := range p.Keywords {
				canon.Keywords = appendUnique(canon.Keywords, kw)
			}
			continue
		}
		seen[key] = len(merged)
		merged = append(merged, p)
	}

	// ISO date strings compare correctly as plain strings; the empty string
	// loses to every real date, which puts undated papers last.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date > merged[j].Date
	})
	return merged
}

// appendUnique appends s to list unless it is already present.
func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
