// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Paper is the unified record for one publication discovered by a search run.
// Both backends normalize into this shape; the merge engine and the later
// stages (LLM enrichment, snapshot, Notion) all operate on it.
type Paper struct {
	// Title is the paper title. Records without one are dropped at the
	// backend boundary, so it is never empty here.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Affiliations is a deduplicated, insertion-ordered list of author
	// affiliations. Often empty: neither source reports them reliably.
	Affiliations []string `json:"affiliations" yaml:"affiliations"`

	// Abstract is the abstract text. Never empty (backend filter).
	Abstract string `json:"abstract" yaml:"abstract"`

	// Venue is a free-text venue label; arXiv results carry the literal
	// "arxiv" since the feed has no venue of its own.
	Venue string `json:"venue" yaml:"venue"`

	// Date is an ISO-style date prefix ("2024-06-01", or a bare year when
	// that is all the source reports). Used only for sorting and filtering;
	// may be empty.
	Date string `json:"date" yaml:"date"`

	// URL is the canonical link, synthesized from the arXiv ID when the
	// source supplies none. May be empty.
	URL string `json:"url" yaml:"url"`

	// ArxivID is the arXiv identifier without version suffix, if known.
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Source identifies the backend that found this record
	// ("semantic_scholar" or "arxiv").
	Source string `json:"source" yaml:"source"`

	// Keywords lists the query tags that matched this paper. Duplicates are
	// suppressed; the merge engine unions tags across duplicate records.
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// UniqueKey returns the deterministic identity key used for cross-source
// deduplication: the arXiv ID namespaced by kind when present, otherwise the
// lowercased, whitespace-trimmed title. The same paper discovered by both
// backends yields the same key regardless of discovery order.
func (p Paper) UniqueKey() string {
	if p.ArxivID != "" {
		return "arxiv:" + p.ArxivID
	}
	return "title:" + strings.ToLower(strings.TrimSpace(p.Title))
}

// Enrichment holds the LLM-generated Korean abstract translation and novelty
// summary for one paper, keyed by Paper.UniqueKey. Kept separate from Paper
// so the search pipeline stays free of mutable enrichment state.
type Enrichment struct {
	AbstractKo string `json:"abstract_ko" yaml:"abstract_ko"`
	NoveltyKo  string `json:"novelty_ko" yaml:"novelty_ko"`
}
