// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paperfeed/pkg/types"
)

// Normalized holds the provider-specific forms of one logical query.
type Normalized struct {
	// Semantic is the Semantic Scholar query string.
	Semantic string

	// Arxiv is the arXiv search_query expression.
	Arxiv string

	// Tags are the keyword tags attached to every paper this query finds.
	Tags []string

	// Label is the human-readable display form used in log lines.
	Label string
}

// Normalize converts a SearchQuery into provider query strings, keyword tags,
// and a display label. A single term searches directly; a conjunction ANDs
// the terms: quoted phrases for Semantic Scholar, per-term title-or-abstract
// clauses for arXiv. Blank terms are dropped, and a query with no terms left
// yields all-empty output, which the backends skip. Pure function, no I/O.
func Normalize(q types.SearchQuery) Normalized {
	terms := make([]string, 0, len(q))
	for _, t := range q {
		if t != "" {
			terms = append(terms, t)
		}
	}

	switch len(terms) {
	case 0:
		return Normalized{}
	case 1:
		kw := terms[0]
		return Normalized{
			Semantic: kw,
			Arxiv:    fmt.Sprintf(`(ti:%q OR abs:%q)`, kw, kw),
			Tags:     []string{kw},
			Label:    kw,
		}
	}

	quoted := make([]string, len(terms))
	clauses := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
		clauses[i] = fmt.Sprintf(`(ti:%q OR abs:%q)`, t, t)
	}
	return Normalized{
		Semantic: strings.Join(quoted, " "),
		Arxiv:    strings.Join(clauses, " AND "),
		Tags:     terms,
		Label:    strings.Join(terms, " + "),
	}
}
