// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paperfeed/pkg/types"
)

// PrintSummary writes a human-readable report of the merged papers to w.
// Enrichments are keyed by paper identity key; papers without one fall back
// to the English abstract.
func PrintSummary(papers []types.Paper, enrichments map[string]types.Enrichment, w io.Writer) {
	banner := strings.Repeat("=", 80)
	fmt.Fprintf(w, "%s\nFound %d papers\n%s\n", banner, len(papers), banner)

	for i, p := range papers {
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, p.Title)
		if line := formatAuthors(p); line != "" {
			fmt.Fprintf(w, "    Author: %s\n", line)
		}
		fmt.Fprintf(w, "    Venue: %s | Date: %s\n", orDash(p.Venue), orDash(p.Date))
		if p.URL != "" {
			fmt.Fprintf(w, "    URL: %s\n", p.URL)
		}

		e := enrichments[p.UniqueKey()]
		if e.NoveltyKo != "" {
			fmt.Fprintf(w, "    Novelty: %s\n", e.NoveltyKo)
		}
		if e.AbstractKo != "" {
			fmt.Fprintf(w, "    Abstract(KO): %s\n", preview(e.AbstractKo, 200))
		} else if p.Abstract != "" {
			fmt.Fprintf(w, "    Abstract(EN): %s\n", preview(p.Abstract, 200))
		}
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the papers as an indented JSON array to w.
func FormatJSON(papers []types.Paper, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

// formatAuthors renders the byline: first author, "et al." when there are
// more, and the first affiliation in parentheses when one is known.
func formatAuthors(p types.Paper) string {
	if len(p.Authors) == 0 {
		return ""
	}
	line := p.Authors[0]
	if len(p.Authors) > 1 {
		line += " et al."
	}
	if len(p.Affiliations) > 0 {
		line += " (" + p.Affiliations[0] + ")"
	}
	return line
}

// preview truncates s to at most n runes, appending an ellipsis when cut.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
