// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperfeed/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivDelay is the pause between query terms; arXiv asks unauthenticated
// clients to keep roughly this pace.
var arxivDelay = 500 * time.Millisecond

// ArxivBackend queries the arXiv Atom feed API.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search runs every configured query against the feed endpoint, one term at
// a time, newest first. Transport failures and malformed feeds abort only
// the current term; only context cancellation aborts the whole call. No 429
// retry here: arXiv signals overload by dropping connections, not by status
// code.
func (b *ArxivBackend) Search(ctx context.Context, cfg types.SearchConfig, w io.Writer) ([]types.Paper, error) {
	catFilter := ""
	if len(cfg.ArxivCategories) > 0 {
		parts := make([]string, len(cfg.ArxivCategories))
		for i, c := range cfg.ArxivCategories {
			parts[i] = "cat:" + c
		}
		catFilter = " AND (" + strings.Join(parts, " OR ") + ")"
	}

	pacer := rate.NewLimiter(rate.Every(arxivDelay), 1)
	cutoff := time.Now().AddDate(0, 0, -lookbackDays(cfg))

	var papers []types.Paper
	for _, q := range cfg.Queries {
		n := Normalize(q)
		if n.Arxiv == "" {
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return papers, err
		}
		fmt.Fprintf(w, "[arxiv] searching %q\n", n.Label)

		params := url.Values{
			"search_query": {n.Arxiv + catFilter},
			"sortBy":       {"submittedDate"},
			"sortOrder":    {"descending"},
			"max_results":  {strconv.Itoa(maxResults(cfg))},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return papers, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := b.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return papers, ctx.Err()
			}
			fmt.Fprintf(w, "[arxiv] request failed for %q: %v\n", n.Label, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			fmt.Fprintf(w, "[arxiv] skipping %q: HTTP %d\n", n.Label, resp.StatusCode)
			continue
		}

		var feed arxivFeed
		err = xml.NewDecoder(resp.Body).Decode(&feed)
		resp.Body.Close()
		if err != nil {
			fmt.Fprintf(w, "[arxiv] parsing feed for %q: %v\n", n.Label, err)
			continue
		}

		for _, entry := range feed.Entries {
			if entry.Published != "" {
				if pub, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil && pub.Before(cutoff) {
					continue
				}
			}

			title := collapseSpace(entry.Title)
			abstract := collapseSpace(entry.Summary)
			if title == "" || abstract == "" {
				continue
			}
			if !categoryAllowed(entry, cfg.Venues) {
				continue
			}

			var names, affs []string
			for _, a := range entry.Authors {
				if name := strings.TrimSpace(a.Name); name != "" {
					names = append(names, name)
				}
				if aff := strings.TrimSpace(a.Affiliation); aff != "" {
					affs = appendUnique(affs, aff)
				}
			}

			arxivID := extractArxivID(entry.ID)

			link := ""
			for _, l := range entry.Links {
				if l.Type == "text/html" || l.Rel == "alternate" {
					link = l.Href
					break
				}
			}
			if link == "" {
				link = arxivAbsURL(arxivID)
			}

			date := ""
			if len(entry.Published) >= 10 {
				date = entry.Published[:10]
			}

			papers = append(papers, types.Paper{
				Title:        title,
				Authors:      names,
				Affiliations: affs,
				Abstract:     abstract,
				Venue:        "arxiv",
				Date:         date,
				URL:          link,
				ArxivID:      arxivID,
				Source:       b.Name(),
				Keywords:     append([]string(nil), n.Tags...),
			})
		}
	}
	return papers, nil
}

// categoryAllowed matches the venue allow-list against the entry's primary
// and general categories. A literal "arxiv" in the allow-list accepts every
// entry, since feed results carry no venue of their own.
func categoryAllowed(entry arxivEntry, allow []string) bool {
	if len(allow) == 0 {
		return true
	}

	var cats []string
	if entry.PrimaryCategory.Term != "" {
		cats = append(cats, entry.PrimaryCategory.Term)
	}
	for _, c := range entry.Categories {
		cats = append(cats, c.Term)
	}
	catStr := strings.ToLower(strings.Join(cats, " "))

	for _, a := range allow {
		la := strings.ToLower(a)
		if la == "arxiv" || strings.Contains(catStr, la) {
			return true
		}
	}
	return false
}

// collapseSpace trims the string and folds embedded newlines and runs of
// whitespace into single spaces. arXiv wraps long titles and abstracts
// across lines.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lookbackDays returns the configured lookback window, defaulting to 7 days.
func lookbackDays(cfg types.SearchConfig) int {
	if cfg.LookbackDays > 0 {
		return cfg.LookbackDays
	}
	return 7
}

// arXiv Atom feed XML structures. The affiliation and primary_category
// elements live in the arXiv extension namespace.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Authors         []arxivAuthor   `xml:"author"`
	Links           []arxivLink     `xml:"link"`
	Categories      []arxivCategory `xml:"category"`
	PrimaryCategory arxivCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
}

type arxivAuthor struct {
	Name        string `xml:"name"`
	Affiliation string `xml:"http://arxiv.org/schemas/atom affiliation"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041") and strips the
// version suffix so the key matches the unversioned ID Semantic Scholar
// reports for the same paper.
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
