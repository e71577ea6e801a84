// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperfeed/internal/httputil"
	"github.com/pdiddy/paperfeed/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors.name,authors.affiliations,venue,year,publicationDate,externalIds,url,openAccessPdf"

// semanticAnonDelay is the pause between query terms when no API key is
// configured; anonymous clients share a pool the API rate-limits hard.
var semanticAnonDelay = 1100 * time.Millisecond

// SemanticBackend queries the Semantic Scholar graph API.
type SemanticBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticBackend) Name() string { return "semantic_scholar" }

// Search runs every configured query against the paper search endpoint, one
// term at a time. Rate-limited terms are retried with backoff; terms that
// still fail are logged to w and skipped. Only context cancellation aborts
// the whole call.
func (b *SemanticBackend) Search(ctx context.Context, cfg types.SearchConfig, w io.Writer) ([]types.Paper, error) {
	start, end := dateRange(cfg.LookbackDays)
	dateFilter := start + ":" + end

	pause := semanticAnonDelay
	if b.APIKey != "" {
		pause = 0 // keyed clients get a per-key rate limit
	}
	pacer := rate.NewLimiter(rate.Every(pause), 1)

	var papers []types.Paper
	for _, q := range cfg.Queries {
		n := Normalize(q)
		if n.Semantic == "" {
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return papers, err
		}
		fmt.Fprintf(w, "[s2] searching %q (%s ~ %s)\n", n.Label, start, end)

		params := url.Values{
			"query":                 {n.Semantic},
			"limit":                 {strconv.Itoa(maxResults(cfg))},
			"fields":                {semanticFields},
			"publicationDateOrYear": {dateFilter},
		}
		if len(cfg.FieldsOfStudy) > 0 {
			params.Set("fieldsOfStudy", strings.Join(cfg.FieldsOfStudy, ","))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return papers, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)
		if b.APIKey != "" {
			req.Header.Set("X-API-KEY", b.APIKey)
		}

		resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
		if err != nil {
			if ctx.Err() != nil {
				return papers, ctx.Err()
			}
			fmt.Fprintf(w, "[s2] request failed for %q: %v\n", n.Label, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			fmt.Fprintf(w, "[s2] skipping %q: HTTP %d after retries\n", n.Label, resp.StatusCode)
			continue
		}

		var sr semanticResponse
		err = json.NewDecoder(resp.Body).Decode(&sr)
		resp.Body.Close()
		if err != nil {
			fmt.Fprintf(w, "[s2] parsing response for %q: %v\n", n.Label, err)
			continue
		}
		fmt.Fprintf(w, "[s2] found %d results for %q\n", sr.Total, n.Label)

		for _, item := range sr.Data {
			if item.Title == "" || item.Abstract == "" {
				continue
			}
			if !venueAllowed(item.Venue, cfg.Venues) {
				continue
			}

			names, affs := collectAuthors(item.Authors)

			arxivID := item.ExternalIDs.ArXiv
			paperURL := item.URL
			if arxivID != "" && paperURL == "" {
				paperURL = arxivAbsURL(arxivID)
			}

			date := item.PublicationDate
			if date == "" && item.Year > 0 {
				date = strconv.Itoa(item.Year)
			}

			papers = append(papers, types.Paper{
				Title:        item.Title,
				Authors:      names,
				Affiliations: affs,
				Abstract:     item.Abstract,
				Venue:        item.Venue,
				Date:         date,
				URL:          paperURL,
				ArxivID:      arxivID,
				Source:       b.Name(),
				Keywords:     append([]string(nil), n.Tags...),
			})
		}
	}
	return papers, nil
}

// venueAllowed reports whether venue passes the allow-list. An empty
// allow-list always passes, and so does an absent venue: absence of a venue
// never excludes a record. Matching is a case-insensitive substring check.
func venueAllowed(venue string, allow []string) bool {
	if len(allow) == 0 || venue == "" {
		return true
	}
	v := strings.ToLower(venue)
	for _, a := range allow {
		if strings.Contains(v, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// collectAuthors extracts author display names in order and a deduplicated,
// insertion-ordered list of their affiliations.
func collectAuthors(authors []semanticAuthor) (names, affiliations []string) {
	for _, a := range authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
		for _, aff := range a.Affiliations {
			if aff != "" {
				affiliations = appendUnique(affiliations, aff)
			}
		}
	}
	return names, affiliations
}

const dateFmt = "2006-01-02"

// dateRange returns the trailing lookback window [now-days, now] as API date strings.
func dateRange(days int) (start, end string) {
	if days <= 0 {
		days = 7
	}
	now := time.Now()
	return now.AddDate(0, 0, -days).Format(dateFmt), now.Format(dateFmt)
}

// maxResults returns the per-query result cap, defaulting to 20.
func maxResults(cfg types.SearchConfig) int {
	if cfg.MaxResultsPerQuery > 0 {
		return cfg.MaxResultsPerQuery
	}
	return 20
}

// arxivAbsURL synthesizes the canonical abstract page URL for an arXiv ID.
func arxivAbsURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://arxiv.org/abs/" + id
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Venue           string              `json:"venue"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	URL             string              `json:"url"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations"`
}

type semanticExternalIDs struct {
	ArXiv string `json:"ArXiv"`
	DOI   string `json:"DOI"`
}
