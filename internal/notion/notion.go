// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notion publishes papers to a Notion database through the REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperfeed/internal/httputil"
	"github.com/pdiddy/paperfeed/pkg/types"
)

// apiBase is the Notion REST endpoint. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.notion.com/v1"

const notionVersion = "2025-09-03"

// maxRichTextLen is Notion's per-rich-text-element content limit.
const maxRichTextLen = 2000

// pagePacing keeps page creation under Notion's ~3 req/s integration limit.
var pagePacing = 350 * time.Millisecond

// Publisher writes papers as pages into one Notion database.
type Publisher struct {
	client       *http.Client
	token        string
	databaseID   string
	dataSourceID string
}

// NewPublisher validates the credentials and resolves the database's data
// source ID, which the current API version requires for queries and page
// parents.
func NewPublisher(ctx context.Context, client *http.Client, cfg types.NotionConfig, w io.Writer) (*Publisher, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion database ID is required")
	}

	p := &Publisher{
		client:     client,
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
	}

	var db struct {
		DataSources []struct {
			ID string `json:"id"`
		} `json:"data_sources"`
	}
	if err := p.do(ctx, http.MethodGet, "/databases/"+cfg.DatabaseID, nil, &db); err != nil {
		return nil, fmt.Errorf("retrieving database: %w", err)
	}
	if len(db.DataSources) == 0 {
		return nil, fmt.Errorf("database %s has no data sources", cfg.DatabaseID)
	}
	p.dataSourceID = db.DataSources[0].ID
	fmt.Fprintf(w, "[notion] data source: %s\n", p.dataSourceID)
	return p, nil
}

// do sends one API request, retrying on 429, and decodes the JSON response
// into out when out is non-nil.
func (p *Publisher) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Notion-Version", notionVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httputil.DoWithRetry(ctx, p.client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notion %s %s: HTTP %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Exists reports whether the paper already has a page, matched on the
// "ArXiv ID" property when the paper has one and on "Title" otherwise.
func (p *Publisher) Exists(ctx context.Context, paper types.Paper) (bool, error) {
	var filter map[string]any
	if paper.ArxivID != "" {
		filter = map[string]any{
			"property":  "ArXiv ID",
			"rich_text": map[string]any{"equals": paper.ArxivID},
		}
	} else {
		filter = map[string]any{
			"property": "Title",
			"title":    map[string]any{"equals": paper.Title},
		}
	}

	var result struct {
		Results []json.RawMessage `json:"results"`
	}
	err := p.do(ctx, http.MethodPost, "/data_sources/"+p.dataSourceID+"/query",
		map[string]any{"filter": filter}, &result)
	if err != nil {
		return false, err
	}
	return len(result.Results) > 0, nil
}

// PublishPaper creates a page for the paper unless one already exists.
// Returns true when a page was created. A failed existence check is logged
// and publication proceeds; the duplicate risk beats dropping the paper.
func (p *Publisher) PublishPaper(ctx context.Context, paper types.Paper, e types.Enrichment, w io.Writer) (bool, error) {
	exists, err := p.Exists(ctx, paper)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		fmt.Fprintf(w, "[notion] existence check failed: %v\n", err)
	} else if exists {
		fmt.Fprintf(w, "[notion] already exists: %s\n", truncate(paper.Title, 50))
		return false, nil
	}

	authorsLine := formatAuthorsLine(paper)
	venue := paper.Venue
	if venue == "" {
		venue = "Unknown"
	}

	properties := map[string]any{
		"Title":         map[string]any{"title": []any{textChunk(truncate(paper.Title, 200))}},
		"Authors":       map[string]any{"rich_text": richText(authorsLine)},
		"Venue":         map[string]any{"select": map[string]any{"name": venue}},
		"ArXiv ID":      map[string]any{"rich_text": richText(paper.ArxivID)},
		"Abstract (KO)": map[string]any{"rich_text": richText(e.AbstractKo)},
		"Novelty":       map[string]any{"rich_text": richText(e.NoveltyKo)},
		"Keywords":      map[string]any{"multi_select": multiSelect(paper.Keywords)},
		"Searched":      map[string]any{"date": map[string]any{"start": time.Now().Format("2006-01-02")}},
	}
	if paper.Date != "" {
		start := paper.Date
		if len(start) > 10 {
			start = start[:10]
		}
		properties["Date"] = map[string]any{"date": map[string]any{"start": start}}
	}
	if paper.URL != "" {
		properties["URL"] = map[string]any{"url": paper.URL}
	}

	var children []any
	if e.AbstractKo != "" {
		children = append(children,
			heading3("Abstract (KO)"),
			paragraph(e.AbstractKo),
		)
	}
	if paper.Abstract != "" {
		children = append(children,
			heading3("Abstract (EN)"),
			paragraph(paper.Abstract),
		)
	}

	page := map[string]any{
		"parent":     map[string]any{"data_source_id": p.dataSourceID},
		"properties": properties,
	}
	if len(children) > 0 {
		page["children"] = children
	}

	if err := p.do(ctx, http.MethodPost, "/pages", page, nil); err != nil {
		return false, err
	}
	fmt.Fprintf(w, "[notion] published: %s\n", truncate(paper.Title, 50))
	return true, nil
}

// PublishAll publishes every paper in order, pacing page creation. Per-paper
// failures are logged and skipped; only context cancellation aborts. Returns
// the number of pages created.
func (p *Publisher) PublishAll(ctx context.Context, papers []types.Paper, enrichments map[string]types.Enrichment, w io.Writer) (int, error) {
	pacer := rate.NewLimiter(rate.Every(pagePacing), 1)

	published := 0
	for i, paper := range papers {
		if err := pacer.Wait(ctx); err != nil {
			return published, err
		}
		fmt.Fprintf(w, "[notion] publishing %d/%d\n", i+1, len(papers))

		created, err := p.PublishPaper(ctx, paper, enrichments[paper.UniqueKey()], w)
		if err != nil {
			if ctx.Err() != nil {
				return published, ctx.Err()
			}
			fmt.Fprintf(w, "[notion] failed to publish %q: %v\n", truncate(paper.Title, 50), err)
			continue
		}
		if created {
			published++
		}
	}
	return published, nil
}

// CreateDatabase creates a "Paper Tracker" database with the property schema
// the publisher expects, under the given parent page. Returns the new
// database ID.
func CreateDatabase(ctx context.Context, client *http.Client, token, parentPageID string) (string, error) {
	venueOptions := []any{
		map[string]any{"name": "ArXiv", "color": "gray"},
		map[string]any{"name": "CVPR", "color": "blue"},
		map[string]any{"name": "ICCV", "color": "green"},
		map[string]any{"name": "ECCV", "color": "orange"},
		map[string]any{"name": "NeurIPS", "color": "purple"},
		map[string]any{"name": "ICML", "color": "red"},
		map[string]any{"name": "ICLR", "color": "yellow"},
		map[string]any{"name": "AAAI", "color": "pink"},
		map[string]any{"name": "CoRL", "color": "brown"},
		map[string]any{"name": "IROS", "color": "default"},
		map[string]any{"name": "ICRA", "color": "default"},
	}

	body := map[string]any{
		"parent": map[string]any{"type": "page_id", "page_id": parentPageID},
		"title":  []any{map[string]any{"type": "text", "text": map[string]any{"content": "Paper Tracker"}}},
		"icon":   map[string]any{"type": "emoji", "emoji": "📄"},
		"initial_data_source": map[string]any{
			"properties": map[string]any{
				"Title":         map[string]any{"title": map[string]any{}},
				"Authors":       map[string]any{"rich_text": map[string]any{}},
				"Venue":         map[string]any{"select": map[string]any{"options": venueOptions}},
				"Date":          map[string]any{"date": map[string]any{}},
				"URL":           map[string]any{"url": map[string]any{}},
				"ArXiv ID":      map[string]any{"rich_text": map[string]any{}},
				"Abstract (KO)": map[string]any{"rich_text": map[string]any{}},
				"Novelty":       map[string]any{"rich_text": map[string]any{}},
				"Keywords":      map[string]any{"multi_select": map[string]any{}},
				"Searched":      map[string]any{"date": map[string]any{}},
			},
		},
	}

	p := &Publisher{client: client, token: token}
	var db struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := p.do(ctx, http.MethodPost, "/databases", body, &db); err != nil {
		return "", err
	}
	return db.ID, nil
}

// formatAuthorsLine renders the byline stored in the Authors property.
func formatAuthorsLine(paper types.Paper) string {
	first := "Unknown"
	if len(paper.Authors) > 0 {
		first = paper.Authors[0]
	}
	line := first
	if len(paper.Authors) > 1 {
		line += " et al."
	}
	if len(paper.Affiliations) > 0 {
		line += " (" + paper.Affiliations[0] + ")"
	}
	return line
}

// richText splits text into rich-text elements of at most maxRichTextLen
// runes each. Empty text yields one empty element, which the API accepts.
func richText(text string) []any {
	runes := []rune(text)
	if len(runes) == 0 {
		return []any{textChunk("")}
	}
	var chunks []any
	for len(runes) > 0 {
		n := maxRichTextLen
		if len(runes) < n {
			n = len(runes)
		}
		chunks = append(chunks, textChunk(string(runes[:n])))
		runes = runes[n:]
	}
	return chunks
}

func textChunk(s string) map[string]any {
	return map[string]any{"text": map[string]any{"content": s}}
}

func multiSelect(names []string) []any {
	opts := make([]any, len(names))
	for i, n := range names {
		opts[i] = map[string]any{"name": n}
	}
	return opts
}

func heading3(text string) map[string]any {
	return map[string]any{
		"object":    "block",
		"type":      "heading_3",
		"heading_3": map[string]any{"rich_text": []any{textChunk(text)}},
	}
}

func paragraph(text string) map[string]any {
	return map[string]any{
		"object":    "block",
		"type":      "paragraph",
		"paragraph": map[string]any{"rich_text": richText(text)},
	}
}

// truncate caps s at limit runes, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
