// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paperfeed/internal/httputil"
	"github.com/pdiddy/paperfeed/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
	pagePacing = time.Millisecond
}

func swapAPIBase(t *testing.T, url string) {
	t.Helper()
	old := apiBase
	apiBase = url
	t.Cleanup(func() { apiBase = old })
}

func testNotionCfg() types.NotionConfig {
	return types.NotionConfig{Enabled: true, Token: "ntn_test", DatabaseID: "db-1"}
}

// --- Publisher construction ---

func TestNewPublisherResolvesDataSource(t *testing.T) {
	var capturedReq *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		fmt.Fprint(w, `{"data_sources":[{"id":"ds-1"},{"id":"ds-2"}]}`)
	}))
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	p, err := NewPublisher(context.Background(), ts.Client(), testNotionCfg(), io.Discard)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	if p.dataSourceID != "ds-1" {
		t.Errorf("dataSourceID = %q, want first data source", p.dataSourceID)
	}
	if capturedReq.URL.Path != "/databases/db-1" {
		t.Errorf("path = %q", capturedReq.URL.Path)
	}
	if got := capturedReq.Header.Get("Authorization"); got != "Bearer ntn_test" {
		t.Errorf("Authorization = %q", got)
	}
	if got := capturedReq.Header.Get("Notion-Version"); got != notionVersion {
		t.Errorf("Notion-Version = %q", got)
	}
}

func TestNewPublisherMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.NotionConfig
	}{
		{"no token", types.NotionConfig{DatabaseID: "db-1"}},
		{"no database", types.NotionConfig{Token: "ntn"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPublisher(context.Background(), http.DefaultClient, tt.cfg, io.Discard)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// --- Publishing ---

// notionStub routes the database retrieve, query, and page create endpoints.
type notionStub struct {
	queryResults string // JSON for the query results array
	pages        []map[string]any
	queryFilters []map[string]any
}

func (s *notionStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/databases/") && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"data_sources":[{"id":"ds-1"}]}`)
		case strings.HasSuffix(r.URL.Path, "/query"):
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if f, ok := body["filter"].(map[string]any); ok {
				s.queryFilters = append(s.queryFilters, f)
			}
			fmt.Fprintf(w, `{"results":[%s]}`, s.queryResults)
		case r.URL.Path == "/pages":
			var page map[string]any
			json.NewDecoder(r.Body).Decode(&page)
			s.pages = append(s.pages, page)
			fmt.Fprint(w, `{"id":"page-1"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestPublishPaperCreatesPage(t *testing.T) {
	stub := &notionStub{}
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	p, err := NewPublisher(context.Background(), ts.Client(), testNotionCfg(), io.Discard)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	paper := types.Paper{
		Title:        "Dense Visual SLAM",
		Authors:      []string{"Alice Kim", "Bob Lee"},
		Affiliations: []string{"KAIST"},
		Abstract:     "English abstract.",
		Venue:        "arxiv",
		Date:         "2024-06-01",
		URL:          "https://arxiv.org/abs/2406.01234",
		ArxivID:      "2406.01234",
		Keywords:     []string{"slam", "robotics"},
	}
	enrichment := types.Enrichment{AbstractKo: "번역", NoveltyKo: "요약"}

	created, err := p.PublishPaper(context.Background(), paper, enrichment, io.Discard)
	if err != nil {
		t.Fatalf("PublishPaper: %v", err)
	}
	if !created {
		t.Fatal("created = false, want true")
	}
	if len(stub.pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(stub.pages))
	}

	page := stub.pages[0]
	parent := page["parent"].(map[string]any)
	if parent["data_source_id"] != "ds-1" {
		t.Errorf("parent = %v", parent)
	}

	props := page["properties"].(map[string]any)
	for _, key := range []string{"Title", "Authors", "Venue", "Date", "URL", "ArXiv ID", "Abstract (KO)", "Novelty", "Keywords", "Searched"} {
		if _, ok := props[key]; !ok {
			t.Errorf("properties missing %q", key)
		}
	}

	authors := props["Authors"].(map[string]any)["rich_text"].([]any)
	content := authors[0].(map[string]any)["text"].(map[string]any)["content"]
	if content != "Alice Kim et al. (KAIST)" {
		t.Errorf("Authors = %v", content)
	}

	// Body carries both abstracts as heading + paragraph pairs.
	children := page["children"].([]any)
	if len(children) != 4 {
		t.Errorf("children = %d, want 4", len(children))
	}

	// Existence check filtered on the arXiv ID.
	if len(stub.queryFilters) != 1 {
		t.Fatalf("queryFilters = %d", len(stub.queryFilters))
	}
	if stub.queryFilters[0]["property"] != "ArXiv ID" {
		t.Errorf("filter = %v", stub.queryFilters[0])
	}
}

func TestPublishPaperSkipsExisting(t *testing.T) {
	stub := &notionStub{queryResults: `{"id":"existing-page"}`}
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	p, err := NewPublisher(context.Background(), ts.Client(), testNotionCfg(), io.Discard)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	var log strings.Builder
	created, err := p.PublishPaper(context.Background(), types.Paper{Title: "T", ArxivID: "2406.00001"}, types.Enrichment{}, &log)
	if err != nil {
		t.Fatalf("PublishPaper: %v", err)
	}
	if created {
		t.Error("created = true for existing paper")
	}
	if len(stub.pages) != 0 {
		t.Errorf("pages = %d, want 0", len(stub.pages))
	}
	if !strings.Contains(log.String(), "already exists") {
		t.Errorf("log = %q", log.String())
	}
}

func TestPublishPaperTitleFilterWithoutArxivID(t *testing.T) {
	stub := &notionStub{}
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	p, err := NewPublisher(context.Background(), ts.Client(), testNotionCfg(), io.Discard)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	_, err = p.PublishPaper(context.Background(), types.Paper{Title: "No ArXiv"}, types.Enrichment{}, io.Discard)
	if err != nil {
		t.Fatalf("PublishPaper: %v", err)
	}
	if stub.queryFilters[0]["property"] != "Title" {
		t.Errorf("filter = %v, want Title match", stub.queryFilters[0])
	}
}

func TestPublishAllCountsAndContinues(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/databases/"):
			fmt.Fprint(w, `{"data_sources":[{"id":"ds-1"}]}`)
		case strings.HasSuffix(r.URL.Path, "/query"):
			fmt.Fprint(w, `{"results":[]}`)
		case r.URL.Path == "/pages":
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"message":"validation error"}`)
				return
			}
			fmt.Fprint(w, `{"id":"page"}`)
		}
	}))
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	p, err := NewPublisher(context.Background(), ts.Client(), testNotionCfg(), io.Discard)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	papers := []types.Paper{{Title: "Fails"}, {Title: "Works"}}
	var log strings.Builder
	count, err := p.PublishAll(context.Background(), papers, nil, &log)
	if err != nil {
		t.Fatalf("PublishAll: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if !strings.Contains(log.String(), "failed to publish") {
		t.Errorf("log = %q", log.String())
	}
}

// --- Rich text chunking ---

func TestRichTextChunking(t *testing.T) {
	long := strings.Repeat("한", 4500)
	chunks := richText(long)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	first := chunks[0].(map[string]any)["text"].(map[string]any)["content"].(string)
	if len([]rune(first)) != maxRichTextLen {
		t.Errorf("first chunk runes = %d, want %d", len([]rune(first)), maxRichTextLen)
	}
	last := chunks[2].(map[string]any)["text"].(map[string]any)["content"].(string)
	if len([]rune(last)) != 500 {
		t.Errorf("last chunk runes = %d, want 500", len([]rune(last)))
	}
}

func TestRichTextEmpty(t *testing.T) {
	chunks := richText("")
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1 empty element", len(chunks))
	}
}

// --- Database creation ---

func TestCreateDatabase(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/databases" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, `{"id":"new-db","url":"https://notion.so/new-db"}`)
	}))
	defer ts.Close()
	swapAPIBase(t, ts.URL)

	id, err := CreateDatabase(context.Background(), ts.Client(), "ntn_test", "parent-page")
	if err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if id != "new-db" {
		t.Errorf("id = %q", id)
	}

	parent := captured["parent"].(map[string]any)
	if parent["page_id"] != "parent-page" {
		t.Errorf("parent = %v", parent)
	}

	props := captured["initial_data_source"].(map[string]any)["properties"].(map[string]any)
	for _, key := range []string{"Title", "Authors", "Venue", "Date", "URL", "ArXiv ID", "Abstract (KO)", "Novelty", "Keywords", "Searched"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema missing %q", key)
		}
	}
	options := props["Venue"].(map[string]any)["select"].(map[string]any)["options"].([]any)
	if len(options) != 11 {
		t.Errorf("venue options = %d, want 11", len(options))
	}
}
