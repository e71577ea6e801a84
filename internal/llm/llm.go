// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm enriches papers through a local Ollama model: Korean
// translation of the abstract and a short Korean novelty summary. Responses
// are guarded against Chinese-character drift with a corrective retry and a
// final strip pass.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/paperfeed/pkg/types"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultModel       = "qwen2.5:7b"
	defaultTimeout     = 180 * time.Second
	defaultTemperature = 0.3
	defaultMaxRetries  = 2

	// maxAbstractRunes caps the abstract text fed into a prompt.
	maxAbstractRunes = 3000
)

// Client talks to an Ollama server.
type Client struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxRetries  int
	HTTPClient  *http.Client
}

// NewClient builds a Client from config, filling in defaults for anything
// unset.
func NewClient(cfg types.LLMConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: temperature,
		MaxRetries:  maxRetries,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

// Ollama chat API structures.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	Options   chatOptions   `json:"options"`
	KeepAlive *int          `json:"keep_alive,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// chat posts one request to /api/chat and returns the trimmed reply text.
func (c *Client) chat(ctx context.Context, req chatRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama chat: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	return strings.TrimSpace(cr.Message.Content), nil
}

// generate runs a prompt through the model with the Korean-only guard. A
// response containing Chinese characters triggers a retry with a corrective
// suffix; if Chinese survives every retry the offending characters are
// stripped from the final response.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	userPrompt := prompt
	for attempt := 0; ; attempt++ {
		text, err := c.chat(ctx, chatRequest{
			Model: c.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemMsg},
				{Role: "user", Content: userPrompt},
			},
			Options: chatOptions{Temperature: c.Temperature},
		})
		if err != nil {
			return "", err
		}

		if !hasCJK(text) {
			return text, nil
		}
		if attempt >= c.MaxRetries {
			return stripCJKLines(text), nil
		}
		userPrompt = prompt + correctiveSuffix
	}
}

// TranslateAbstract returns a Korean translation of the abstract.
func (c *Client) TranslateAbstract(ctx context.Context, abstract string) (string, error) {
	return c.render(ctx, translateTmpl, map[string]string{
		"Abstract": truncateAbstract(abstract),
	})
}

// SummarizeNovelty returns a short Korean summary of what is new in the paper.
func (c *Client) SummarizeNovelty(ctx context.Context, title, abstract string) (string, error) {
	return c.render(ctx, noveltyTmpl, map[string]string{
		"Title":    title,
		"Abstract": truncateAbstract(abstract),
	})
}

func (c *Client) render(ctx context.Context, tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return c.generate(ctx, buf.String())
}

// truncateAbstract caps the abstract at maxAbstractRunes so a pathological
// record cannot blow up the prompt.
func truncateAbstract(abstract string) string {
	runes := []rune(abstract)
	if len(runes) <= maxAbstractRunes {
		return abstract
	}
	return string(runes[:maxAbstractRunes]) + "..."
}

// isCJK reports whether r falls in the CJK unified ideograph ranges. Hangul
// is outside these ranges, so Korean text passes untouched.
func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0xF900 && r <= 0xFAFF)
}

// hasCJK reports whether s contains any CJK ideograph.
func hasCJK(s string) bool {
	return strings.ContainsFunc(s, isCJK)
}

// stripCJKLines removes Chinese from text that failed the retry guard. Lines
// that are mostly Chinese (over 30% of non-space characters) are dropped
// whole; other lines just lose the offending characters. Runs of blank lines
// left behind are collapsed.
func stripCJKLines(text string) string {
	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		total := len([]rune(strings.TrimSpace(line)))
		cjk := 0
		for _, r := range line {
			if isCJK(r) {
				cjk++
			}
		}
		if total > 0 && float64(cjk)/float64(total) > 0.3 {
			continue
		}
		cleaned = append(cleaned, strings.Map(func(r rune) rune {
			if isCJK(r) {
				return -1
			}
			return r
		}, line))
	}

	result := strings.TrimSpace(strings.Join(cleaned, "\n"))
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return result
}

// Ollama process-status API structures.
type psResponse struct {
	Models []psModel `json:"models"`
}

type psModel struct {
	Name     string `json:"name"`
	Model    string `json:"model"`
	Size     int64  `json:"size"`
	SizeVRAM int64  `json:"size_vram"`
}

// Preflight verifies the model is resident on the GPU before processing
// starts. CPU inference at this model size is slow enough to look like a
// hang, so a model that is mostly outside VRAM is an error unless allowCPU
// is set. The model is pinged once to load it if nothing is resident yet.
func (c *Client) Preflight(ctx context.Context, allowCPU bool, w io.Writer) error {
	target, err := c.findLoadedModel(ctx)
	if err == nil && target == nil {
		// Not loaded yet; a minimal chat forces a load.
		_, pingErr := c.chat(ctx, chatRequest{
			Model:    c.Model,
			Messages: []chatMessage{{Role: "user", Content: "ping"}},
			Options:  chatOptions{Temperature: 0, NumPredict: 1},
		})
		if pingErr != nil {
			return fmt.Errorf("loading model %q: %w", c.Model, pingErr)
		}
		target, err = c.findLoadedModel(ctx)
	}
	if err != nil || target == nil {
		fmt.Fprintf(w, "[llm] could not verify GPU state for %q\n", c.Model)
		return nil
	}
	if target.Size <= 0 {
		return nil
	}

	ratio := float64(target.SizeVRAM) / float64(target.Size)
	if ratio >= 0.95 {
		fmt.Fprintf(w, "[llm] %s running on GPU (VRAM: %.0f%%)\n", c.Model, ratio*100)
		return nil
	}

	if allowCPU {
		fmt.Fprintf(w, "[llm] warning: %s is running on CPU (VRAM: %.0f%%), continuing\n", c.Model, ratio*100)
		return nil
	}
	return fmt.Errorf("model %s is running on CPU (VRAM: %.0f%%); stop other Ollama workloads or set PAPERFEED_ALLOW_CPU=1", c.Model, ratio*100)
}

// findLoadedModel queries /api/ps for a resident model matching c.Model.
func (c *Client) findLoadedModel(ctx context.Context) (*psModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/ps", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("ollama ps: HTTP %d", resp.StatusCode)
	}

	var ps psResponse
	if err := json.NewDecoder(resp.Body).Decode(&ps); err != nil {
		return nil, err
	}
	for i, m := range ps.Models {
		if strings.Contains(m.Model, c.Model) || strings.Contains(m.Name, c.Model) {
			return &ps.Models[i], nil
		}
	}
	return nil, nil
}

// Unload asks Ollama to evict the model and free its VRAM.
func (c *Client) Unload(ctx context.Context, w io.Writer) {
	zero := 0
	_, err := c.chat(ctx, chatRequest{
		Model:     c.Model,
		Messages:  []chatMessage{{Role: "user", Content: ""}},
		Options:   chatOptions{NumPredict: 1},
		KeepAlive: &zero,
	})
	if err != nil {
		fmt.Fprintf(w, "[llm] failed to unload model: %v\n", err)
		return
	}
	fmt.Fprintf(w, "[llm] model %q unloaded from VRAM\n", c.Model)
}

// Process enriches every paper in order and returns the enrichments keyed by
// paper identity key. Per-paper failures are logged and the paper is left
// without an enrichment; only context cancellation aborts the run. The model
// is unloaded before returning.
func (c *Client) Process(ctx context.Context, papers []types.Paper, allowCPU bool, w io.Writer) (map[string]types.Enrichment, error) {
	if err := c.Preflight(ctx, allowCPU, w); err != nil {
		return nil, err
	}
	defer c.Unload(ctx, w)

	enrichments := make(map[string]types.Enrichment, len(papers))
	for i, p := range papers {
		fmt.Fprintf(w, "[llm] processing %d/%d: %s\n", i+1, len(papers), preview(p.Title, 60))

		abstractKo, err := c.TranslateAbstract(ctx, p.Abstract)
		if err != nil {
			if ctx.Err() != nil {
				return enrichments, ctx.Err()
			}
			fmt.Fprintf(w, "[llm] translation failed: %v\n", err)
			continue
		}
		noveltyKo, err := c.SummarizeNovelty(ctx, p.Title, p.Abstract)
		if err != nil {
			if ctx.Err() != nil {
				return enrichments, ctx.Err()
			}
			fmt.Fprintf(w, "[llm] novelty summary failed: %v\n", err)
		}

		if abstractKo == "" {
			fmt.Fprintf(w, "[llm] translation empty for %q\n", preview(p.Title, 60))
			continue
		}
		enrichments[p.UniqueKey()] = types.Enrichment{
			AbstractKo: abstractKo,
			NoveltyKo:  noveltyKo,
		}
	}
	return enrichments, nil
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
