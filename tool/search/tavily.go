package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTavilyURL is the Tavily search endpoint.
const DefaultTavilyURL = "https://api.tavily.com/search"

// TavilyOptions configures the Tavily provider.
type TavilyOptions struct {
	APIKey      string
	BaseURL     string
	SearchDepth string // "basic" or "advanced"
	HTTPClient  *http.Client
}

// TavilyProvider implements Provider using the Tavily search API.
type TavilyProvider struct {
	httpClient *http.Client
	opts       TavilyOptions
}

// NewTavilyProvider creates a new Tavily provider.
func NewTavilyProvider(apiKey string, optFns ...func(o *TavilyOptions)) *TavilyProvider {
	opts := TavilyOptions{
		APIKey:      apiKey,
		BaseURL:     DefaultTavilyURL,
		SearchDepth: "basic",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &TavilyProvider{httpClient: client, opts: opts}
}

// Name returns the provider name.
func (p *TavilyProvider) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth,omitempty"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
	Detail  any            `json:"detail,omitempty"`
}

// Search performs a web search using the Tavily API.
func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if p.opts.APIKey == "" {
		return nil, fmt.Errorf("tavily api key is not configured")
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:      p.opts.APIKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: p.opts.SearchDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.opts.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tavilyResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]Result, 0, len(tr.Results))
	for i := range tr.Results {
		item := &tr.Results[i]
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.URL,
			Content: item.Content,
			Score:   item.Score,
		})
	}

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	return results, nil
}

var _ Provider = (*TavilyProvider)(nil)
