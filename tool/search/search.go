// Package search provides the web search capability used by the research
// oriented agents (grant hunting, market sensing). A Provider performs the
// actual lookup; NewTool exposes it to models as the "web_search" tool.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/sherpa/logging"
	"github.com/hupe1980/sherpa/tool"
)

// ToolName is the name under which the search tool is declared to models.
const ToolName = "web_search"

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Provider defines the interface for web search backends.
type Provider interface {
	// Name returns a human-readable name for the provider.
	Name() string
	// Search performs a web search and returns at most maxResults results.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// ToolOptions configures the search tool.
type ToolOptions struct {
	MaxResults int
	Logger     logging.Logger
}

// Args is the argument structure of the search tool.
type Args struct {
	Query string `json:"query" description:"Search query string (e.g. 'K-Startup 2025 예비창업패키지 공고')"`
}

// NewTool wraps a provider as the web_search tool.
func NewTool(provider Provider, optFns ...func(o *ToolOptions)) *tool.FunctionTool {
	opts := ToolOptions{
		MaxResults: 3,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	desc := "Search the web for current information such as government grant notices, " +
		"startup support programs, competitors, market news and industry trends. " +
		"Returns titles, URLs and content snippets."

	return tool.NewFunctionToolFromStruct(ToolName, desc, Args{}, func(ctx context.Context, args map[string]any) (any, error) {
		query, _ := args["query"].(string)
		query = strings.TrimSpace(query)

		if query == "" {
			return nil, tool.NewToolError(ToolName, "query is required and must be a non-empty string", tool.CodeValidation)
		}

		results, err := provider.Search(ctx, query, opts.MaxResults)
		if err != nil {
			return nil, fmt.Errorf("%s search failed: %w", provider.Name(), err)
		}

		return results, nil
	}).WithLogger(opts.Logger)
}
