package tool

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// NoResults is returned by the search tool when the backend finds nothing.
const NoResults = "No results found."

// DefaultSearchResults is the number of results the search tool requests.
const DefaultSearchResults = 5

// SearchResult is a single web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchProvider is a web search backend.
type SearchProvider interface {
	// Name returns the provider identifier (e.g., "duckduckgo", "searxng").
	Name() string

	// Search executes a query and returns at most limit results.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// FormatSearchResults renders results as Title/Link/Snippet blocks separated
// by a blank line. An empty result set renders as NoResults.
func FormatSearchResults(results []SearchResult) string {
	if len(results) == 0 {
		return NoResults
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = "Title: " + r.Title + "\nLink: " + r.URL + "\nSnippet: " + r.Snippet
	}
	return strings.Join(blocks, "\n\n")
}

// SearchArgs are the arguments of the web search tool.
type SearchArgs struct {
	Query string `json:"query" desc:"Search query" required:"true"`
}

// SearchToolOption configures the search tool.
type SearchToolOption func(*searchToolConfig)

type searchToolConfig struct {
	name       string
	maxResults int
}

// WithSearchToolName overrides the tool name advertised to the model.
func WithSearchToolName(name string) SearchToolOption {
	return func(c *searchToolConfig) {
		c.name = name
	}
}

// WithMaxResults limits the number of search results.
// Default is 5; values below 1 select the default.
func WithMaxResults(n int) SearchToolOption {
	return func(c *searchToolConfig) {
		c.maxResults = n
	}
}

// NewSearchTool creates the web search tool backed by provider.
func NewSearchTool(provider SearchProvider, opts ...SearchToolOption) Registration {
	cfg := &searchToolConfig{
		name:       "search_duckduckgo",
		maxResults: DefaultSearchResults,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxResults < 1 {
		cfg.maxResults = DefaultSearchResults
	}

	return Func(cfg.name, "Search the web.", func(ctx context.Context, args SearchArgs) (string, error) {
		query := strings.TrimSpace(args.Query)
		if query == "" {
			return "", errors.New("query must not be empty")
		}
		results, err := provider.Search(ctx, query, cfg.maxResults)
		if err != nil {
			return "", err
		}
		if len(results) > cfg.maxResults {
			results = results[:cfg.maxResults]
		}
		return FormatSearchResults(results), nil
	})
}

// SearchTools returns the search tool as a registration slice.
func SearchTools(provider SearchProvider, opts ...SearchToolOption) []Registration {
	return []Registration{NewSearchTool(provider, opts...)}
}

// DefaultRegistry returns a registry holding multiply, add and the web search
// tool backed by provider.
func DefaultRegistry(provider SearchProvider) *Registry {
	return NewRegistry().
		Add(MathTools()...).
		Add(SearchTools(provider)...)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}
