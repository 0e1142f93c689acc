// Package search queries a web search provider for technology research and
// post-processes the results.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// Result is one search hit. Results are never modified after creation;
// helpers return new slices.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Provider executes a single query against a search backend.
type Provider interface {
	Query(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// UpstreamError wraps a provider transport or API failure.
type UpstreamError struct {
	Provider string
	Query    string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s search failed for %q: %v", e.Provider, e.Query, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// caller is the part of the langchaingo tool we use.
type caller interface {
	Call(ctx context.Context, input string) (string, error)
}

// DuckDuckGo searches through langchaingo's DuckDuckGo tool.
type DuckDuckGo struct {
	client caller
}

func NewDuckDuckGo(maxResults int, userAgent string) (*DuckDuckGo, error) {
	if userAgent == "" {
		userAgent = duckduckgo.DefaultUserAgent
	}
	ddg, err := duckduckgo.New(maxResults, userAgent)
	if err != nil {
		return nil, err
	}
	return &DuckDuckGo{client: ddg}, nil
}

func (d *DuckDuckGo) Query(ctx context.Context, query string, maxResults int) ([]Result, error) {
	res, err := d.client.Call(ctx, query)
	if err != nil {
		return nil, &UpstreamError{Provider: "duckduckgo", Query: query, Err: err}
	}
	results := ParseDuckDuckGo(res)
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// ParseDuckDuckGo converts the tool's text report, blocks of
//
//	Title: ...
//	Description: ...
//	URL: ...
//
// into results. Text outside a block, such as the "no good results" notice,
// is ignored.
func ParseDuckDuckGo(text string) []Result {
	var (
		results []Result
		cur     *Result
	)
	flush := func() {
		if cur != nil && (cur.Title != "" || cur.URL != "") {
			results = append(results, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Title:"):
			flush()
			cur = &Result{Title: strings.TrimSpace(strings.TrimPrefix(line, "Title:"))}
		case cur == nil:
		case strings.HasPrefix(line, "Description:"):
			cur.Snippet = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		case strings.HasPrefix(line, "URL:"):
			cur.URL = strings.TrimSpace(strings.TrimPrefix(line, "URL:"))
		}
	}
	flush()
	return results
}
