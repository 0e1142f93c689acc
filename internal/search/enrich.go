package search

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	minSnippetRunes   = 80
	maxEnrichedRunes  = 300
	maxPageBodyLength = 2 << 20
)

// Enricher fetches result pages and extracts their readable summary.
type Enricher struct {
	client    *http.Client
	userAgent string
	sanitizer *bluemonday.Policy
}

// NewEnricher builds an Enricher. A nil client gets a 15 second timeout.
func NewEnricher(client *http.Client, userAgent string) *Enricher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Enricher{
		client:    client,
		userAgent: userAgent,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Enrich returns a copy of results where each of the first top results with a
// short snippet gets the page excerpt instead. Pages that fail to load keep
// their original snippet.
func (e *Enricher) Enrich(ctx context.Context, results []Result, top int) []Result {
	out := make([]Result, len(results))
	copy(out, results)

	for i := 0; i < len(out) && i < top; i++ {
		if ctx.Err() != nil {
			break
		}
		if utf8.RuneCountInString(out[i].Snippet) >= minSnippetRunes || out[i].URL == "" {
			continue
		}
		title, summary, err := e.Fetch(ctx, out[i].URL)
		if err != nil || summary == "" {
			continue
		}
		r := out[i]
		r.Snippet = summary
		if r.Title == "" {
			r.Title = title
		}
		out[i] = r
	}
	return out
}

// Fetch downloads rawURL and returns the article title and a short plain-text
// summary (the excerpt, or the start of the body text).
func (e *Enricher) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBodyLength), parsedURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse article: %v", err)
	}

	summary := article.Excerpt
	if strings.TrimSpace(summary) == "" {
		summary = article.TextContent
	}
	summary = strings.Join(strings.Fields(html.UnescapeString(e.sanitizer.Sanitize(summary))), " ")
	return strings.TrimSpace(article.Title), truncateRunes(summary, maxEnrichedRunes), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
