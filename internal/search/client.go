package search

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rahul/stacksmith/internal/governance"
	"github.com/rahul/stacksmith/internal/observability"
	"go.uber.org/zap"
)

const defaultMaxResults = 5

// DefaultAspects are appended to each framework name by SearchTechStack.
var DefaultAspects = []string{"pros cons", "best practices", "comparison"}

// Client wraps a Provider with best-effort semantics: provider failures are
// logged and turn into empty results.
type Client struct {
	provider   Provider
	policy     governance.PolicyEngine
	enricher   *Enricher
	enrichTop  int
	logger     *observability.Logger
	sanitizer  *bluemonday.Policy
	delay      time.Duration
	maxResults int
	sleep      func(context.Context, time.Duration) error
}

type Option func(*Client)

// WithDelay pauses between consecutive queries of SearchMany.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithPolicy screens every query before it is sent.
func WithPolicy(p governance.PolicyEngine) Option {
	return func(c *Client) { c.policy = p }
}

// WithEnricher makes Enrich fill short snippets of the first top results.
func WithEnricher(e *Enricher, top int) Option {
	return func(c *Client) {
		c.enricher = e
		c.enrichTop = top
	}
}

func WithLogger(l *observability.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxResults sets the per-query default used when a caller passes 0.
func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

func NewClient(provider Provider, opts ...Option) *Client {
	c := &Client{
		provider:   provider,
		logger:     observability.NewNop(),
		sanitizer:  bluemonday.StrictPolicy(),
		delay:      time.Second,
		maxResults: defaultMaxResults,
		sleep:      sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one query. It never fails: a denied query or a provider error
// yields no results.
func (c *Client) Search(ctx context.Context, keyword string, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	if c.policy != nil {
		d, err := c.policy.Evaluate(ctx, governance.Request{Query: keyword, RunID: observability.RunID(ctx)})
		if err != nil || !d.Allowed() {
			reason := d.Reason
			if err != nil {
				reason = err.Error()
			}
			c.logger.Zap().Warn("search query blocked",
				zap.String("query", keyword),
				zap.String("reason", reason))
			return nil
		}
	}

	results, err := c.provider.Query(ctx, keyword, maxResults)
	if err != nil {
		c.logger.LogSearch(ctx, keyword, 0, err)
		return nil
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{
			Title:   c.clean(r.Title),
			Snippet: c.clean(r.Snippet),
			URL:     strings.TrimSpace(r.URL),
		})
	}
	c.logger.LogSearch(ctx, keyword, len(out), nil)
	return out
}

// SearchMany runs the keywords in order and concatenates their results,
// pausing between calls. A cancelled context stops the loop with what has
// been collected so far.
func (c *Client) SearchMany(ctx context.Context, keywords []string, maxResults int) []Result {
	var all []Result
	for i, kw := range keywords {
		if ctx.Err() != nil {
			break
		}
		all = append(all, c.Search(ctx, kw, maxResults)...)

		if i < len(keywords)-1 && c.delay > 0 {
			if err := c.sleep(ctx, c.delay); err != nil {
				break
			}
		}
	}
	return all
}

// SearchTechStack researches each framework under several aspects and groups
// the results by framework.
func (c *Client) SearchTechStack(ctx context.Context, frameworks, aspects []string) map[string][]Result {
	if len(aspects) == 0 {
		aspects = DefaultAspects
	}
	out := make(map[string][]Result, len(frameworks))
	for _, fw := range frameworks {
		queries := make([]string, 0, len(aspects))
		for _, a := range aspects {
			queries = append(queries, fw+" "+a)
		}
		out[fw] = c.SearchMany(ctx, queries, 3)
	}
	return out
}

// Enrich fills short snippets of the leading results from the pages
// themselves. Without an enricher it returns results unchanged.
func (c *Client) Enrich(ctx context.Context, results []Result) []Result {
	if c.enricher == nil || c.enrichTop <= 0 {
		return results
	}
	return c.enricher.Enrich(ctx, results, c.enrichTop)
}

func (c *Client) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
