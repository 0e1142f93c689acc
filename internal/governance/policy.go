// Package governance decides which outbound search queries may leave the
// process. Form answers can carry internal details (package.json contents,
// product names) that should not be sent to a public search engine.
package governance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxQueryRunes bounds a keyword; anything longer is almost always a
// pasted form answer rather than a search phrase.
const DefaultMaxQueryRunes = 120

type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request is one outbound query. RunID is carried for audit logging only.
type Request struct {
	Query string
	RunID string
}

type Decision struct {
	Effect Effect
	Reason string
}

func (d Decision) Allowed() bool { return d.Effect == EffectAllow }

// PolicyEngine screens search queries.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Decision, error)
}

// QueryPolicy denies empty or oversized queries, queries containing a denied
// term and queries matching a denied pattern. Matching ignores case.
type QueryPolicy struct {
	MaxRunes int
	terms    []string
	patterns []*regexp.Regexp
}

func NewQueryPolicy() *QueryPolicy {
	return &QueryPolicy{MaxRunes: DefaultMaxQueryRunes}
}

func (p *QueryPolicy) DenyTerm(term string) {
	if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
		p.terms = append(p.terms, term)
	}
}

func (p *QueryPolicy) DenyPattern(pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid deny pattern %q: %w", pattern, err)
	}
	p.patterns = append(p.patterns, re)
	return nil
}

func (p *QueryPolicy) Evaluate(ctx context.Context, req Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	query := strings.TrimSpace(req.Query)
	switch {
	case query == "":
		return deny("empty query"), nil
	case p.MaxRunes > 0 && utf8.RuneCountInString(query) > p.MaxRunes:
		return deny(fmt.Sprintf("query longer than %d characters", p.MaxRunes)), nil
	}

	lower := strings.ToLower(query)
	for _, term := range p.terms {
		if strings.Contains(lower, term) {
			return deny(fmt.Sprintf("query contains restricted term %q", term)), nil
		}
	}
	for _, re := range p.patterns {
		if re.MatchString(query) {
			return deny("query matches restricted pattern " + re.String()), nil
		}
	}
	return Decision{Effect: EffectAllow}, nil
}

func deny(reason string) Decision {
	return Decision{Effect: EffectDeny, Reason: reason}
}
