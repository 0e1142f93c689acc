package search

import (
	"net/url"
	"strings"
)

// OfficialDomains are hosts whose results are moved to the front by
// PrioritizeOfficial. Subdomains match too.
var OfficialDomains = []string{
	"github.com",
	"npmjs.com",
	"reactjs.org",
	"vuejs.org",
	"angular.io",
	"svelte.dev",
	"nextjs.org",
	"dev.to",
	"medium.com",
	"stackoverflow.com",
	"developer.mozilla.org",
}

// Filter keeps results whose title plus snippet contains at least one include
// keyword (when any are given) and none of the exclude keywords. Matching is
// a case-insensitive substring test.
func Filter(results []Result, include, exclude []string) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		text := strings.ToLower(r.Title + " " + r.Snippet)
		if len(include) > 0 && !containsAny(text, include) {
			continue
		}
		if containsAny(text, exclude) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// PrioritizeOfficial returns a copy of results with official-source hits
// first. Relative order within each partition is kept.
func PrioritizeOfficial(results []Result) []Result {
	out := make([]Result, 0, len(results))
	var rest []Result
	for _, r := range results {
		if IsOfficial(r.URL) {
			out = append(out, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(out, rest...)
}

// IsOfficial reports whether rawURL's host is an official domain or one of
// its subdomains.
func IsOfficial(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range OfficialDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
