// Package jsonextract recovers a single JSON object from free-form LLM output
// that may wrap it in prose or markdown code fences.
package jsonextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	fence      = "```"
	jsonFence  = "```json"
	excerptLen = 200
)

// ErrNoJSONFound is matched by every *NoJSONFoundError.
var ErrNoJSONFound = errors.New("no JSON object found")

// NoJSONFoundError is returned when none of the strategies produced an object.
// It keeps enough of the input for the caller to log what the model sent.
type NoJSONFoundError struct {
	Length int
	Head   string
	Tail   string
}

func (e *NoJSONFoundError) Error() string {
	return fmt.Sprintf("no JSON object found in response (length %d): head=%q tail=%q", e.Length, e.Head, e.Tail)
}

func (e *NoJSONFoundError) Is(target error) bool {
	return target == ErrNoJSONFound
}

// Extract returns the JSON object embedded in text. Strategies are tried in
// order and the first success wins:
//
//  1. the interior of the first ```json fence
//  2. the interior of the first ``` fence
//  3. brace-matched candidates, longest first, skipping empty objects
//  4. the whole trimmed text
func Extract(text string) (map[string]any, error) {
	if body, ok := fencedBody(text, jsonFence); ok {
		if obj, ok := parseObject(body); ok {
			return obj, nil
		}
	}

	if body, ok := fencedBody(text, fence); ok {
		if obj, ok := parseObject(stripLanguageTag(body)); ok {
			return obj, nil
		}
	}

	// Longest-first is a heuristic: it prefers the outermost object when the
	// text holds several, but it is not guaranteed to pick the intended one.
	candidates := Candidates(text)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	for _, c := range candidates {
		if obj, ok := parseObject(c); ok && len(obj) > 0 {
			return obj, nil
		}
	}

	if obj, ok := parseObject(strings.TrimSpace(text)); ok {
		return obj, nil
	}

	return nil, newNoJSONFound(text)
}

// Candidates scans text left to right and returns every top-level {...}
// substring in order of appearance. Braces inside string literals do not
// count. An unbalanced trailing fragment produces no candidate.
func Candidates(text string) []string {
	var (
		results  []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			if depth == 0 {
				start = i
			}
			depth++
		case c == '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				results = append(results, text[start:i+1])
				start = -1
			}
		}
	}
	return results
}

func fencedBody(text, marker string) (string, bool) {
	open := strings.Index(text, marker)
	if open < 0 {
		return "", false
	}
	begin := open + len(marker)
	end := strings.Index(text[begin:], fence)
	if end <= 0 {
		return "", false
	}
	return strings.TrimSpace(text[begin : begin+end]), true
}

// stripLanguageTag drops a leading info string such as "JSON" or "js" left
// over from a fence that was not tagged with lowercase json.
func stripLanguageTag(body string) string {
	if body == "" || body[0] == '{' || body[0] == '[' {
		return body
	}
	first, rest, ok := strings.Cut(body, "\n")
	if !ok || strings.ContainsAny(first, " \t{") {
		return body
	}
	return strings.TrimSpace(rest)
}

func parseObject(s string) (map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func newNoJSONFound(text string) *NoJSONFoundError {
	runes := []rune(text)
	head, tail := runes, runes
	if len(runes) > excerptLen {
		head = runes[:excerptLen]
		tail = runes[len(runes)-excerptLen:]
	}
	return &NoJSONFoundError{
		Length: len(text),
		Head:   string(head),
		Tail:   string(tail),
	}
}
