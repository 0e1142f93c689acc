package forms

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidChoice is returned when a select field receives a value outside
// its choice set.
var ErrInvalidChoice = errors.New("invalid choice")

// Values holds normalized answers keyed by field id. Select, text and
// textarea fields hold strings; number fields hold ints.
type Values map[string]any

// Normalize validates raw answers against the schema. Empty answers take the
// field default; number fields that do not parse also fall back to the
// default. Keys unknown to the schema are dropped.
func (s *Schema) Normalize(raw map[string]any) (Values, error) {
	out := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		v, err := normalizeField(f, raw[f.ID])
		if err != nil {
			return nil, err
		}
		out[f.ID] = v
	}
	return out, nil
}

func normalizeField(f Field, raw any) (any, error) {
	switch f.Kind {
	case KindNumber:
		return normalizeNumber(f, raw), nil
	case KindSelect:
		s := strings.TrimSpace(toString(raw))
		if s == "" {
			if d := toString(f.Default); d != "" {
				return d, nil
			}
			if len(f.Choices) > 0 {
				return f.Choices[0], nil
			}
			return "", nil
		}
		for _, c := range f.Choices {
			if c == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%s: %q is not one of [%s]: %w", f.ID, s, strings.Join(f.Choices, ", "), ErrInvalidChoice)
	default:
		s := strings.TrimSpace(toString(raw))
		if s == "" {
			return toString(f.Default), nil
		}
		return s, nil
	}
}

func normalizeNumber(f Field, raw any) int {
	fallback := 1
	if d, ok := asInt(f.Default); ok {
		fallback = d
	}
	if n, ok := asInt(raw); ok {
		return n
	}
	return fallback
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// Clone returns a shallow copy; values are immutable scalars.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	return maps.Clone(v)
}

func (v Values) String(id string) string {
	return toString(v[id])
}

func (v Values) Int(id string) int {
	n, _ := asInt(v[id])
	return n
}

// ProjectInfo is the prompt-facing view of the answers.
type ProjectInfo struct {
	ProjectType    string
	ProjectStage   string
	FrontendCount  int
	ExistingStack  string
	PackageJSON    string
	CoreFeatures   string
	KeyFeatures    string
	DevPreference  string
	ForbiddenItems string
}

func (v Values) ProjectInfo() ProjectInfo {
	return ProjectInfo{
		ProjectType:    v.String(FieldProjectType),
		ProjectStage:   v.String(FieldProjectStage),
		FrontendCount:  v.Int(FieldFrontendCount),
		ExistingStack:  v.String(FieldExistingStack),
		PackageJSON:    v.String(FieldPackageJSON),
		CoreFeatures:   v.String(FieldCoreFeatures),
		KeyFeatures:    v.String(FieldKeyFeatures),
		DevPreference:  v.String(FieldDevPreference),
		ForbiddenItems: v.String(FieldForbiddenItems),
	}
}

func (p ProjectInfo) TeamSize() string {
	if p.FrontendCount == 1 {
		return "1 person"
	}
	return fmt.Sprintf("%d people", p.FrontendCount)
}

// SpecialRequirements prefers the key qualities and falls back to the core
// features.
func (p ProjectInfo) SpecialRequirements() string {
	if p.KeyFeatures != "" {
		return p.KeyFeatures
	}
	return p.CoreFeatures
}
