package forms

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source supplies raw answers for one run.
type Source interface {
	Collect(ctx context.Context) (map[string]any, error)
}

// StaticSource answers with a fixed mapping. It is what non-interactive runs
// and tests use.
type StaticSource map[string]any

func (s StaticSource) Collect(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// LoadInput reads raw answers from a YAML file. JSON files work too since
// JSON is a subset of YAML.
func LoadInput(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form input: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse form input %s: %w", path, err)
	}
	return raw, nil
}

// ParseAssignments turns key=value pairs into raw answers. Later pairs win.
func ParseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// defaultsFile is the on-disk shape of a defaults override file:
//
//	defaults:
//	  project_type: Web-B端
//	  frontend_count: 3
type defaultsFile struct {
	Defaults map[string]any `yaml:"defaults"`
}

// LoadDefaults overrides field defaults from a YAML file. Unknown field ids
// are rejected so typos do not go unnoticed.
func (s *Schema) LoadDefaults(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read form defaults: %w", err)
	}
	var df defaultsFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return fmt.Errorf("failed to parse form defaults %s: %w", path, err)
	}
	for id, v := range df.Defaults {
		idx := -1
		for i := range s.Fields {
			if s.Fields[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("form defaults: unknown field %q", id)
		}
		f := s.Fields[idx]
		if f.Kind == KindSelect {
			if _, err := normalizeField(f, v); err != nil {
				return fmt.Errorf("form defaults: %w", err)
			}
		}
		s.Fields[idx].Default = v
	}
	return nil
}
