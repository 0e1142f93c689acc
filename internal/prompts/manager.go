// Package prompts holds the system prompts and prompt builders for each LLM
// step of the pipeline.
package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Kind string

const (
	KindAnalyze  Kind = "analyze"
	KindSearch   Kind = "search"
	KindGenerate Kind = "generate"
)

var builtins = map[Kind]string{
	KindAnalyze:  analyzeSystem,
	KindSearch:   searchSystem,
	KindGenerate: generateSystem,
}

const sectionSeparator = "\n\n---\n\n"

// Manager resolves system prompts. A directory may override a kind with
// <kind>.md and extend it with <kind>.<anything>.md files, appended in name
// order.
type Manager struct {
	Directory string
}

func NewManager(dir string) *Manager {
	return &Manager{Directory: dir}
}

// System returns the system prompt for kind.
func (m *Manager) System(kind Kind) (string, error) {
	base, ok := builtins[kind]
	if !ok {
		return "", fmt.Errorf("unknown prompt kind %q", kind)
	}
	if m == nil || m.Directory == "" {
		return base, nil
	}

	entries, err := os.ReadDir(m.Directory)
	if errors.Is(err, fs.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %v", err)
	}

	primary := string(kind) + ".md"
	var extras []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		if name == primary {
			data, err := os.ReadFile(filepath.Join(m.Directory, name))
			if err != nil {
				return "", fmt.Errorf("failed to read prompt file %s: %v", name, err)
			}
			if s := strings.TrimSpace(string(data)); s != "" {
				base = s
			}
			continue
		}
		if strings.HasPrefix(name, string(kind)+".") {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)

	parts := []string{base}
	for _, name := range extras {
		data, err := os.ReadFile(filepath.Join(m.Directory, name))
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file %s: %v", name, err)
		}
		if s := strings.TrimSpace(string(data)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sectionSeparator), nil
}
