package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

const timestampLayout = "20060102_150405"

// PersistenceError reports a failure to write or list documents.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DocumentStore writes generated markdown documents into a directory.
type DocumentStore struct {
	Dir    string
	Prefix string
	// Now stamps file names. Defaults to time.Now.
	Now func() time.Time
}

func NewDocumentStore(dir, prefix string) *DocumentStore {
	if prefix == "" {
		prefix = "tech_stack"
	}
	return &DocumentStore{Dir: dir, Prefix: prefix, Now: time.Now}
}

// SanitizeName keeps letters, digits, spaces, hyphens and underscores, trims
// the result and turns spaces into underscores.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}

// FileName returns the document name for projectName at t.
func (s *DocumentStore) FileName(projectName string, t time.Time) string {
	stamp := t.Format(timestampLayout)
	if safe := SanitizeName(projectName); safe != "" {
		return fmt.Sprintf("%s_%s_%s.md", s.Prefix, safe, stamp)
	}
	return fmt.Sprintf("%s_%s.md", s.Prefix, stamp)
}

// Save writes content under a timestamped name and returns the absolute path.
func (s *DocumentStore) Save(content, projectName string) (string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return s.SaveAs(content, s.FileName(projectName, now()))
}

// SaveAs writes content to filename inside the store directory.
func (s *DocumentStore) SaveAs(content, filename string) (string, error) {
	root, target, err := s.resolve("write", filename)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", &PersistenceError{Op: "create directory", Path: root, Err: err}
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return "", &PersistenceError{Op: "write", Path: target, Err: err}
	}
	return target, nil
}

// Read returns the content of a document in the store directory.
func (s *DocumentStore) Read(filename string) (string, error) {
	_, target, err := s.resolve("read", filename)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", &PersistenceError{Op: "read", Path: target, Err: err}
	}
	return string(data), nil
}

// resolve joins filename onto the store directory. The target must stay
// inside it.
func (s *DocumentStore) resolve(op, filename string) (root, target string, err error) {
	root, err = filepath.Abs(s.Dir)
	if err != nil {
		return "", "", &PersistenceError{Op: "resolve", Path: s.Dir, Err: err}
	}
	target = filepath.Join(root, filename)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", "", &PersistenceError{Op: op, Path: filename, Err: fmt.Errorf("unsafe path")}
	}
	return root, target, nil
}

// List returns the markdown file names in the store directory, sorted. A
// missing directory is an empty list.
func (s *DocumentStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "list", Path: s.Dir, Err: err}
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
