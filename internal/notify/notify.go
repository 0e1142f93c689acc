// Package notify tells an outside channel that a run has finished.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Summary describes a finished run.
type Summary struct {
	RunID       string
	ProjectType string
	OutputPath  string
	Searched    bool
	ResultCount int
	Fallbacks   []string
	Err         error
}

// Text renders the summary as a plain-text message.
func (s Summary) Text() string {
	var b strings.Builder
	if s.Err != nil {
		fmt.Fprintf(&b, "Tech stack run %s failed: %v\n", s.RunID, s.Err)
	} else {
		fmt.Fprintf(&b, "Tech stack document ready (run %s)\n", s.RunID)
	}
	if s.ProjectType != "" {
		fmt.Fprintf(&b, "Project type: %s\n", s.ProjectType)
	}
	if s.Searched {
		fmt.Fprintf(&b, "Research results: %d\n", s.ResultCount)
	}
	if len(s.Fallbacks) > 0 {
		fmt.Fprintf(&b, "Fallbacks used: %s\n", strings.Join(s.Fallbacks, ", "))
	}
	if s.OutputPath != "" {
		fmt.Fprintf(&b, "Saved to: %s\n", s.OutputPath)
	}
	return strings.TrimRight(b.String(), "\n")
}

type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Summary) error { return nil }
