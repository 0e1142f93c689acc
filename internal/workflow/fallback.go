package workflow

import (
	"fmt"
	"time"

	"github.com/rahul/stacksmith/internal/forms"
)

const fallbackTemplate = `# Technical Solution Document

## Template Notice

This document is a simplified version because generation failed. Check the API configuration and run again.

## ChangeLog

| Version | Author | Date | Note |
|---------|--------|------|------|
| V 1.0 | Agent | %s | Fallback document |

## 1. Business Background and Goals

### 1.1 Background

- Project type: %s
- Team size: %s
- Core features: %s
- Key features: %s

## 3. Overall Technical Solution

### 3.1 Technology Research and Selection

(Document generation failed. Run again to get the full proposal.)

---
Generated at: %s
`

// FallbackDocument is the placeholder saved when the model cannot produce a
// document.
func FallbackDocument(info forms.ProjectInfo, now time.Time) string {
	return fmt.Sprintf(fallbackTemplate,
		now.Format("2006-01-02"),
		orUnknown(info.ProjectType, "unknown"),
		info.TeamSize(),
		orUnknown(info.CoreFeatures, "not provided"),
		orUnknown(info.KeyFeatures, "not provided"),
		now.Format("2006-01-02 15:04:05"),
	)
}

func orUnknown(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
