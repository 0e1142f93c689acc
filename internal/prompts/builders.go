package prompts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rahul/stacksmith/internal/forms"
	"github.com/rahul/stacksmith/internal/search"
)

const (
	notSpecified    = "not specified"
	sampleResults   = 5
	sampleBodyRunes = 100
)

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func AnalysisPrompt(info forms.ProjectInfo) string {
	return fmt.Sprintf(analyzeTemplate,
		orDefault(info.ProjectType, notSpecified),
		orDefault(info.ProjectStage, notSpecified),
		info.TeamSize(),
		notSpecified,
		orDefault(info.SpecialRequirements(), "none"),
		orDefault(info.ExistingStack, "none"),
		orDefault(info.DevPreference, "none"),
		orDefault(info.ForbiddenItems, "none"),
	)
}

func SearchKeywordsPrompt(info forms.ProjectInfo, requirements, constraints []string) string {
	return fmt.Sprintf(searchTemplate,
		orDefault(info.ProjectType, notSpecified),
		orDefault(strings.Join(requirements, ", "), notSpecified),
		orDefault(strings.Join(constraints, ", "), "none"),
	)
}

// GenerationPrompt includes a summary of at most five research results.
func GenerationPrompt(info forms.ProjectInfo, requirements, constraints []string, results []search.Result) string {
	return fmt.Sprintf(generateTemplate,
		orDefault(info.ProjectType, notSpecified),
		orDefault(info.ProjectStage, notSpecified),
		info.TeamSize(),
		notSpecified,
		orDefault(info.SpecialRequirements(), "none"),
		orDefault(info.ExistingStack, "none"),
		orDefault(info.ForbiddenItems, "none"),
		orDefault(bullets(requirements), "No specific requirements extracted"),
		orDefault(bullets(constraints), "No explicit constraints"),
		researchSummary(results),
	)
}

func bullets(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

func researchSummary(results []search.Result) string {
	if len(results) == 0 {
		return "No online research was performed; recommend from existing knowledge."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant results covering trends, best practices and case studies.\n\n**Key findings**:\n", len(results))
	for i, r := range results {
		if i == sampleResults {
			break
		}
		body := r.Snippet
		if utf8.RuneCountInString(body) > sampleBodyRunes {
			body = string([]rune(body)[:sampleBodyRunes])
		}
		fmt.Fprintf(&b, "%d. %s: %s...\n", i+1, orDefault(r.Title, "No title"), body)
	}
	return b.String()
}
