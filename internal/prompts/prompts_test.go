package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rahul/stacksmith/internal/forms"
	"github.com/rahul/stacksmith/internal/search"
)

func TestManager_BuiltinWithoutDirectory(t *testing.T) {
	pm := NewManager("")
	for _, kind := range []Kind{KindAnalyze, KindSearch, KindGenerate} {
		prompt, err := pm.System(kind)
		if err != nil {
			t.Fatal(err)
		}
		if prompt != builtins[kind] {
			t.Errorf("%s: expected built-in prompt", kind)
		}
	}

	if _, err := pm.System("planner"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestManager_MissingDirectoryFallsBack(t *testing.T) {
	pm := NewManager(filepath.Join(t.TempDir(), "absent"))
	prompt, err := pm.System(KindAnalyze)
	if err != nil {
		t.Fatal(err)
	}
	if prompt != analyzeSystem {
		t.Error("expected built-in analyze prompt")
	}
}

func TestManager_OverridesAndExtensions(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"analyze.md":         "Custom Analyst",
		"analyze.b_extra.md": "Second Extra",
		"analyze.a_extra.md": "First Extra",
		"generate.tone.md":   "Tone Content",
		"search.md":          "   ",
		"notes.txt":          "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	pm := NewManager(tempDir)

	prompt, err := pm.System(KindAnalyze)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(prompt, "senior frontend architect") {
		t.Error("analyze.md should replace the built-in prompt")
	}
	// Verify order
	if strings.Index(prompt, "Custom Analyst") >= strings.Index(prompt, "First Extra") {
		t.Error("override should be before extensions")
	}
	if strings.Index(prompt, "First Extra") >= strings.Index(prompt, "Second Extra") {
		t.Error("extensions should be in name order")
	}

	prompt, err = pm.System(KindGenerate)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(prompt, generateSystem) || !strings.HasSuffix(prompt, "Tone Content") {
		t.Errorf("generate prompt should extend the built-in, got %q", prompt)
	}

	prompt, err = pm.System(KindSearch)
	if err != nil {
		t.Fatal(err)
	}
	if prompt != searchSystem {
		t.Error("blank override should keep the built-in prompt")
	}
}

func TestAnalysisPrompt(t *testing.T) {
	info := forms.ProjectInfo{
		ProjectType:   "Web-C端",
		FrontendCount: 3,
		CoreFeatures:  "商品列表",
	}
	prompt := AnalysisPrompt(info)

	for _, want := range []string{"Web-C端", "3 people", "商品列表", `"needs_search"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("analysis prompt missing %q", want)
		}
	}
}

func TestSearchKeywordsPrompt_Defaults(t *testing.T) {
	prompt := SearchKeywordsPrompt(forms.ProjectInfo{}, nil, nil)
	if !strings.Contains(prompt, "**Core requirements**: not specified") {
		t.Error("empty requirements should read as not specified")
	}
	if !strings.Contains(prompt, "**Constraints**: none") {
		t.Error("empty constraints should read as none")
	}

	prompt = SearchKeywordsPrompt(forms.ProjectInfo{}, []string{"SEO", "SSR"}, []string{"small team"})
	if !strings.Contains(prompt, "SEO, SSR") {
		t.Error("requirements should be comma joined")
	}
}

func TestGenerationPrompt_ResearchSummary(t *testing.T) {
	info := forms.ProjectInfo{ProjectType: "小程序", FrontendCount: 1}

	prompt := GenerationPrompt(info, []string{"性能"}, nil, nil)
	if !strings.Contains(prompt, "No online research was performed") {
		t.Error("expected no-research summary")
	}
	if !strings.Contains(prompt, "- 性能") {
		t.Error("requirements should be bulleted")
	}
	if !strings.Contains(prompt, "No explicit constraints") {
		t.Error("expected constraint placeholder")
	}

	var results []search.Result
	for i := 0; i < 7; i++ {
		results = append(results, search.Result{
			Title:   "Result " + string(rune('A'+i)),
			Snippet: strings.Repeat("x", 150),
		})
	}
	prompt = GenerationPrompt(info, nil, nil, results)
	if !strings.Contains(prompt, "Found 7 relevant results") {
		t.Error("summary should count every result")
	}
	if !strings.Contains(prompt, "5. Result E") || strings.Contains(prompt, "Result F") {
		t.Error("summary should list only the first five results")
	}
	if strings.Contains(prompt, strings.Repeat("x", 101)) {
		t.Error("snippets should be truncated to 100 runes")
	}
}
