package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rahul/stacksmith/internal/forms"
	"github.com/rahul/stacksmith/internal/llm"
	"github.com/rahul/stacksmith/internal/notify"
	"github.com/rahul/stacksmith/internal/observability"
	"github.com/rahul/stacksmith/internal/search"
	"github.com/rahul/stacksmith/internal/store"
	"github.com/rahul/stacksmith/internal/workflow"
	"github.com/rahul/stacksmith/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGlobals(t *testing.T) {
	t.Helper()
	cfg = config.Default()
	cfg.App.OutputDir = filepath.Join(t.TempDir(), "outputs")
	cfg.Memory.Path = filepath.Join(t.TempDir(), "runs.db")
	logger = observability.NewNop()
	t.Cleanup(func() {
		cfg = nil
		logger = nil
	})
}

func newTestCommand(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 130, exitCode(context.Canceled))
	assert.Equal(t, 130, exitCode(&workflow.StepError{Step: workflow.StepAnalyze, Err: fmt.Errorf("wrapped: %w", context.Canceled)}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 1, exitCode(config.ErrMissingAPIKey))
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing key", config.ErrMissingAPIKey, "Hint: export DEEPSEEK_API_KEY"},
		{"upstream", &llm.UpstreamError{Op: "complete", Model: "m", Err: errors.New("401")}, "Hint: check the API key"},
		{"permission", &store.PersistenceError{Op: "write", Path: "/x", Err: os.ErrPermission}, "Hint: check that the output directory is writable"},
		{"interrupted", context.Canceled, "Interrupted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}

	var buf bytes.Buffer
	reportError(&buf, errors.New("unexpected"))
	assert.Equal(t, "Error: unexpected\n", buf.String())
}

func TestCollectInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_type: 小程序\ncore_features: 下单\n"), 0644))

	src, err := collectInput(path, []string{"core_features=商品列表", "frontend_count=3"})
	require.NoError(t, err)

	raw, err := src.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "小程序", raw["project_type"])
	assert.Equal(t, "商品列表", raw["core_features"], "--set wins over the file")
	assert.Equal(t, "3", raw["frontend_count"])

	_, err = collectInput("", []string{"novalue"})
	assert.Error(t, err)
}

func TestRunPipeline_MissingAPIKeyFailsFast(t *testing.T) {
	setupGlobals(t)

	var buf bytes.Buffer
	err := runPipeline(newTestCommand(&buf), nil)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Equal(t, 1, exitCode(err))

	_, statErr := os.Stat(cfg.App.OutputDir)
	assert.True(t, os.IsNotExist(statErr), "nothing may be written before the credential check")
}

func TestListDocuments(t *testing.T) {
	setupGlobals(t)

	var buf bytes.Buffer
	require.NoError(t, listDocuments(newTestCommand(&buf), nil))
	assert.Contains(t, buf.String(), "No documents in")

	docs := store.NewDocumentStore(cfg.App.OutputDir, "tech_stack")
	_, err := docs.SaveAs("# a", "tech_stack_a.md")
	require.NoError(t, err)
	_, err = docs.SaveAs("# b", "tech_stack_b.md")
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, listDocuments(newTestCommand(&buf), nil))
	assert.Equal(t, "tech_stack_a.md\ntech_stack_b.md\n", buf.String())
}

func TestShowDocument(t *testing.T) {
	setupGlobals(t)
	showRaw = true
	t.Cleanup(func() { showRaw = false })

	docs := store.NewDocumentStore(cfg.App.OutputDir, "tech_stack")
	_, err := docs.SaveAs("# 技术选型\n\nReact", "tech_stack_x.md")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, showDocument(newTestCommand(&buf), []string{"tech_stack_x.md"}))
	assert.Equal(t, "# 技术选型\n\nReact", buf.String())

	err = showDocument(newTestCommand(&buf), []string{"absent.md"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestShowHistory(t *testing.T) {
	setupGlobals(t)
	historyLimit = 10

	var buf bytes.Buffer
	require.NoError(t, showHistory(newTestCommand(&buf), nil))
	assert.Contains(t, buf.String(), "No runs recorded yet")

	res := &workflow.Result{
		RunID: "run-42",
		State: workflow.State{
			Form:       forms.Values{forms.FieldProjectType: "Web-B端"},
			OutputPath: "/out/doc.md",
			Fallbacks:  []workflow.StepName{workflow.StepGenerate},
		},
		Trace: []workflow.StepName{workflow.StepCollect, workflow.StepAnalyze, workflow.StepGenerate, workflow.StepSave},
	}
	recordRun(context.Background(), cfg, res, nil)

	buf.Reset()
	require.NoError(t, showHistory(newTestCommand(&buf), nil))
	out := buf.String()
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "completed (fallback: generate)")
	assert.Contains(t, out, "collect>analyze>generate>save")
	assert.Contains(t, out, "/out/doc.md")
}

func TestRunRecord_Status(t *testing.T) {
	res := &workflow.Result{
		RunID: "r",
		State: workflow.State{SearchResults: []search.Result{}},
		Trace: []workflow.StepName{workflow.StepCollect, workflow.StepAnalyze, workflow.StepSearch},
	}

	run := runRecord(res, nil)
	assert.Equal(t, "completed", run.Status)
	assert.True(t, run.Searched)

	run = runRecord(res, &workflow.StepError{Step: workflow.StepSave, Err: errors.New("disk full")})
	assert.Equal(t, "failed", run.Status)
	assert.Contains(t, run.Error, "disk full")

	run = runRecord(res, context.Canceled)
	assert.Equal(t, "interrupted", run.Status)
	assert.Empty(t, run.Error)
}

type recordingNotifier struct {
	got []notify.Summary
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, s notify.Summary) error {
	r.got = append(r.got, s)
	return r.err
}

func TestSendSummary(t *testing.T) {
	setupGlobals(t)
	res := &workflow.Result{
		RunID: "run-7",
		State: workflow.State{
			Form:       forms.Values{forms.FieldProjectType: "移动端开发"},
			OutputPath: "/out/x.md",
		},
		Trace: []workflow.StepName{workflow.StepCollect, workflow.StepAnalyze, workflow.StepGenerate, workflow.StepSave},
	}

	n := &recordingNotifier{}
	sendSummary(context.Background(), n, res, nil)
	require.Len(t, n.got, 1)
	assert.Equal(t, "run-7", n.got[0].RunID)
	assert.Equal(t, "移动端开发", n.got[0].ProjectType)
	assert.False(t, n.got[0].Searched)

	// A failing notifier is logged, never fatal.
	failing := &recordingNotifier{err: errors.New("telegram down")}
	sendSummary(context.Background(), failing, res, nil)
	assert.Len(t, failing.got, 1)
}

func TestSummaryLines(t *testing.T) {
	res := &workflow.Result{
		RunID: "run-1",
		State: workflow.State{
			Form:       forms.Values{forms.FieldProjectType: "Web-C端"},
			OutputPath: "/out/doc.md",
			Fallbacks:  []workflow.StepName{workflow.StepAnalyze},
		},
		Trace: []workflow.StepName{workflow.StepCollect, workflow.StepAnalyze, workflow.StepGenerate, workflow.StepSave},
	}
	lines := summaryLines(res)
	assert.Contains(t, lines, "Steps:      collect -> analyze -> generate -> save")
	assert.Contains(t, lines, "Fallbacks:  analyze")
	assert.Equal(t, "Saved to:   /out/doc.md", lines[len(lines)-1])
}

func TestRootCommand_List(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	t.Setenv("STACKSMITH_OUTPUT_DIR", dir)
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Cleanup(func() {
		cfg = nil
		logger = nil
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.json"), "list"})
	defer rootCmd.SetArgs(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rootCmd.ExecuteContext(ctx))
	assert.Contains(t, buf.String(), "No documents in "+dir)
}

func TestPrintResearch_FiltersAndRanks(t *testing.T) {
	researchInclude = []string{"performance"}
	researchExclude = []string{"sponsored"}
	t.Cleanup(func() {
		researchInclude = nil
		researchExclude = nil
	})

	grouped := map[string][]search.Result{
		"React": {
			{Title: "React performance tips", URL: "https://blog.example.com/react"},
			{Title: "Sponsored: React performance course", URL: "https://ads.example.com"},
			{Title: "Performance", Snippet: "react.dev guide", URL: "https://github.com/facebook/react"},
			{Title: "React history", URL: "https://example.org/history"},
		},
	}

	var buf bytes.Buffer
	printResearch(&buf, []string{"React"}, grouped)

	want := "## React (2 results)\n" +
		"* 1. Performance\n     https://github.com/facebook/react\n" +
		"  2. React performance tips\n     https://blog.example.com/react\n\n"
	assert.Equal(t, want, buf.String())
}

type fakeCompleter struct {
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return "OK", f.err
}

func withProvider(key string) {
	cfg.Providers["deepseek"] = config.ProviderConfig{APIKey: key, Model: config.DefaultModel, Enabled: true}
}

func checkByName(results []checkResult, name string) checkResult {
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	return checkResult{Name: name, Detail: "missing"}
}

func TestRunChecks(t *testing.T) {
	t.Run("all pass", func(t *testing.T) {
		setupGlobals(t)
		withProvider("sk-1234567890abcdef")
		ping := &fakeCompleter{}

		results := runChecks(context.Background(), cfg, ping)

		var buf bytes.Buffer
		assert.True(t, printChecks(&buf, results), buf.String())
		assert.Equal(t, 1, ping.calls)
		assert.Contains(t, checkByName(results, "API key").Detail, "sk-12345...cdef")
		assert.DirExists(t, cfg.App.OutputDir)
		assert.Equal(t, "ok", checkByName(results, "API connection").Detail)
	})

	t.Run("missing key", func(t *testing.T) {
		setupGlobals(t)
		results := runChecks(context.Background(), cfg, nil)

		var buf bytes.Buffer
		assert.False(t, printChecks(&buf, results))
		assert.Contains(t, buf.String(), "FAIL")
		assert.False(t, checkByName(results, "API key").OK)
	})

	t.Run("placeholder key skips the ping", func(t *testing.T) {
		setupGlobals(t)
		withProvider(placeholderAPIKey)
		ping := &fakeCompleter{}

		results := runChecks(context.Background(), cfg, ping)
		assert.Zero(t, ping.calls)
		assert.False(t, checkByName(results, "API connection").OK)
	})

	t.Run("ping failure", func(t *testing.T) {
		setupGlobals(t)
		withProvider("sk-1234567890abcdef")
		ping := &fakeCompleter{err: errors.New("401 unauthorized")}

		results := runChecks(context.Background(), cfg, ping)
		conn := checkByName(results, "API connection")
		assert.False(t, conn.OK)
		assert.Contains(t, conn.Detail, "401")
	})

	t.Run("missing prompts directory", func(t *testing.T) {
		setupGlobals(t)
		withProvider("sk-1234567890abcdef")
		cfg.App.PromptsDir = filepath.Join(t.TempDir(), "absent")

		results := runChecks(context.Background(), cfg, nil)
		assert.False(t, checkByName(results, "prompts directory").OK)
		assert.Equal(t, "skipped", checkByName(results, "API connection").Detail)
	})
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "***", maskKey("short"))
	assert.Equal(t, "sk-abcde...wxyz", maskKey("sk-abcdefghijklmnopqrstuvwxyz"))
}
