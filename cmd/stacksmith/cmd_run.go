package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rahul/stacksmith/internal/forms"
	"github.com/rahul/stacksmith/internal/governance"
	"github.com/rahul/stacksmith/internal/llm"
	"github.com/rahul/stacksmith/internal/notify"
	"github.com/rahul/stacksmith/internal/observability"
	"github.com/rahul/stacksmith/internal/prompts"
	"github.com/rahul/stacksmith/internal/search"
	"github.com/rahul/stacksmith/internal/store"
	"github.com/rahul/stacksmith/internal/workflow"
	"github.com/rahul/stacksmith/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	formPath     string
	formSets     []string
	defaultsPath string
	streamDoc    bool
)

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	color := observability.IsTerminal()
	if color {
		observability.PrintBanner(cmd.ErrOrStderr(), color)
	}

	input, err := collectInput(formPath, formSets)
	if err != nil {
		return err
	}
	schema := forms.DefaultSchema()
	if path := firstNonEmpty(defaultsPath, cfg.App.FormDefaults); path != "" {
		if err := schema.LoadDefaults(path); err != nil {
			return err
		}
	}

	deps, err := buildDeps(cfg, logger)
	if err != nil {
		return err
	}
	deps.Source = input
	deps.Schema = schema
	if streamDoc {
		deps.Output = out
	}

	engine, err := workflow.New(deps)
	if err != nil {
		return err
	}

	res, runErr := engine.Run(ctx)
	if streamDoc {
		fmt.Fprintln(out)
	}

	// Record and notify outside the run's context so an interrupt is still
	// written to history.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	recordRun(finishCtx, cfg, res, runErr)
	notifyRun(finishCtx, cfg, res, runErr)

	if runErr != nil {
		return runErr
	}

	observability.PrintSummary(out, color, "Document saved", summaryLines(res))
	fmt.Fprintln(out, res.State.OutputPath)
	return nil
}

// collectInput merges the --form file and --set pairs, later wins.
func collectInput(path string, sets []string) (forms.StaticSource, error) {
	raw := map[string]any{}
	if path != "" {
		fromFile, err := forms.LoadInput(path)
		if err != nil {
			return nil, err
		}
		maps.Copy(raw, fromFile)
	}
	fromFlags, err := forms.ParseAssignments(sets)
	if err != nil {
		return nil, err
	}
	maps.Copy(raw, fromFlags)
	return forms.StaticSource(raw), nil
}

// buildDeps constructs the long-lived collaborators from configuration.
func buildDeps(cfg *config.Config, logger *observability.Logger) (workflow.Deps, error) {
	name, provider := cfg.GetDefaultProvider()
	client, err := llm.NewFromProvider(name, provider, logger)
	if err != nil {
		return workflow.Deps{}, err
	}

	docs := store.NewDocumentStore(cfg.App.OutputDir, cfg.App.DocumentPrefix)

	deps := workflow.Deps{
		LLM:               client,
		Store:             docs,
		Prompts:           prompts.NewManager(cfg.App.PromptsDir),
		Logger:            logger,
		KeywordLimit:      cfg.Search.KeywordLimit,
		ResultsPerKeyword: cfg.Search.ResultsPerKeyword,
	}

	if cfg.Search.Enabled {
		searcher, err := newSearchClient(cfg.Search, logger)
		if err != nil {
			logger.Zap().Warn("Search disabled", zap.Error(err))
		} else {
			deps.Search = searcher
		}
	}
	return deps, nil
}

func newSearchClient(sc config.SearchConfig, logger *observability.Logger) (*search.Client, error) {
	provider, err := search.NewDuckDuckGo(sc.MaxResults, sc.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search provider: %w", err)
	}

	policy := governance.NewQueryPolicy()
	for _, term := range sc.DenyTerms {
		policy.DenyTerm(term)
	}
	for _, pattern := range sc.DenyPatterns {
		if err := policy.DenyPattern(pattern); err != nil {
			return nil, err
		}
	}

	opts := []search.Option{
		search.WithPolicy(policy),
		search.WithLogger(logger),
		search.WithDelay(time.Duration(sc.DelayMillis) * time.Millisecond),
		search.WithMaxResults(sc.MaxResults),
	}
	if sc.EnrichTop > 0 {
		opts = append(opts, search.WithEnricher(search.NewEnricher(nil, sc.UserAgent), sc.EnrichTop))
	}
	return search.NewClient(provider, opts...), nil
}

func recordRun(ctx context.Context, cfg *config.Config, res *workflow.Result, runErr error) {
	if res == nil || cfg.Memory.Path == "" {
		return
	}
	runs, err := store.NewRunStore(cfg.Memory.Path)
	if err != nil {
		logger.Zap().Warn("Run history unavailable", zap.Error(err))
		return
	}
	defer runs.Close()

	if err := runs.RecordRun(ctx, runRecord(res, runErr)); err != nil {
		logger.Zap().Warn("Failed to record run", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

func runRecord(res *workflow.Result, runErr error) store.Run {
	run := store.Run{
		ID:          res.RunID,
		ProjectType: res.State.Form.String(forms.FieldProjectType),
		Searched:    slices.Contains(res.Trace, workflow.StepSearch),
		ResultCount: len(res.State.SearchResults),
		OutputPath:  res.State.OutputPath,
		Trace:       stepNames(res.Trace),
		Fallbacks:   stepNames(res.State.Fallbacks),
		Status:      "completed",
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		run.Status = "interrupted"
	case runErr != nil:
		run.Status = "failed"
		run.Error = runErr.Error()
	}
	return run
}

func notifyRun(ctx context.Context, cfg *config.Config, res *workflow.Result, runErr error) {
	tg, ok := cfg.GetTelegramConfig()
	if !ok || res == nil {
		return
	}
	n, err := notify.NewTelegram(tg.Token, tg.ChatID)
	if err != nil {
		logger.Zap().Warn("Telegram notifier unavailable", zap.Error(err))
		return
	}
	sendSummary(ctx, n, res, runErr)
}

func sendSummary(ctx context.Context, n notify.Notifier, res *workflow.Result, runErr error) {
	run := runRecord(res, runErr)
	err := n.Notify(ctx, notify.Summary{
		RunID:       run.ID,
		ProjectType: run.ProjectType,
		OutputPath:  run.OutputPath,
		Searched:    run.Searched,
		ResultCount: run.ResultCount,
		Fallbacks:   run.Fallbacks,
		Err:         runErr,
	})
	if err != nil {
		logger.Zap().Warn("Notification failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func summaryLines(res *workflow.Result) []string {
	lines := []string{
		"Run:        " + res.RunID,
		"Project:    " + res.State.Form.String(forms.FieldProjectType),
		"Steps:      " + joinSteps(res.Trace),
		"Research:   " + strconv.Itoa(len(res.State.SearchResults)) + " results",
	}
	if len(res.State.Fallbacks) > 0 {
		lines = append(lines, "Fallbacks:  "+joinSteps(res.State.Fallbacks))
	}
	return append(lines, "Saved to:   "+res.State.OutputPath)
}

func stepNames(steps []workflow.StepName) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, string(s))
	}
	return out
}

func joinSteps(steps []workflow.StepName) string {
	return strings.Join(stepNames(steps), " -> ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
