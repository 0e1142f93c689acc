// Package workflow runs the fixed collect, analyze, search, generate and save
// pipeline over a shared State.
package workflow

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/stacksmith/internal/forms"
	"github.com/rahul/stacksmith/internal/observability"
	"github.com/rahul/stacksmith/internal/prompts"
	"github.com/rahul/stacksmith/internal/search"
	"go.uber.org/zap"
)

const (
	defaultKeywordLimit      = 8
	defaultResultsPerKeyword = 3
)

// LLM is the model facade the analyze, search and generate steps use.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Stream(ctx context.Context, system, prompt string) iter.Seq2[string, error]
}

// Searcher runs research queries for the search step.
type Searcher interface {
	SearchMany(ctx context.Context, keywords []string, maxResults int) []search.Result
	Enrich(ctx context.Context, results []search.Result) []search.Result
}

// DocumentSaver persists the generated document.
type DocumentSaver interface {
	Save(content, projectName string) (string, error)
}

// Deps are the collaborators of an Engine. Source, LLM and Store are
// required. A nil Search makes the search step a no-op.
type Deps struct {
	Source  forms.Source
	Schema  *forms.Schema
	LLM     LLM
	Search  Searcher
	Store   DocumentSaver
	Prompts *prompts.Manager
	Logger  *observability.Logger

	// Now stamps the fallback document. Defaults to time.Now.
	Now func() time.Time
	// NewID names runs. Defaults to random UUIDs.
	NewID func() string

	KeywordLimit      int
	ResultsPerKeyword int

	// Output, when set, receives the document fragments as they stream in.
	Output io.Writer
}

// Result is the outcome of one run.
type Result struct {
	RunID string
	State State
	// Trace lists the completed steps in order.
	Trace []StepName
}

type Engine struct {
	deps  Deps
	graph Graph
}

func New(deps Deps) (*Engine, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("workflow: form source is required")
	}
	if deps.LLM == nil {
		return nil, fmt.Errorf("workflow: LLM client is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("workflow: document store is required")
	}
	if deps.Schema == nil {
		deps.Schema = forms.DefaultSchema()
	}
	if deps.Prompts == nil {
		deps.Prompts = prompts.NewManager("")
	}
	if deps.Logger == nil {
		deps.Logger = observability.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.KeywordLimit <= 0 {
		deps.KeywordLimit = defaultKeywordLimit
	}
	if deps.ResultsPerKeyword <= 0 {
		deps.ResultsPerKeyword = defaultResultsPerKeyword
	}

	e := &Engine{deps: deps}
	e.graph = e.defaultGraph()
	return e, nil
}

func (e *Engine) defaultGraph() Graph {
	steps := []Step{
		{Name: StepCollect, Run: e.collect},
		{Name: StepAnalyze, Requires: []Field{FieldForm}, Run: e.analyze},
		{Name: StepSearch, Requires: []Field{FieldForm, FieldAnalysis}, Run: e.search},
		{Name: StepGenerate, Requires: []Field{FieldForm, FieldAnalysis}, Run: e.generate},
		{Name: StepSave, Requires: []Field{FieldForm, FieldDocument}, Run: e.save},
	}
	g := Graph{
		Entry: StepCollect,
		Steps: make(map[StepName]Step, len(steps)),
		Edges: map[StepName]StepName{
			StepCollect:  StepAnalyze,
			StepSearch:   StepGenerate,
			StepGenerate: StepSave,
			StepSave:     StepEnd,
		},
		Branches: map[StepName]func(State) Branch{
			StepAnalyze: routeAfterAnalyze,
		},
		Dispatch: map[Branch]StepName{
			BranchSearch:   StepSearch,
			BranchGenerate: StepGenerate,
		},
	}
	for _, s := range steps {
		g.Steps[s.Name] = s
	}
	return g
}

// Run executes the pipeline once. The returned Result is non-nil whenever the
// run started, so callers can inspect the partial state of a failed run.
// Errors that escape a step are *StepError; a cancelled context aborts
// between steps.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	runID := e.deps.NewID()
	ctx = observability.WithRunID(ctx, runID)
	log := e.deps.Logger

	res := &Result{RunID: runID}
	produced := make(map[Field]bool)
	ran := make(map[StepName]bool)

	log.Log(observability.Event{Type: observability.EventTypeRun, RunID: runID, Data: map[string]string{"status": "started"}})

	current := e.graph.Entry
	for current != StepEnd {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		step, ok := e.graph.Steps[current]
		if !ok {
			return res, fmt.Errorf("unknown step %q", current)
		}
		if ran[current] {
			return res, fmt.Errorf("%w: %s", ErrStepRepeated, current)
		}
		for _, f := range step.Requires {
			if !produced[f] {
				return res, &PrecedenceViolation{Step: current, Missing: f}
			}
		}
		ran[current] = true

		update, err := step.Run(ctx, res.State.clone())
		if err != nil {
			log.Zap().Error("Step aborted run",
				zap.String("run_id", runID),
				zap.String("step", string(current)),
				zap.Error(err))
			return res, &StepError{Step: current, Err: err}
		}
		update.Step = current

		res.State = res.State.apply(update)
		for _, f := range update.produces() {
			produced[f] = true
		}
		res.Trace = append(res.Trace, current)
		for _, m := range update.Messages {
			log.LogStep(ctx, string(current), m)
		}

		current, err = e.graph.next(current, res.State)
		if err != nil {
			return res, err
		}
	}

	log.Log(observability.Event{Type: observability.EventTypeRun, RunID: runID, Data: map[string]any{
		"status":    "completed",
		"trace":     res.Trace,
		"fallbacks": res.State.Fallbacks,
	}})
	return res, nil
}
