package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rahul/stacksmith/internal/forms"
	"github.com/rahul/stacksmith/internal/jsonextract"
	"github.com/rahul/stacksmith/internal/llm"
	"github.com/rahul/stacksmith/internal/prompts"
	"github.com/rahul/stacksmith/internal/search"
)

var (
	defaultRequirements = []string{"Standard requirements for the project type"}
	defaultConstraints  = []string{"Team learning curve"}
)

// degradable reports whether err is a failure the LLM steps recover from
// with their fallback value.
func degradable(err error) bool {
	var upstream *llm.UpstreamError
	return errors.As(err, &upstream) || errors.Is(err, jsonextract.ErrNoJSONFound)
}

func (e *Engine) collect(ctx context.Context, _ State) (Update, error) {
	raw, err := e.deps.Source.Collect(ctx)
	if err != nil {
		return Update{}, fmt.Errorf("failed to collect form: %w", err)
	}
	values, err := e.deps.Schema.Normalize(raw)
	if err != nil {
		return Update{}, err
	}
	return Update{
		Form:     values,
		Messages: []string{"form collected"},
	}, nil
}

func (e *Engine) analyze(ctx context.Context, s State) (Update, error) {
	system, err := e.deps.Prompts.System(prompts.KindAnalyze)
	if err != nil {
		return Update{}, err
	}

	analysis, err := e.requestAnalysis(ctx, system, prompts.AnalysisPrompt(s.Form.ProjectInfo()))
	if err != nil {
		if !degradable(err) {
			return Update{}, err
		}
		e.deps.Logger.LogFallback(ctx, string(StepAnalyze), err)
		return Update{
			Analysis: &Analysis{
				Requirements: defaultRequirements,
				Constraints:  defaultConstraints,
				NeedsSearch:  false,
			},
			Messages: []string{"default analysis used"},
			Fallback: true,
		}, nil
	}

	return Update{
		Analysis: analysis,
		Messages: []string{"requirements analyzed"},
	}, nil
}

func (e *Engine) requestAnalysis(ctx context.Context, system, prompt string) (*Analysis, error) {
	resp, err := e.deps.LLM.Complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	m, err := jsonextract.Extract(resp)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Requirements: firstList(m, "extracted_requirements", "requirements"),
		Constraints:  firstList(m, "tech_constraints", "constraints"),
		NeedsSearch:  jsonextract.Bool(m, "needs_search"),
	}, nil
}

func (e *Engine) search(ctx context.Context, s State) (Update, error) {
	if e.deps.Search == nil {
		return Update{Messages: []string{"search disabled"}}, nil
	}

	system, err := e.deps.Prompts.System(prompts.KindSearch)
	if err != nil {
		return Update{}, err
	}

	keywords, err := e.requestKeywords(ctx, system, prompts.SearchKeywordsPrompt(s.Form.ProjectInfo(), s.Requirements, s.Constraints))
	if err != nil {
		if !degradable(err) {
			return Update{}, err
		}
		e.deps.Logger.LogFallback(ctx, string(StepSearch), err)
		return Update{Messages: []string{"search failed"}, Fallback: true}, nil
	}
	if len(keywords) > e.deps.KeywordLimit {
		keywords = keywords[:e.deps.KeywordLimit]
	}

	results := e.deps.Search.SearchMany(ctx, keywords, e.deps.ResultsPerKeyword)
	results = e.deps.Search.Enrich(ctx, results)
	results = search.PrioritizeOfficial(results)

	return Update{
		SearchResults: results,
		Messages:      []string{fmt.Sprintf("research complete: %d results for %d keywords", len(results), len(keywords))},
	}, nil
}

func (e *Engine) requestKeywords(ctx context.Context, system, prompt string) ([]string, error) {
	resp, err := e.deps.LLM.Complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	m, err := jsonextract.Extract(resp)
	if err != nil {
		return nil, err
	}
	return firstList(m, "search_keywords", "keywords"), nil
}

func (e *Engine) generate(ctx context.Context, s State) (Update, error) {
	system, err := e.deps.Prompts.System(prompts.KindGenerate)
	if err != nil {
		return Update{}, err
	}
	info := s.Form.ProjectInfo()
	prompt := prompts.GenerationPrompt(info, s.Requirements, s.Constraints, s.SearchResults)

	doc, err := e.streamDocument(ctx, system, prompt)
	if err == nil && strings.TrimSpace(doc) == "" {
		err = errEmptyDocument
	}
	if err != nil {
		if !degradable(err) && !errors.Is(err, errEmptyDocument) {
			return Update{}, err
		}
		e.deps.Logger.LogFallback(ctx, string(StepGenerate), err)
		fallback := FallbackDocument(info, e.deps.Now())
		return Update{
			Document: &fallback,
			Messages: []string{"fallback document used"},
			Fallback: true,
		}, nil
	}

	return Update{
		Document: &doc,
		Messages: []string{"document generated"},
	}, nil
}

var errEmptyDocument = errors.New("model returned an empty document")

func (e *Engine) streamDocument(ctx context.Context, system, prompt string) (string, error) {
	return llm.Collect(e.deps.LLM.Stream(ctx, system, prompt), e.deps.Output)
}

func (e *Engine) save(_ context.Context, s State) (Update, error) {
	path, err := e.deps.Store.Save(s.Document, s.Form.String(forms.FieldProjectType))
	if err != nil {
		return Update{}, err
	}
	return Update{
		OutputPath: &path,
		Messages:   []string{"document saved: " + path},
	}, nil
}

// firstList reads the first key present as a string list.
func firstList(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return jsonextract.StringSlice(m, k)
		}
	}
	return nil
}
