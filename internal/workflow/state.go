package workflow

import (
	"slices"

	"github.com/rahul/stacksmith/internal/forms"
	"github.com/rahul/stacksmith/internal/search"
)

// State is threaded through the steps of one run. Steps receive a copy and
// never mutate it; they return an Update instead.
type State struct {
	Form          forms.Values
	Requirements  []string
	Constraints   []string
	NeedsSearch   bool
	SearchResults []search.Result
	Document      string
	// Step is the most recently completed step.
	Step       StepName
	Messages   []string
	OutputPath string
	// Fallbacks lists the steps that degraded to their fallback value.
	Fallbacks []StepName
}

// Analysis is the output of the analyze step.
type Analysis struct {
	Requirements []string
	Constraints  []string
	NeedsSearch  bool
}

// Update is the partial result of a step. Nil fields are left untouched.
// SearchResults and Messages are appended, everything else replaces.
type Update struct {
	Step          StepName
	Form          forms.Values
	Analysis      *Analysis
	SearchResults []search.Result
	Document      *string
	OutputPath    *string
	Messages      []string
	Fallback      bool
}

func (s State) clone() State {
	s.Form = s.Form.Clone()
	s.Requirements = slices.Clone(s.Requirements)
	s.Constraints = slices.Clone(s.Constraints)
	s.SearchResults = slices.Clone(s.SearchResults)
	s.Messages = slices.Clone(s.Messages)
	s.Fallbacks = slices.Clone(s.Fallbacks)
	return s
}

func (s State) apply(u Update) State {
	out := s.clone()
	if u.Step != "" {
		out.Step = u.Step
	}
	if u.Form != nil {
		out.Form = u.Form.Clone()
	}
	if u.Analysis != nil {
		out.Requirements = slices.Clone(u.Analysis.Requirements)
		out.Constraints = slices.Clone(u.Analysis.Constraints)
		out.NeedsSearch = u.Analysis.NeedsSearch
	}
	if u.Document != nil {
		out.Document = *u.Document
	}
	if u.OutputPath != nil {
		out.OutputPath = *u.OutputPath
	}
	out.SearchResults = append(out.SearchResults, u.SearchResults...)
	out.Messages = append(out.Messages, u.Messages...)
	if u.Fallback && u.Step != "" {
		out.Fallbacks = append(out.Fallbacks, u.Step)
	}
	return out
}

// produces reports the state fields an update fills in.
func (u Update) produces() []Field {
	var fields []Field
	if u.Form != nil {
		fields = append(fields, FieldForm)
	}
	if u.Analysis != nil {
		fields = append(fields, FieldAnalysis)
	}
	if u.Document != nil {
		fields = append(fields, FieldDocument)
	}
	if u.OutputPath != nil {
		fields = append(fields, FieldOutputPath)
	}
	return fields
}
