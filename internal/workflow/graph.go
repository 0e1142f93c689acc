package workflow

import (
	"context"
	"errors"
	"fmt"
)

type StepName string

const (
	StepCollect  StepName = "collect"
	StepAnalyze  StepName = "analyze"
	StepSearch   StepName = "search"
	StepGenerate StepName = "generate"
	StepSave     StepName = "save"
	// StepEnd is the terminal marker; it never runs.
	StepEnd StepName = "end"
)

// Field names a piece of state produced by exactly one step.
type Field int

const (
	FieldForm Field = iota
	FieldAnalysis
	FieldDocument
	FieldOutputPath
)

func (f Field) String() string {
	switch f {
	case FieldForm:
		return "form"
	case FieldAnalysis:
		return "analysis"
	case FieldDocument:
		return "document"
	case FieldOutputPath:
		return "output_path"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Branch is the outcome of the analyze step.
type Branch int

const (
	BranchSearch Branch = iota
	BranchGenerate
)

func (b Branch) String() string {
	switch b {
	case BranchSearch:
		return "search"
	case BranchGenerate:
		return "generate"
	default:
		return fmt.Sprintf("branch(%d)", int(b))
	}
}

// Step is one stage of the pipeline.
type Step struct {
	Name     StepName
	Requires []Field
	Run      func(ctx context.Context, s State) (Update, error)
}

// Graph wires steps together. A step has either an unconditional edge or a
// branch function whose outcome is resolved through Dispatch.
type Graph struct {
	Entry    StepName
	Steps    map[StepName]Step
	Edges    map[StepName]StepName
	Branches map[StepName]func(State) Branch
	Dispatch map[Branch]StepName
}

// ErrStepRepeated is returned when the graph would run a step twice.
var ErrStepRepeated = errors.New("step already ran in this run")

// PrecedenceViolation is returned when a step is reached before the state
// fields it depends on were produced.
type PrecedenceViolation struct {
	Step    StepName
	Missing Field
}

func (e *PrecedenceViolation) Error() string {
	return fmt.Sprintf("step %s requires %s, which no earlier step produced", e.Step, e.Missing)
}

// StepError wraps an error that escaped a step and aborted the run.
type StepError struct {
	Step StepName
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (g *Graph) next(from StepName, s State) (StepName, error) {
	if branch, ok := g.Branches[from]; ok {
		b := branch(s)
		to, ok := g.Dispatch[b]
		if !ok {
			return "", fmt.Errorf("no target for branch %s after %s", b, from)
		}
		return to, nil
	}
	if to, ok := g.Edges[from]; ok {
		return to, nil
	}
	return "", fmt.Errorf("step %s has no outgoing edge", from)
}

func routeAfterAnalyze(s State) Branch {
	if s.NeedsSearch {
		return BranchSearch
	}
	return BranchGenerate
}
