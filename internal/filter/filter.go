// Package filter runs user queries against the loaded documents. The jq
// engine is the default; CEL is available as an alternative. Results for a
// query can be cached since the inputs are fixed for a session.
package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Evaluator runs a query against every input and returns all outputs in
// order.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, query string, inputs []any) ([]any, error)
}

// ErrEmptyQuery is returned for a query that is blank.
var ErrEmptyQuery = errors.New("empty query")

// Phase says where a query failed.
type Phase int

const (
	PhaseParse Phase = iota
	PhaseCompile
	PhaseRuntime
)

func (p Phase) String() string {
	switch p {
	case PhaseCompile:
		return "compile"
	case PhaseRuntime:
		return "runtime"
	default:
		return "parse"
	}
}

// Error is a failed evaluation. It never aborts the session.
type Error struct {
	Query string
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in %q: %v", e.Phase, e.Query, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome classifies a successful result for hinting.
type Outcome int

const (
	OutcomeValues Outcome = iota
	// OutcomeEmpty means the query produced no outputs.
	OutcomeEmpty
	// OutcomeAllNull means every output was null.
	OutcomeAllNull
)

// Classify inspects a result.
func Classify(values []any) Outcome {
	if len(values) == 0 {
		return OutcomeEmpty
	}
	for _, v := range values {
		if v != nil {
			return OutcomeValues
		}
	}
	return OutcomeAllNull
}

// New returns the evaluator for an engine name ("jq" or "cel").
func New(engine string) (Evaluator, error) {
	switch strings.ToLower(engine) {
	case "", "jq":
		return NewJQ(), nil
	case "cel":
		return NewCEL()
	default:
		return nil, fmt.Errorf("unknown filter engine %q (expected jq or cel)", engine)
	}
}

func blank(query string) bool { return strings.TrimSpace(query) == "" }
