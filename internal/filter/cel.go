package filter

import (
	"context"

	"github.com/oakwood-commons/jnav/internal/cel"
	"github.com/oakwood-commons/jnav/internal/jsonv"
)

// CEL evaluates CEL expressions with each input bound to "_". Every input
// yields exactly one output.
type CEL struct {
	eval *cel.Evaluator
}

// NewCEL builds the CEL environment.
func NewCEL() (*CEL, error) {
	e, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	return &CEL{eval: e}, nil
}

// Name implements Evaluator.
func (*CEL) Name() string { return "cel" }

// Functions lists the available CEL functions for the help screen.
func (c *CEL) Functions() []string { return c.eval.Functions() }

// Evaluate implements Evaluator.
func (c *CEL) Evaluate(ctx context.Context, query string, inputs []any) ([]any, error) {
	if blank(query) {
		return nil, ErrEmptyQuery
	}
	prg, err := c.eval.Compile(query)
	if err != nil {
		return nil, &Error{Query: query, Phase: PhaseCompile, Err: err}
	}
	out := make([]any, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := cel.Run(ctx, prg, jsonv.PlainFloat(in))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &Error{Query: query, Phase: PhaseRuntime, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
