package filter

import (
	"context"
	"errors"

	"github.com/itchyny/gojq"

	"github.com/oakwood-commons/jnav/internal/jsonv"
)

// JQ evaluates jq programs with gojq.
type JQ struct{}

// NewJQ returns the jq evaluator.
func NewJQ() *JQ { return &JQ{} }

// Name implements Evaluator.
func (*JQ) Name() string { return "jq" }

// Evaluate runs query against each input in turn. gojq checks ctx between
// outputs, so a cancelled evaluation returns promptly.
func (*JQ) Evaluate(ctx context.Context, query string, inputs []any) ([]any, error) {
	if blank(query) {
		return nil, ErrEmptyQuery
	}
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, &Error{Query: query, Phase: PhaseParse, Err: err}
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, &Error{Query: query, Phase: PhaseCompile, Err: err}
	}

	var out []any
	for _, in := range inputs {
		iter := code.RunWithContext(ctx, jsonv.Plain(in))
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				var halt *gojq.HaltError
				if errors.As(err, &halt) && halt.Value() == nil {
					return out, nil
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, &Error{Query: query, Phase: PhaseRuntime, Err: err}
			}
			out = append(out, v)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
