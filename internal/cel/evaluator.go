// Package cel evaluates CEL expressions against loaded documents. The current
// document is bound to the variable "_".
package cel

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Var is the name the current document is bound to.
const Var = "_"

// interruptEvery is how many comprehension iterations run between context checks.
const interruptEvery = 100

// Evaluator compiles and evaluates CEL expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the standard library and the common
// extensions.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	env, err := newStandardCELEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Environment returns the CEL environment for introspection.
func (e *Evaluator) Environment() *cel.Env {
	return e.env
}

func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable(Var, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Compile parses and checks expr.
func (e *Evaluator) Compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := e.env.Program(ast, cel.InterruptCheckFrequency(interruptEvery))
	if err != nil {
		return nil, err
	}
	return prg, nil
}

// Run evaluates a compiled program with data bound to "_" and converts the
// result to plain Go values.
func Run(ctx context.Context, prg cel.Program, data any) (any, error) {
	result, _, err := prg.ContextEval(ctx, map[string]any{Var: data})
	if err != nil {
		return nil, err
	}
	converted := ToGo(result)
	if refVal, ok := converted.(ref.Val); ok {
		converted = refVal.Value()
	}
	return converted, nil
}

// Evaluate compiles expr and runs it against data.
func (e *Evaluator) Evaluate(ctx context.Context, expr string, data any) (any, error) {
	prg, err := e.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compilation error: %w", err)
	}
	out, err := Run(ctx, prg, data)
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return out, nil
}

// ToGo converts CEL values to Go values recursively. Integers become int so
// results look like decoded JSON.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int(v)
	case types.Uint:
		return int(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return string(v)
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	switch inner := valuer.Value().(type) {
	case []ref.Val:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = fromNative(elem)
		}
		return out
	case map[string]any:
		return fromNative(inner)
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(inner))
		for k, v := range inner {
			out[fmt.Sprint(k.Value())] = ToGo(v)
		}
		return out
	default:
		return inner
	}
}

func fromNative(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, f := range t {
			out[k] = fromNative(f)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromNative(e)
		}
		return out
	default:
		return v
	}
}

// Functions lists the functions and macros of the evaluator's environment as
// "name() - usage" strings, sorted.
func (e *Evaluator) Functions() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 100)
	add := func(entry string) {
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}
	for _, fn := range e.env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(fn.Name() + "() - " + usageFromOverload(fn.Name(), o))
		}
	}
	for _, m := range e.env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		add(m.Function() + "() - macro")
	}
	sort.Strings(out)
	return out
}

// isOperator filters out internal operator-style declarations.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	switch name {
	case "!_", "-_", "@in", "_[_]", "_in_":
		return true
	}
	return false
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	if name := t.TypeName(); name != "" {
		return name
	}
	return "any"
}

func formatParams(params []*types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = typeLabel(p)
	}
	return strings.Join(parts, ", ")
}

// usageFromOverload renders an overload as receiver.name(args) -> result.
func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	call := name + "(" + formatParams(params) + ")"
	if o.IsMemberFunction() && len(params) > 0 {
		call = typeLabel(params[0]) + "." + name + "(" + formatParams(params[1:]) + ")"
	}
	if o.ResultType() == nil {
		return call
	}
	return call + " -> " + typeLabel(o.ResultType())
}
