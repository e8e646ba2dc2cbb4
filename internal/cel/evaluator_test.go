package cel

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		data any
		want any
	}{
		{"access field", "_.name", map[string]any{"name": "test"}, "test"},
		{"access number", "_.count", map[string]any{"count": 42}, 42},
		{"array index", "_[0]", []any{"first", "second"}, "first"},
		{"boolean", "_.active", map[string]any{"active": true}, true},
		{"nested field", "_.user.email", map[string]any{"user": map[string]any{"email": "a@b.c"}}, "a@b.c"},
		{"filter", "_.filter(x, x > 1)", []any{1, 2, 3}, []any{2, 3}},
		{"map", "_.map(x, {'v': x})", []any{1}, []any{map[string]any{"v": 1}}},
		{"null", "_.missing_ok", map[string]any{"missing_ok": nil}, nil},
		{"string ext", "_.name.upperAscii()", map[string]any{"name": "ab"}, "AB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(context.Background(), tt.expr, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.Compile("_.a ==")
	require.Error(t, err)

	_, err = eval.Evaluate(context.Background(), "_.a", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eval error")
}

func TestRunHonoursCancellation(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	prg, err := eval.Compile("_.all(x, _.all(y, x + y >= 0))")
	require.NoError(t, err)

	big := make([]any, 2000)
	for i := range big {
		big[i] = i
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, prg, big)
	assert.Error(t, err)
}

func TestFunctionsSkipOperators(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	funcs := eval.Functions()
	assert.Greater(t, len(funcs), 10)
	for _, f := range funcs {
		assert.False(t, strings.HasPrefix(f, "@"), f)
		assert.False(t, strings.HasPrefix(f, "_"), f)
	}
	assert.True(t, containsPrefix(funcs, "size()"))
}

func containsPrefix(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
