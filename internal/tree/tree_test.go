package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jnav/internal/jsonv"
	"github.com/oakwood-commons/jnav/pkg/loader"
)

func parse(t *testing.T, input string) []any {
	t.Helper()
	res, err := loader.Load(strings.NewReader(input), loader.Options{Format: loader.FormatJSON})
	require.NoError(t, err)
	return res.Documents
}

func labels(tr *Tree) []string {
	var out []string
	for _, r := range tr.Flatten() {
		out = append(out, tr.Label(r))
	}
	return out
}

func TestFlattenExpandDepth(t *testing.T) {
	docs := parse(t, `{"a":1,"b":[1,2,3]}`)
	tr := Build(docs, Options{ExpandDepth: 1, LimitLength: 50})
	assert.Equal(t, []string{"{", "a: 1", "b: [", "0: 1", "1: 2", "2: 3"}, labels(tr))

	tr = Build(docs, Options{ExpandDepth: 0, LimitLength: 50})
	assert.Equal(t, []string{"{", "a: 1", "b: […]"}, labels(tr))

	tr = Build(docs, Options{ExpandDepth: -1})
	assert.Equal(t, []string{"{…}"}, labels(tr))
}

func TestFlattenDepths(t *testing.T) {
	tr := Build(parse(t, `{"a":{"b":{"c":1}}}`), Options{ExpandDepth: 10})
	rows := tr.Flatten()
	require.Len(t, rows, 4)
	for i, r := range rows {
		assert.Equal(t, i, r.Depth)
	}
}

func TestArrayRowLimit(t *testing.T) {
	arr := make([]any, 100)
	for i := range arr {
		arr[i] = i
	}
	tr := Build([]any{arr}, Options{ExpandDepth: 0, LimitLength: 50})
	rows := tr.Flatten()
	require.Len(t, rows, 1+50+1)

	last := rows[len(rows)-1]
	assert.Equal(t, RowTruncated, last.Kind)
	assert.Equal(t, 50, last.Omitted)
	assert.Equal(t, 1, last.Depth)
	assert.Equal(t, "… 50 more", tr.Label(last))

	root := tr.Node(tr.Roots()[0])
	assert.Equal(t, 100, root.Len)
	assert.Len(t, root.Children, 50)
}

func TestArrayAtLimitHasNoSummary(t *testing.T) {
	tr := Build([]any{[]any{1, 2}}, Options{ExpandDepth: 0, LimitLength: 2})
	for _, r := range tr.Flatten() {
		assert.Equal(t, RowNode, r.Kind)
	}
}

func TestToggleRestoresRows(t *testing.T) {
	tr := Build(parse(t, `{"a":{"x":[1,2]},"b":[{"c":true}]}`), Options{ExpandDepth: 5})
	before := tr.Flatten()

	for _, r := range before {
		if !tr.Node(r.ID).Kind.IsContainer() {
			continue
		}
		require.True(t, tr.Toggle(r.ID))
		assert.Less(t, len(tr.Flatten()), len(before))
		require.True(t, tr.Toggle(r.ID))
		assert.Equal(t, before, tr.Flatten())
	}
}

func TestToggleScalar(t *testing.T) {
	tr := Build([]any{"x"}, Options{})
	assert.False(t, tr.Toggle(tr.Roots()[0]))
}

func TestFlattenCountsReachableNodes(t *testing.T) {
	tr := Build(parse(t, `{"a":[1,{"b":2}],"c":{"d":null}}`), Options{ExpandDepth: 5})
	assert.Len(t, tr.Flatten(), tr.Len())

	tr.CollapseAll()
	assert.Len(t, tr.Flatten(), 1, "root row stays")

	tr.ExpandAll()
	assert.Len(t, tr.Flatten(), tr.Len())
}

func TestMultipleRoots(t *testing.T) {
	tr := Build(parse(t, "1\n{\"a\":2}\n"), Options{ExpandDepth: 0})
	assert.Equal(t, []string{"1", "{", "a: 2"}, labels(tr))
	assert.Len(t, tr.Values(), 2)
}

func TestPathOf(t *testing.T) {
	tr := Build(parse(t, `{"items":[{"content-type":"x","name":"y"}]}`), Options{ExpandDepth: 5})
	got := map[string]bool{}
	for _, r := range tr.Flatten() {
		got[tr.PathOf(r.ID)] = true
	}
	for _, want := range []string{".", ".items", ".items[0]", `.items[0]."content-type"`, ".items[0].name"} {
		assert.True(t, got[want], "missing %s", want)
	}

	arr := Build([]any{[]any{1}}, Options{ExpandDepth: 1})
	assert.Equal(t, ".[0]", arr.PathOf(arr.Node(arr.Roots()[0]).Children[0]))
}

func TestLabelEmptyContainersAndStrings(t *testing.T) {
	o := jsonv.NewObject()
	o.Set("e", []any{})
	o.Set("s", "<b>")
	tr := Build([]any{o}, Options{ExpandDepth: 0})
	assert.Equal(t, []string{"{", "e: []", `s: "<b>"`}, labels(tr))
}

func TestNumberLiteralsShownAsWritten(t *testing.T) {
	docs := parse(t, `{"big":98765432109876543210,"one":1.0,"huge":1e400,"half":0.5}`)
	tr := Build(docs, Options{ExpandDepth: 1})
	assert.Equal(t, []string{"{", "big: 98765432109876543210", "one: 1.0", "huge: 1e400", "half: 0.5"}, labels(tr))
}
