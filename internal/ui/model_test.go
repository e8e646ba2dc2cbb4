package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jnav/internal/completion"
	"github.com/oakwood-commons/jnav/internal/config"
	"github.com/oakwood-commons/jnav/internal/filter"
	"github.com/oakwood-commons/jnav/internal/reactive"
	"github.com/oakwood-commons/jnav/pkg/loader"
)

const sample = `{"a":1,"b":[1,2,3]}`

// countingEvaluator records every query that reaches the engine.
type countingEvaluator struct {
	next filter.Evaluator
	mu   sync.Mutex
	seen []string
}

func (c *countingEvaluator) Name() string { return c.next.Name() }

func (c *countingEvaluator) Evaluate(ctx context.Context, q string, inputs []any) ([]any, error) {
	c.mu.Lock()
	c.seen = append(c.seen, q)
	c.mu.Unlock()
	return c.next.Evaluate(ctx, q, inputs)
}

func (c *countingEvaluator) queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.seen...)
}

type harness struct {
	t     *testing.T
	m     *Model
	clock *reactive.FakeClock
	eval  *countingEvaluator
	cfg   config.Config
}

func newHarness(t *testing.T, input string, cached bool) *harness {
	t.Helper()
	return buildHarness(t, input, cached, nil)
}

// buildHarness is newHarness with every engine call held until release is
// closed, when release is not nil.
func buildHarness(t *testing.T, input string, cached bool, release chan struct{}) *harness {
	t.Helper()
	res, err := loader.Load(strings.NewReader(input), loader.Options{})
	require.NoError(t, err)
	cfg, err := config.Default()
	require.NoError(t, err)

	var engine filter.Evaluator = filter.NewJQ()
	if release != nil {
		engine = &gateEvaluator{next: engine, release: release}
	}
	h := &harness{t: t, clock: reactive.NewFakeClock(), eval: &countingEvaluator{next: engine}, cfg: cfg}
	var ev filter.Evaluator = h.eval
	if cached {
		c, err := filter.NewCache(h.eval, 16)
		require.NoError(t, err)
		t.Cleanup(c.Close)
		ev = c
	}
	m, err := New(Options{
		Config:    cfg,
		Inputs:    res.Documents,
		Evaluator: ev,
		Clock:     h.clock,
		NoColor:   true,
		Width:     60,
		Height:    12,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	h.m = m
	return h
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func (h *harness) press(code rune, mod tea.KeyMod) {
	h.m.Update(tea.KeyPressMsg{Code: code, Mod: mod})
}

// settle lets the debounce elapse, waits for background work and feeds the
// resulting events to the model.
func (h *harness) settle() {
	h.clock.Advance(h.cfg.Reactivity.QueryDebounce.Std())
	h.drain()
}

func (h *harness) drain() {
	h.m.ch.wait()
	h.pump()
}

// pump feeds the events already delivered to the model without waiting for
// background work.
func (h *harness) pump() {
	for {
		select {
		case msg := <-h.m.ch.events:
			h.m.Update(msg)
		default:
			return
		}
	}
}

func (h *harness) labels() []string {
	out := make([]string, len(h.m.rows))
	for i, r := range h.m.rows {
		out[i] = h.m.tree.Label(r)
	}
	return out
}

func TestNewRequiresEvaluator(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestInitialTreeShowsInputs(t *testing.T) {
	h := newHarness(t, sample, false)
	assert.Equal(t, []string{"{", "a: 1", "b: [", "0: 1", "1: 2", "2: 3"}, h.labels())
	assert.Equal(t, 10, h.m.win.Capacity())
}

func TestTypingWithinDebounceEvaluatesOnce(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".a")
	h.clock.Advance(100 * time.Millisecond)
	h.typeText("b")
	h.settle()

	assert.Equal(t, []string{".ab"}, h.eval.queries())
	assert.Equal(t, reactive.Settled, h.m.ch.query.State())
}

func TestSuccessfulQueryReplacesTree(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".b")
	h.settle()
	assert.Equal(t, []string{"[", "0: 1", "1: 2", "2: 3"}, h.labels())
	assert.Empty(t, h.m.hint.text)
}

func TestFailedQueryKeepsPreviousTree(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".b")
	h.settle()
	before := h.labels()

	h.typeText(" | .c[")
	h.settle()

	assert.Equal(t, before, h.labels())
	assert.Equal(t, hintError, h.m.hint.level)
	assert.Contains(t, h.m.hint.text, "Failed to execute jq query '.b | .c['")

	_, err := filter.NewJQ().Evaluate(context.Background(), ".b | .c[", h.m.opts.Inputs)
	var ferr *filter.Error
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, h.m.hint.text, ferr.Err.Error(), "the engine's reason is shown")
	assert.Equal(t, reactive.Errored, h.m.ch.query.State())
}

func TestTypoHints(t *testing.T) {
	tests := []struct {
		name  string
		query string
		level hintLevel
		want  string
	}{
		{name: "empty", query: "empty", level: hintError, want: "no results were returned"},
		{name: "null", query: ".missing", level: hintWarning, want: "resulted in 'null'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, sample, false)
			before := h.labels()
			h.typeText(tt.query)
			h.settle()
			assert.Equal(t, before, h.labels())
			assert.Equal(t, tt.level, h.m.hint.level)
			assert.Contains(t, h.m.hint.text, tt.want)
		})
	}
}

func TestNoHintSuppressesMessages(t *testing.T) {
	h := newHarness(t, sample, false)
	h.m.opts.NoHint = true
	h.typeText(".missing")
	h.settle()
	assert.Empty(t, h.m.hint.text)
}

func TestCachedQueryAppliesImmediately(t *testing.T) {
	h := newHarness(t, sample, true)
	h.typeText(".a")
	h.settle()
	require.Equal(t, []string{".a"}, h.eval.queries())

	h.press('u', tea.ModCtrl)
	assert.Equal(t, "", h.m.Query())
	assert.Len(t, h.m.rows, 6, "a blank query shows the inputs")

	h.typeText(".a")
	assert.Equal(t, []string{"1"}, h.labels())
	assert.Contains(t, h.m.hint.text, "retrieved from cache")
	h.settle()
	assert.Equal(t, []string{".a"}, h.eval.queries(), "cache hit must not reach the engine")
}

func TestStaleResultIsDiscarded(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".a")
	h.settle()
	applied := h.labels()

	h.typeText("x")
	gen := h.m.ch.query.Generation()
	stale := reactive.Event[[]any]{Channel: queryChannel, Kind: reactive.Finished, Generation: gen - 1, Value: []any{"stale"}}
	h.m.Update(queryEventMsg(stale))
	assert.Equal(t, applied, h.labels())
}

func TestSuggestionCycleAndAccept(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".b[")
	h.settle()

	h.press(tea.KeyTab, 0)
	require.Equal(t, completion.Suggesting, h.m.session.Mode())
	c, _, ok := h.m.session.Active()
	require.True(t, ok)
	assert.Equal(t, "[0]", c.Text)
	assert.Equal(t, ".b[", h.m.Query(), "cycling leaves the buffer alone")

	h.press(tea.KeyTab, 0)
	h.press(tea.KeyEnter, 0)
	assert.Equal(t, completion.Editing, h.m.session.Mode())
	assert.Equal(t, ".b[1]", h.m.Query())
	assert.Equal(t, 5, h.m.buf.Cursor())
}

func TestSuggestionWrapsBackwards(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".b[")
	h.settle()
	h.press(tea.KeyTab, 0)
	h.press(tea.KeyTab, tea.ModShift)
	c, idx, ok := h.m.session.Active()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "[2]", c.Text)
}

func TestOtherKeyCancelsSuggestionsAndEdits(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".b[")
	h.settle()
	h.press(tea.KeyTab, 0)
	h.press(tea.KeyTab, 0)

	h.typeText("2")
	assert.Equal(t, completion.Editing, h.m.session.Mode())
	assert.Equal(t, ".b[2", h.m.Query())
}

func TestSuggestionsComputedOnDemand(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".")
	h.press(tea.KeyTab, 0)
	assert.Equal(t, completion.Editing, h.m.session.Mode(), "opens once the completion settles")
	h.settle()
	require.Equal(t, completion.Suggesting, h.m.session.Mode())
	c, _, _ := h.m.session.Active()
	assert.Equal(t, ".", c.Text)
}

func TestNoSuggestionHint(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".zzz")
	h.settle()
	h.press(tea.KeyTab, 0)
	assert.Equal(t, completion.Editing, h.m.session.Mode())
	assert.Contains(t, h.m.hint.text, "No suggestion found for 'zzz'")
}

func TestFocusAndViewerNavigation(t *testing.T) {
	h := newHarness(t, sample, false)
	h.press(tea.KeyDown, tea.ModShift)
	require.Equal(t, FocusViewer, h.m.Focus())

	h.typeText("j")
	h.typeText("j")
	assert.Equal(t, 2, h.m.win.Cursor())
	path, ok := h.m.cursorPath()
	require.True(t, ok)
	assert.Equal(t, ".b", path)

	h.press(tea.KeyEnter, 0)
	assert.Equal(t, []string{"{", "a: 1", "b: […]"}, h.labels(), "folding b hides its elements")
	h.press(tea.KeyEnter, 0)
	assert.Len(t, h.m.rows, 6)

	h.press('p', tea.ModCtrl)
	assert.Len(t, h.m.rows, 1)
	h.press('n', tea.ModCtrl)
	assert.Len(t, h.m.rows, 6)

	h.typeText("G")
	assert.Equal(t, 5, h.m.win.Cursor())
	h.typeText("g")
	h.typeText("g")
	assert.Equal(t, 0, h.m.win.Cursor())

	h.typeText("x")
	assert.Equal(t, "", h.m.Query(), "viewer keys never reach the editor")
}

func TestResizeIsDebounced(t *testing.T) {
	h := newHarness(t, sample, false)
	h.m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	h.m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 60, h.m.width)

	h.clock.Advance(h.cfg.Reactivity.ResizeDebounce.Std())
	h.drain()
	assert.Equal(t, 120, h.m.width)
	assert.Equal(t, 38, h.m.win.Capacity())
}

func TestIncrementNearestInteger(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".b[0]")
	h.press(tea.KeyUp, tea.ModAlt)
	h.press(tea.KeyUp, tea.ModAlt)
	assert.Equal(t, ".b[2]", h.m.Query())
	h.settle()
	assert.Equal(t, []string{"3"}, h.labels())
	h.press(tea.KeyDown, tea.ModAlt)
	assert.Equal(t, ".b[1]", h.m.Query())
}

func TestClipboardActions(t *testing.T) {
	var copied []string
	restore := StubPlatformActions(func(s string) error {
		copied = append(copied, s)
		return nil
	})
	defer restore()

	h := newHarness(t, `{"a":{"b":1}}`, false)
	h.typeText(".a")
	h.press('q', tea.ModCtrl)
	h.press('o', tea.ModCtrl)
	assert.Contains(t, h.m.hint.text, "in progress", "content copy is refused while evaluating")

	h.settle()
	h.press('o', tea.ModCtrl)
	h.press(tea.KeyDown, tea.ModShift)
	h.typeText("j")
	h.press('y', tea.ModCtrl)

	assert.Equal(t, []string{".a", "{\n  \"b\": 1\n}", ".b"}, copied)
	assert.Contains(t, h.m.hint.text, "Copied path")
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t, sample, false)
	h.press(tea.KeyF1, 0)
	require.True(t, h.m.helpVisible)
	out := h.m.render()
	assert.Contains(t, out, "Global")
	assert.Contains(t, out, "ctrl+c")

	h.press(tea.KeyEscape, 0)
	assert.False(t, h.m.helpVisible)
}

func TestQuit(t *testing.T) {
	h := newHarness(t, sample, false)
	_, cmd := h.m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderShowsPromptRowsAndFooter(t *testing.T) {
	h := newHarness(t, sample, false)
	h.typeText(".b")
	h.settle()
	lines := strings.Split(h.m.render(), "\n")
	require.Len(t, lines, 12)
	assert.Contains(t, lines[0], ".b")
	assert.Contains(t, lines[1], "[")
	assert.Contains(t, lines[11], "1/4 INS")
}

// gateEvaluator holds every evaluation until release is closed.
type gateEvaluator struct {
	next    filter.Evaluator
	release chan struct{}
}

func (g *gateEvaluator) Name() string { return g.next.Name() }

func (g *gateEvaluator) Evaluate(ctx context.Context, q string, inputs []any) ([]any, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.next.Evaluate(ctx, q, inputs)
}

func TestSpinnerShownWhileEvaluating(t *testing.T) {
	res, err := loader.Load(strings.NewReader(sample), loader.Options{})
	require.NoError(t, err)
	cfg, err := config.Default()
	require.NoError(t, err)
	clock := reactive.NewFakeClock()
	gate := &gateEvaluator{next: filter.NewJQ(), release: make(chan struct{})}

	m, err := New(Options{Config: cfg, Inputs: res.Documents, Evaluator: gate, Clock: clock, NoColor: true, Width: 60, Height: 12})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})

	for _, r := range ".a" {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	clock.Advance(cfg.Reactivity.QueryDebounce.Std())
	for pending := true; pending; {
		select {
		case msg := <-m.ch.events:
			m.Update(msg)
		default:
			pending = false
		}
	}
	require.Equal(t, reactive.Evaluating, m.ch.query.State())
	assert.True(t, m.spinning)
	frame := m.spinner.View()
	assert.Contains(t, m.renderPrompt(), frame)

	close(gate.release)
	m.ch.wait()
	for pending := true; pending; {
		select {
		case msg := <-m.ch.events:
			m.Update(msg)
		default:
			pending = false
		}
	}
	assert.Equal(t, reactive.Settled, m.ch.query.State())
	assert.NotContains(t, m.renderPrompt(), frame)

	m.Update(spinner.TickMsg{})
	assert.False(t, m.spinning)
}

func TestRetypedQueryAfterCancelledEvaluation(t *testing.T) {
	release := make(chan struct{})
	h := buildHarness(t, sample, true, release)
	debounce := h.cfg.Reactivity.QueryDebounce.Std()

	h.typeText(".a")
	h.clock.Advance(debounce)
	h.pump()
	require.Eventually(t, func() bool { return len(h.eval.queries()) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, reactive.Evaluating, h.m.ch.query.State())

	h.typeText("x")
	h.press(tea.KeyBackspace, 0)
	require.Equal(t, ".a", h.m.Query())
	h.clock.Advance(debounce)

	// The abandoned call must not be reused for the same text.
	require.Eventually(t, func() bool { return len(h.eval.queries()) == 2 }, time.Second, time.Millisecond)
	close(release)
	h.drain()

	assert.Equal(t, reactive.Settled, h.m.ch.query.State())
	assert.Equal(t, []string{"1"}, h.labels())
	assert.Empty(t, h.m.hint.text)
}

func TestFilteredResultKeepsDocumentKeyOrder(t *testing.T) {
	h := newHarness(t, `{"zeta":1,"alpha":{"y":true,"x":false}}`, true)
	h.typeText(".")
	h.settle()
	assert.Equal(t, []string{"{", "zeta: 1", "alpha: {", "y: true", "x: false"}, h.labels())

	h.typeText("alpha")
	h.settle()
	assert.Equal(t, []string{"{", "y: true", "x: false"}, h.labels())

	h.press('u', tea.ModCtrl)
	h.typeText(".")
	assert.Contains(t, h.m.hint.text, "retrieved from cache")
	assert.Equal(t, []string{"{", "zeta: 1", "alpha: {", "y: true", "x: false"}, h.labels())
}

func TestSkippedDocumentsNotice(t *testing.T) {
	res, err := loader.Load(strings.NewReader("{\"a\": 1}\n{\"b\": oops}\n"), loader.Options{})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	cfg, err := config.Default()
	require.NoError(t, err)
	clock := reactive.NewFakeClock()

	m, err := New(Options{
		Config:    cfg,
		Inputs:    res.Documents,
		Skipped:   res.Skipped,
		Evaluator: filter.NewJQ(),
		Query:     ".",
		Clock:     clock,
		NoColor:   true,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	h := &harness{t: t, m: m, clock: clock, cfg: cfg}

	assert.Equal(t, hintWarning, m.hint.level)
	assert.Contains(t, m.hint.text, "Skipped 1 malformed document")
	assert.Contains(t, m.hint.text, res.Skipped[0].Error())

	m.Init()
	h.drain()
	assert.Equal(t, reactive.Settled, m.ch.query.State())
	assert.Contains(t, m.hint.text, "Skipped 1 malformed document", "the initial result keeps the notice")

	h.typeText("a")
	h.settle()
	assert.Equal(t, []string{"1"}, h.labels())
	assert.Empty(t, m.hint.text)
}
