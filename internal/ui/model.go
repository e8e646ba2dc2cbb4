// Package ui is the interactive terminal front end: a Bubble Tea model that
// ties the query editor, the JSON tree viewer, suggestions and the reactive
// evaluation channels together.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jnav/internal/completion"
	"github.com/oakwood-commons/jnav/internal/config"
	"github.com/oakwood-commons/jnav/internal/editor"
	"github.com/oakwood-commons/jnav/internal/filter"
	"github.com/oakwood-commons/jnav/internal/jsonv"
	"github.com/oakwood-commons/jnav/internal/keymap"
	"github.com/oakwood-commons/jnav/internal/reactive"
	"github.com/oakwood-commons/jnav/internal/tree"
	"github.com/oakwood-commons/jnav/internal/view"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeRows is the prompt line plus the footer line.
	chromeRows = 2
)

// Focus selects the pane that receives non-global keys.
type Focus int

const (
	FocusEditor Focus = iota
	FocusViewer
)

type hintLevel int

const (
	hintInfo hintLevel = iota
	hintSuccess
	hintWarning
	hintError
)

type hint struct {
	text  string
	level hintLevel
}

// Options configures a Model.
type Options struct {
	Config  config.Config
	Keymaps keymap.Set
	// Inputs are the loaded documents; queries run against all of them.
	Inputs    []any
	Evaluator filter.Evaluator
	// Functions lists the engine's built-ins for the help screen.
	Functions []string
	// Query is the initial query text.
	Query   string
	// Skipped are the input documents the loader could not parse. They are
	// reported in a notice that stays until the query is first edited.
	Skipped []error
	NoHint  bool
	NoColor bool
	Clock   reactive.Clock
	Logger  logr.Logger
	Width   int
	Height  int
}

// Model is the Bubble Tea model of a jnav session.
type Model struct {
	opts   Options
	cfg    config.Config
	log    logr.Logger
	styles styles

	buf     *editor.Buffer
	tree    *tree.Tree
	rows    []tree.Row
	win     *view.Window
	engine  *completion.Engine
	session *completion.Session
	cache   *filter.Cache
	// order restores document key order in engine results.
	order jsonv.KeyOrder

	ch       *channels
	dispatch map[keymap.Scope]*keymap.Dispatcher
	spinner  spinner.Model
	spinning bool

	focus  Focus
	hint   hint
	notice hint
	// lastQuery is the text most recently handed to the query channel.
	lastQuery string
	// lastCompletion is the latest settled completion, reused while the
	// cursor and text are unchanged.
	lastCompletion *completionOutcome
	// wantSuggestions opens the list when the pending completion settles.
	wantSuggestions bool

	helpVisible bool
	helpLines   []string
	helpOffset  int

	width, height int
	// sized is set once the terminal reported its size.
	sized    bool
	quitting bool
}

// New builds a model showing the inputs unfiltered.
func New(opts Options) (*Model, error) {
	if opts.Evaluator == nil {
		return nil, errors.New("ui: an evaluator is required")
	}
	if opts.Clock == nil {
		opts.Clock = reactive.RealClock()
	}
	if opts.Keymaps == nil {
		opts.Keymaps = keymap.Defaults()
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	cfg := opts.Config

	m := &Model{
		opts:    opts,
		cfg:     cfg,
		log:     opts.Logger,
		styles:  newStyles(DefaultTheme(), opts.NoColor),
		buf:     editor.New(cfg.EditMode(), cfg.WordBreaks()),
		engine:  completion.NewEngine(opts.Inputs, completion.Options{LoadChunk: cfg.Completion.SearchLoadChunkSize, ResultChunk: cfg.Completion.SearchResultChunkSize}),
		session: completion.NewSession(cfg.Completion.Suggestions),
		order:   jsonv.NewKeyOrder(opts.Inputs),
		width:   opts.Width,
		height:  opts.Height,
	}
	if c, ok := opts.Evaluator.(*filter.Cache); ok {
		m.cache = c
	}
	m.dispatch = map[keymap.Scope]*keymap.Dispatcher{
		keymap.ScopeGlobal: keymap.NewDispatcher(opts.Keymaps[keymap.ScopeGlobal]),
		keymap.ScopeEditor: keymap.NewDispatcher(opts.Keymaps[keymap.ScopeEditor]),
		keymap.ScopeViewer: keymap.NewDispatcher(opts.Keymaps[keymap.ScopeViewer]),
	}

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Spinner{Frames: spinner.Dot.Frames, FPS: cfg.Reactivity.SpinnerInterval.Std()}

	m.win = view.New(0, m.treeCapacity())
	m.showValues(opts.Inputs)
	m.buf.InsertString(opts.Query)
	if n := len(opts.Skipped); n > 0 {
		m.setHint(hintWarning, "Skipped %d malformed document(s): %v", n, opts.Skipped[0])
		m.notice = m.hint
	}
	m.ch = newChannels(m)
	return m, nil
}

// Init starts listening for channel events and evaluates the initial query.
func (m *Model) Init() tea.Cmd {
	m.evaluate()
	return m.ch.listen()
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s := size{width: msg.Width, height: msg.Height}
		if !m.sized {
			m.sized = true
			m.applySize(s)
			return m, nil
		}
		m.ch.resize.Trigger(s)
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		if m.ch.query.State() != reactive.Evaluating {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case queryEventMsg:
		return m, tea.Batch(m.onQueryEvent(reactive.Event[[]any](msg)), m.ch.listen())

	case resizeEventMsg:
		ev := reactive.Event[size](msg)
		if ev.Kind == reactive.Finished && m.ch.resize.Reconcile(ev) {
			m.applySize(ev.Value)
		}
		return m, m.ch.listen()

	case completionEventMsg:
		m.onCompletionEvent(reactive.Event[completionOutcome](msg))
		return m, m.ch.listen()
	}
	return m, nil
}

// Close stops all background work.
func (m *Model) Close() { m.ch.close() }

// Query returns the current query text.
func (m *Model) Query() string { return m.buf.Text() }

// Focus returns the focused pane.
func (m *Model) Focus() Focus { return m.focus }

func (m *Model) treeCapacity() int {
	return max(1, m.height-chromeRows)
}

func (m *Model) applySize(s size) {
	m.width, m.height = s.width, s.height
	m.win.Resize(m.treeCapacity())
	if m.helpVisible {
		m.refreshHelp()
	}
}

// showValues replaces the tree. Fold state starts from the configured depth.
func (m *Model) showValues(values []any) {
	m.tree = tree.Build(values, tree.Options{
		ExpandDepth: m.cfg.Viewer.ExpandDepth,
		LimitLength: m.cfg.Viewer.LimitLength,
	})
	m.rows = m.tree.Flatten()
	m.win.Reset()
	m.win.SetRows(len(m.rows))
}

// refreshRows re-flattens after a fold change, keeping the cursor row.
func (m *Model) refreshRows() {
	m.rows = m.tree.Flatten()
	m.win.SetRows(len(m.rows))
}

func (m *Model) setHint(level hintLevel, format string, args ...any) {
	if m.opts.NoHint {
		return
	}
	m.hint = hint{text: fmt.Sprintf(format, args...), level: level}
}

// clearHint falls back to the startup notice, if one is still up.
func (m *Model) clearHint() { m.hint = m.notice }

func (m *Model) evaluating() bool {
	st := m.ch.query.State()
	return st == reactive.Debouncing || st == reactive.Evaluating
}

// textChanged reacts to an edit of the query text: suggestions are dropped,
// completion is prefetched and the query is scheduled.
func (m *Model) textChanged() {
	m.notice = hint{}
	m.session.Close()
	m.lastCompletion = nil
	m.wantSuggestions = false
	m.ch.complete.Trigger(m.completionRequest())

	q := m.buf.Text()
	if q == m.lastQuery {
		return
	}
	m.lastQuery = q
	if m.applyShortcut(q) {
		return
	}
	m.ch.query.Trigger(q)
}

// evaluate runs the current query without waiting for the debounce.
func (m *Model) evaluate() {
	q := m.buf.Text()
	m.lastQuery = q
	if m.applyShortcut(q) {
		return
	}
	m.ch.query.Run(q)
}

// applyShortcut settles queries that need no evaluation: a blank query shows
// the inputs and a cached query is applied at once.
func (m *Model) applyShortcut(q string) bool {
	if strings.TrimSpace(q) == "" {
		m.ch.query.Supersede()
		m.showValues(m.opts.Inputs)
		m.clearHint()
		return true
	}
	if m.cache == nil {
		return false
	}
	values, ok := m.cache.Lookup(q)
	if !ok {
		return false
	}
	m.ch.query.Supersede()
	m.applyResult(q, m.order.ApplyAll(values), true)
	return true
}

func (m *Model) onQueryEvent(ev reactive.Event[[]any]) tea.Cmd {
	if !m.ch.query.Reconcile(ev) {
		return nil
	}
	if ev.Kind == reactive.Started {
		if m.spinning {
			return nil
		}
		m.spinning = true
		return m.spinner.Tick
	}
	q := m.lastQuery
	if ev.Err != nil {
		reason := ev.Err.Error()
		var ferr *filter.Error
		if errors.As(ev.Err, &ferr) {
			reason = ferr.Err.Error()
			m.log.V(1).Info("query failed", "query", q, "phase", ferr.Phase.String(), "error", reason)
		} else {
			m.log.V(1).Info("query failed", "query", q, "error", reason)
		}
		m.setHint(hintError, "Failed to execute %s query '%s': %s", m.opts.Evaluator.Name(), q, reason)
		return nil
	}
	m.applyResult(q, ev.Value, false)
	return nil
}

// applyResult shows values unless they look like the product of a typo, in
// which case the previous tree stays and a hint explains why.
func (m *Model) applyResult(q string, values []any, cached bool) {
	switch filter.Classify(values) {
	case filter.OutcomeEmpty:
		m.setHint(hintError, "JSON query ('%s') was executed, but no results were returned.", q)
		return
	case filter.OutcomeAllNull:
		m.setHint(hintWarning, "JSON query resulted in 'null', which may indicate a typo or incorrect query: '%s'", q)
		return
	}
	m.showValues(values)
	if cached {
		m.setHint(hintInfo, "JSON query ('%s') was already executed. Result was retrieved from cache.", q)
		return
	}
	m.clearHint()
}

func (m *Model) completionRequest() completionRequest {
	before, _ := m.buf.Split()
	return completionRequest{text: before, cursor: m.buf.Cursor()}
}

// requestSuggestions opens the suggestion list, computing it first when the
// latest completion does not match the text before the cursor.
func (m *Model) requestSuggestions() {
	req := m.completionRequest()
	if m.lastCompletion != nil && m.lastCompletion.request == req {
		m.openSuggestions(*m.lastCompletion)
		return
	}
	m.wantSuggestions = true
	m.ch.complete.Run(req)
}

func (m *Model) onCompletionEvent(ev reactive.Event[completionOutcome]) {
	if ev.Kind != reactive.Finished || !m.ch.complete.Reconcile(ev) {
		return
	}
	if ev.Err != nil {
		m.setHint(hintError, "Failed to lookup suggestions: %v", ev.Err)
		return
	}
	out := ev.Value
	m.lastCompletion = &out
	if m.wantSuggestions && out.request == m.completionRequest() {
		m.wantSuggestions = false
		m.openSuggestions(out)
	}
}

func (m *Model) openSuggestions(out completionOutcome) {
	if !m.session.Open(out.request.text, out.request.cursor, out.result) {
		m.setHint(hintInfo, "No suggestion found for '%s'", out.result.Tail.Partial)
		return
	}
	m.clearHint()
}

// acceptSuggestion replaces the text before the cursor with the highlighted
// suggestion, keeping whatever followed the cursor.
func (m *Model) acceptSuggestion() {
	replacement, ok := m.session.Accept()
	if !ok {
		return
	}
	_, after := m.buf.Split()
	gen := m.buf.Generation()
	m.buf.Replace(replacement + after)
	m.buf.MoveTo(len([]rune(replacement)))
	if m.buf.Generation() != gen {
		m.textChanged()
	}
}
