package ui

import (
	"bytes"
	"encoding/json"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/jnav/internal/completion"
	"github.com/oakwood-commons/jnav/internal/editor"
	"github.com/oakwood-commons/jnav/internal/keymap"
	"github.com/oakwood-commons/jnav/internal/tree"
)

// handleKey routes a key press: global bindings first, then the focused pane.
func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	if m.helpVisible {
		return m.handleHelpKey(key)
	}

	actions, status := m.dispatch[keymap.ScopeGlobal].Feed(key)
	switch status {
	case keymap.Matched:
		return m.runGlobal(actions[0])
	case keymap.Pending:
		return nil
	}

	if m.focus == FocusViewer {
		m.handleViewerKey(key)
		return nil
	}
	m.handleEditorKey(msg)
	return nil
}

func (m *Model) runGlobal(a keymap.Action) tea.Cmd {
	switch a {
	case keymap.ActionQuit:
		m.quitting = true
		m.ch.close()
		return tea.Quit
	case keymap.ActionToggleFocus:
		if m.evaluating() {
			m.setHint(hintError, "Failed to switch pane while rendering is in progress.")
			return nil
		}
		m.session.Close()
		if m.focus == FocusEditor {
			m.focus = FocusViewer
		} else {
			m.focus = FocusEditor
		}
	case keymap.ActionCopyQuery:
		m.copy(m.buf.Text(), "Copied jq query to clipboard!")
	case keymap.ActionCopyContent:
		if m.evaluating() {
			m.setHint(hintError, "Failed to copy while rendering is in progress.")
			return nil
		}
		content, err := m.content()
		if err != nil {
			m.setHint(hintError, "Failed to render content: %v", err)
			return nil
		}
		m.copy(content, "Copied selected content to clipboard!")
	case keymap.ActionCopyPath:
		path, ok := m.cursorPath()
		if !ok {
			return nil
		}
		m.copy(path, "Copied path to clipboard!")
	case keymap.ActionHelp:
		m.helpVisible = true
		m.helpOffset = 0
		m.refreshHelp()
	}
	return nil
}

func (m *Model) copy(text, done string) {
	if err := CopyToClipboard(text); err != nil {
		m.setHint(hintError, "Failed to copy to clipboard: %v", err)
		return
	}
	m.setHint(hintSuccess, "%s", done)
}

// content renders the displayed values as indented JSON, one per document.
func (m *Model) content() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", strings.Repeat(" ", m.cfg.Viewer.Indent))
	for _, v := range m.tree.Values() {
		if err := enc.Encode(v); err != nil {
			return "", err
		}
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// cursorPath is the jq path of the row under the viewer cursor. A summary
// row reports the path of its array.
func (m *Model) cursorPath() (string, bool) {
	if len(m.rows) == 0 {
		return "", false
	}
	return m.tree.PathOf(m.rows[m.win.Cursor()].ID), true
}

func (m *Model) handleHelpKey(key string) tea.Cmd {
	actions, status := m.dispatch[keymap.ScopeGlobal].Feed(key)
	if status == keymap.Matched {
		switch actions[0] {
		case keymap.ActionQuit:
			return m.runGlobal(keymap.ActionQuit)
		case keymap.ActionHelp:
			m.helpVisible = false
			return nil
		}
	}
	actions, _ = m.dispatch[keymap.ScopeViewer].Feed(key)
	page := m.treeCapacity()
	switch {
	case keymap.Has(actions, keymap.ActionUp):
		m.scrollHelp(-1)
	case keymap.Has(actions, keymap.ActionDown):
		m.scrollHelp(1)
	case keymap.Has(actions, keymap.ActionPageUp):
		m.scrollHelp(-page)
	case keymap.Has(actions, keymap.ActionPageDown):
		m.scrollHelp(page)
	case key == "esc" || key == "q":
		m.helpVisible = false
	}
	return nil
}

func (m *Model) scrollHelp(delta int) {
	limit := max(0, len(m.helpLines)-m.treeCapacity())
	m.helpOffset = max(0, min(m.helpOffset+delta, limit))
}

func (m *Model) refreshHelp() {
	md := helpMarkdown(m.cfg.App.Name, m.opts.Evaluator.Name(), m.opts.Keymaps, m.opts.Functions)
	m.helpLines = renderMarkdown(md, m.styles, m.width)
	m.scrollHelp(0)
}

func (m *Model) handleViewerKey(key string) {
	actions, status := m.dispatch[keymap.ScopeViewer].Feed(key)
	if status != keymap.Matched {
		return
	}
	switch actions[0] {
	case keymap.ActionUp:
		m.win.Up()
	case keymap.ActionDown:
		m.win.Down()
	case keymap.ActionFirst:
		m.win.First()
	case keymap.ActionLast:
		m.win.Last()
	case keymap.ActionPageUp:
		m.win.PageUp()
	case keymap.ActionPageDown:
		m.win.PageDown()
	case keymap.ActionToggleFold:
		if len(m.rows) == 0 {
			return
		}
		row := m.rows[m.win.Cursor()]
		if row.Kind == tree.RowNode && m.tree.Toggle(row.ID) {
			m.refreshRows()
		}
	case keymap.ActionCollapseAll:
		m.tree.CollapseAll()
		m.refreshRows()
	case keymap.ActionExpandAll:
		m.tree.ExpandAll()
		m.refreshRows()
	}
}

func (m *Model) handleEditorKey(msg tea.KeyPressMsg) {
	actions, status := m.dispatch[keymap.ScopeEditor].Feed(msg.String())

	if m.session.Mode() == completion.Suggesting {
		switch {
		case status == keymap.Pending:
			return
		case keymap.Has(actions, keymap.ActionNextSuggestion):
			m.session.Next()
			return
		case keymap.Has(actions, keymap.ActionPrevSuggestion):
			m.session.Previous()
			return
		case keymap.Has(actions, keymap.ActionAccept):
			m.acceptSuggestion()
			return
		}
		// The buffer was never touched while suggesting, so cancelling only
		// closes the list; the key is then handled as a normal edit.
		m.session.Cancel()
	}

	gen := m.buf.Generation()
	switch status {
	case keymap.Matched:
		m.runEditor(actions)
	case keymap.Unbound:
		if msg.Text != "" {
			m.buf.InsertString(msg.Text)
		}
	}
	if m.buf.Generation() != gen {
		m.textChanged()
	}
}

func (m *Model) runEditor(actions []keymap.Action) {
	switch {
	case keymap.Has(actions, keymap.ActionComplete):
		m.requestSuggestions()
	case keymap.Has(actions, keymap.ActionBackward):
		m.buf.Backward()
	case keymap.Has(actions, keymap.ActionForward):
		m.buf.Forward()
	case keymap.Has(actions, keymap.ActionHead):
		m.buf.MoveToHead()
	case keymap.Has(actions, keymap.ActionTail):
		m.buf.MoveToTail()
	case keymap.Has(actions, keymap.ActionPrevWord):
		m.buf.MoveToPreviousBoundary()
	case keymap.Has(actions, keymap.ActionNextWord):
		m.buf.MoveToNextBoundary()
	case keymap.Has(actions, keymap.ActionErase):
		m.buf.Erase()
	case keymap.Has(actions, keymap.ActionEraseAll):
		m.buf.EraseAll()
	case keymap.Has(actions, keymap.ActionErasePrevWord):
		m.buf.EraseToPreviousBoundary()
	case keymap.Has(actions, keymap.ActionEraseNextWord):
		m.buf.EraseToNextBoundary()
	case keymap.Has(actions, keymap.ActionToggleEditMode):
		if m.buf.Mode() == editor.ModeInsert {
			m.buf.SetMode(editor.ModeOverwrite)
		} else {
			m.buf.SetMode(editor.ModeInsert)
		}
	case keymap.Has(actions, keymap.ActionIncrementInteger):
		m.buf.AddToNearestInteger(1)
	case keymap.Has(actions, keymap.ActionDecrementInteger):
		m.buf.AddToNearestInteger(-1)
	}
}
