package ui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/jnav/internal/completion"
	"github.com/oakwood-commons/jnav/internal/editor"
	"github.com/oakwood-commons/jnav/internal/reactive"
	"github.com/oakwood-commons/jnav/internal/tree"
)

// View renders the prompt, the tree window (or help) and the footer.
func (m *Model) View() tea.View {
	var s string
	if !m.quitting {
		s = m.render()
	}
	v := tea.NewView(s)
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderPrompt())

	body := m.renderBody()
	if m.session.Mode() == completion.Suggesting && !m.helpVisible {
		body = overlay(body, m.renderSuggestions())
	}
	lines = append(lines, body...)
	lines = append(lines, m.renderFooter())
	return strings.Join(lines, "\n")
}

// renderPrompt draws the query with a block cursor. While suggesting it shows
// the text as it would read after accepting the highlighted entry.
func (m *Model) renderPrompt() string {
	prompt := m.cfg.Editor.Prompt
	text := []rune(m.buf.Text())
	cursor := m.buf.Cursor()
	if m.session.Mode() == completion.Suggesting {
		_, after := m.buf.Split()
		preview := []rune(m.session.Preview())
		cursor = len(preview)
		text = append(preview, []rune(after)...)
	}

	status := ""
	if m.ch.query.State() == reactive.Evaluating {
		status = " " + m.spinner.View()
	}
	avail := m.width - runewidth.StringWidth(prompt) - runewidth.StringWidth(status) - 1
	start := scrollStart(text, cursor, avail)
	visible := text[start:]

	var b strings.Builder
	b.WriteString(m.styles.prompt.Render(prompt))
	pos := cursor - start
	width := 0
	for i, r := range visible {
		w := runewidth.RuneWidth(r)
		if width+w > avail {
			break
		}
		width += w
		if i == pos && m.focus == FocusEditor {
			b.WriteString(m.styles.cursor.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	if pos >= len(visible) && m.focus == FocusEditor {
		b.WriteString(m.styles.cursor.Render(" "))
	}
	b.WriteString(status)
	return b.String()
}

// scrollStart returns the first rune to draw so that the cursor fits in avail
// columns.
func scrollStart(text []rune, cursor, avail int) int {
	if avail <= 0 {
		return cursor
	}
	width := 1
	start := cursor
	for start > 0 {
		w := runewidth.RuneWidth(text[start-1])
		if width+w > avail {
			break
		}
		width += w
		start--
	}
	return start
}

func (m *Model) renderBody() []string {
	capacity := m.treeCapacity()
	out := make([]string, 0, capacity)
	if m.helpVisible {
		end := min(len(m.helpLines), m.helpOffset+capacity)
		out = append(out, m.helpLines[m.helpOffset:end]...)
	} else {
		start, end := m.win.Range()
		for i := start; i < end; i++ {
			out = append(out, m.renderRow(m.rows[i], i == m.win.Cursor()))
		}
	}
	for len(out) < capacity {
		out = append(out, "")
	}
	return out
}

func (m *Model) renderRow(row tree.Row, selected bool) string {
	indent := strings.Repeat(" ", row.Depth*max(0, m.cfg.Viewer.Indent))
	text := runewidth.Truncate(indent+m.tree.Label(row), m.width, "…")
	switch {
	case selected && m.focus == FocusViewer:
		return m.styles.selected.Render(runewidth.FillRight(text, m.width))
	case selected:
		return m.styles.selectedDim.Render(text)
	case row.Kind == tree.RowTruncated:
		return m.styles.summary.Render(text)
	default:
		return m.styles.valueStyle(m.tree.Node(row.ID).Kind).Render(text)
	}
}

func (m *Model) renderSuggestions() []string {
	items, active := m.session.Visible()
	out := make([]string, 0, len(items))
	for i, c := range items {
		label := runewidth.Truncate(" "+c.Display+" ", m.width, "…")
		if i == active {
			out = append(out, m.styles.suggestionActive.Render(label))
			continue
		}
		out = append(out, m.styles.suggestion.Render(label))
	}
	return out
}

func overlay(body, top []string) []string {
	for i := 0; i < len(top) && i < len(body); i++ {
		body[i] = top[i]
	}
	return body
}

// renderFooter shows the current hint, or the selected row's path with the
// row position and edit mode.
func (m *Model) renderFooter() string {
	mode := "INS"
	if m.buf.Mode() == editor.ModeOverwrite {
		mode = "OVR"
	}
	pos := 0
	if len(m.rows) > 0 {
		pos = m.win.Cursor() + 1
	}
	right := fmt.Sprintf(" %d/%d %s", pos, len(m.rows), mode)

	leftWidth := max(0, m.width-runewidth.StringWidth(right))
	if m.hint.text != "" {
		left := runewidth.FillRight(runewidth.Truncate(m.hint.text, leftWidth, "…"), leftWidth)
		return m.styles.hint[m.hint.level].Render(left) + m.styles.footer.Render(right)
	}
	path, _ := m.cursorPath()
	left := runewidth.FillRight(runewidth.Truncate(path, leftWidth, "…"), leftWidth)
	return m.styles.footer.Render(left + right)
}
