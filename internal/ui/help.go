package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/jnav/internal/keymap"
)

var actionHelp = map[keymap.Action]string{
	keymap.ActionQuit:             "quit",
	keymap.ActionToggleFocus:      "switch focus between query and viewer",
	keymap.ActionCopyQuery:        "copy the query",
	keymap.ActionCopyContent:      "copy the displayed JSON",
	keymap.ActionCopyPath:         "copy the path of the selected row",
	keymap.ActionHelp:             "toggle this help",
	keymap.ActionComplete:         "open suggestions",
	keymap.ActionNextSuggestion:   "next suggestion",
	keymap.ActionPrevSuggestion:   "previous suggestion",
	keymap.ActionAccept:           "accept suggestion",
	keymap.ActionBackward:         "cursor left",
	keymap.ActionForward:          "cursor right",
	keymap.ActionHead:             "start of query",
	keymap.ActionTail:             "end of query",
	keymap.ActionPrevWord:         "previous word",
	keymap.ActionNextWord:         "next word",
	keymap.ActionErase:            "delete before cursor",
	keymap.ActionEraseAll:         "clear the query",
	keymap.ActionErasePrevWord:    "delete to previous word",
	keymap.ActionEraseNextWord:    "delete to next word",
	keymap.ActionToggleEditMode:   "toggle insert / overwrite",
	keymap.ActionIncrementInteger: "increment nearest integer",
	keymap.ActionDecrementInteger: "decrement nearest integer",
	keymap.ActionUp:               "move up",
	keymap.ActionDown:             "move down",
	keymap.ActionFirst:            "first row",
	keymap.ActionLast:             "last row",
	keymap.ActionPageUp:           "page up",
	keymap.ActionPageDown:         "page down",
	keymap.ActionToggleFold:       "fold / unfold",
	keymap.ActionCollapseAll:      "collapse all",
	keymap.ActionExpandAll:        "expand all",
}

var helpSections = []struct {
	title   string
	scope   keymap.Scope
	actions []keymap.Action
}{
	{title: "Global", scope: keymap.ScopeGlobal, actions: []keymap.Action{
		keymap.ActionQuit, keymap.ActionToggleFocus, keymap.ActionCopyQuery,
		keymap.ActionCopyContent, keymap.ActionCopyPath, keymap.ActionHelp,
	}},
	{title: "Query editor", scope: keymap.ScopeEditor, actions: []keymap.Action{
		keymap.ActionComplete, keymap.ActionNextSuggestion, keymap.ActionPrevSuggestion,
		keymap.ActionAccept, keymap.ActionBackward, keymap.ActionForward,
		keymap.ActionHead, keymap.ActionTail, keymap.ActionPrevWord, keymap.ActionNextWord,
		keymap.ActionErase, keymap.ActionEraseAll, keymap.ActionErasePrevWord,
		keymap.ActionEraseNextWord, keymap.ActionToggleEditMode,
		keymap.ActionIncrementInteger, keymap.ActionDecrementInteger,
	}},
	{title: "Viewer", scope: keymap.ScopeViewer, actions: []keymap.Action{
		keymap.ActionUp, keymap.ActionDown, keymap.ActionFirst, keymap.ActionLast,
		keymap.ActionPageUp, keymap.ActionPageDown, keymap.ActionToggleFold,
		keymap.ActionCollapseAll, keymap.ActionExpandAll,
	}},
}

// helpMarkdown builds the help document for the active bindings. functions
// lists the filter engine's built-ins, if it exposes them.
func helpMarkdown(appName, engine string, set keymap.Set, functions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", appName)
	fmt.Fprintf(&b, "Type a %s query; the viewer follows as you type.\n\n", engine)
	for _, sec := range helpSections {
		fmt.Fprintf(&b, "## %s\n\n", sec.title)
		km := set[sec.scope]
		for _, a := range sec.actions {
			chords := km[a]
			if len(chords) == 0 {
				continue
			}
			quoted := make([]string, len(chords))
			for i, c := range chords {
				quoted[i] = "`" + c + "`"
			}
			fmt.Fprintf(&b, "- %s %s\n", strings.Join(quoted, " "), actionHelp[a])
		}
		b.WriteString("\n")
	}
	if len(functions) > 0 {
		b.WriteString("## Functions\n\n")
		for _, f := range functions {
			name, usage, _ := strings.Cut(f, " - ")
			fmt.Fprintf(&b, "- `%s` %s\n", name, usage)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMarkdown lays out the headings, paragraphs and lists of md as
// terminal lines no wider than width.
func renderMarkdown(md string, st styles, width int) []string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))

	var (
		lines     []string
		cur       strings.Builder
		inHeading bool
		inItem    bool
	)
	clip := lipgloss.NewStyle()
	if width > 0 {
		clip = clip.MaxWidth(width)
	}
	flush := func() {
		text := cur.String()
		cur.Reset()
		if inItem {
			text = "  • " + text
		}
		lines = append(lines, clip.Render(text))
	}

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Heading:
			if entering {
				if len(lines) > 0 && lines[len(lines)-1] != "" {
					lines = append(lines, "")
				}
				inHeading = true
				return ast.GoToNext
			}
			flush()
			inHeading = false
		case *ast.ListItem:
			inItem = entering
		case *ast.Paragraph:
			if entering {
				return ast.GoToNext
			}
			flush()
			if !inItem {
				lines = append(lines, "")
			}
		case *ast.Text:
			style := st.helpValue
			if inHeading {
				style = st.heading
			}
			if len(n.Literal) > 0 {
				cur.WriteString(style.Render(string(n.Literal)))
			}
		case *ast.Code:
			cur.WriteString(st.helpKey.Render(string(n.Literal)))
		case *ast.Softbreak, *ast.Hardbreak:
			cur.WriteString(" ")
		}
		return ast.GoToNext
	})

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
