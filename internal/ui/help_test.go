package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jnav/internal/keymap"
)

func TestHelpMarkdownListsBindings(t *testing.T) {
	md := helpMarkdown("jnav", "jq", keymap.Defaults(), nil)
	assert.Contains(t, md, "# jnav")
	assert.Contains(t, md, "## Viewer")
	assert.Contains(t, md, "- `ctrl+c` quit")
	assert.NotContains(t, md, "## Functions")
}

func TestHelpMarkdownFunctions(t *testing.T) {
	md := helpMarkdown("jnav", "cel", keymap.Defaults(), []string{"size() - size(list) -> int"})
	assert.Contains(t, md, "## Functions")
	assert.Contains(t, md, "- `size()` size(list) -> int")
}

func TestRenderMarkdown(t *testing.T) {
	md := "# Title\n\nSome text.\n\n## Keys\n\n- `f1` help\n- `ctrl+c` quit\n"
	lines := renderMarkdown(md, newStyles(DefaultTheme(), true), 40)
	require.NotEmpty(t, lines)
	assert.Equal(t, "Title", lines[0])
	assert.Contains(t, lines, "Some text.")
	assert.Contains(t, lines, "Keys")
	assert.Contains(t, lines, "  • f1 help")
	assert.Equal(t, "  • ctrl+c quit", lines[len(lines)-1])
}

func TestRenderMarkdownClipsWidth(t *testing.T) {
	md := "A paragraph that is much longer than the available width.\n"
	lines := renderMarkdown(md, newStyles(DefaultTheme(), true), 10)
	require.Len(t, lines, 1)
	assert.LessOrEqual(t, len(strings.TrimSpace(lines[0])), 10)
}
