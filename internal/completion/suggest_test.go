package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultOf(n int) Result {
	items := make([]Completion, n)
	for i := range items {
		items[i] = Completion{Text: ".k" + string(rune('a'+i)), Kind: CompletionField}
	}
	return Result{Tail: Tail{ReplaceFrom: 0}, Items: items}
}

func TestSessionWraps(t *testing.T) {
	s := NewSession(3)
	require.True(t, s.Open(".k", 2, resultOf(4)))
	assert.Equal(t, Suggesting, s.Mode())

	_, idx, _ := s.Active()
	assert.Equal(t, 0, idx)
	s.Previous()
	_, idx, _ = s.Active()
	assert.Equal(t, 3, idx, "previous from the first entry wraps to the last")
	s.Next()
	_, idx, _ = s.Active()
	assert.Equal(t, 0, idx, "next from the last entry wraps to the first")
}

func TestSessionVisibleWindow(t *testing.T) {
	s := NewSession(3)
	s.Open(".k", 2, resultOf(6))

	vis, at := s.Visible()
	assert.Len(t, vis, 3)
	assert.Equal(t, 0, at)

	for i := 0; i < 4; i++ {
		s.Next()
	}
	vis, at = s.Visible()
	assert.Len(t, vis, 3)
	assert.Equal(t, ".ke", vis[at].Text)

	s.Next()
	vis, at = s.Visible()
	assert.Equal(t, 2, at)
	assert.Equal(t, ".kf", vis[at].Text)
}

func TestSessionAcceptAndCancel(t *testing.T) {
	s := NewSession(3)
	s.Open(".k", 2, resultOf(2))
	s.Next()
	text, ok := s.Accept()
	require.True(t, ok)
	assert.Equal(t, ".kb", text)
	assert.Equal(t, Editing, s.Mode())

	s.Open(".k", 1, resultOf(2))
	text, cursor := s.Cancel()
	assert.Equal(t, ".k", text)
	assert.Equal(t, 1, cursor)
	assert.Equal(t, Editing, s.Mode())
	_, ok = s.Accept()
	assert.False(t, ok)
}

func TestSessionEmptyResultStaysEditing(t *testing.T) {
	s := NewSession(3)
	assert.False(t, s.Open(".x", 2, Result{}))
	assert.Equal(t, Editing, s.Mode())
	vis, _ := s.Visible()
	assert.Empty(t, vis)
}
