package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeClamps(t *testing.T) {
	tests := []struct {
		name      string
		rows, cap int
		wantStart int
		wantEnd   int
	}{
		{name: "fewer rows than capacity", rows: 3, cap: 10, wantStart: 0, wantEnd: 3},
		{name: "more rows", rows: 30, cap: 10, wantStart: 0, wantEnd: 10},
		{name: "empty", rows: 0, cap: 5, wantStart: 0, wantEnd: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := New(tt.rows, tt.cap).Range()
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestCursorScrollsMinimally(t *testing.T) {
	w := New(20, 5)
	for i := 0; i < 4; i++ {
		w.Down()
	}
	assert.Equal(t, 4, w.Cursor())
	assert.Equal(t, 0, w.Offset())

	w.Down()
	assert.Equal(t, 5, w.Cursor())
	assert.Equal(t, 1, w.Offset())

	w.Up()
	w.Up()
	w.Up()
	w.Up()
	assert.Equal(t, 1, w.Cursor())
	assert.Equal(t, 1, w.Offset())
	w.Up()
	assert.Equal(t, 0, w.Offset())
	assert.False(t, w.Up(), "already at the top")
}

func TestFirstLastAndPaging(t *testing.T) {
	w := New(20, 5)
	w.Last()
	assert.Equal(t, 19, w.Cursor())
	assert.Equal(t, 15, w.Offset())

	w.PageUp()
	assert.Equal(t, 14, w.Cursor())
	assert.Equal(t, 14, w.Offset())

	w.First()
	assert.Equal(t, 0, w.Cursor())
	assert.Equal(t, 0, w.Offset())

	w.PageDown()
	assert.Equal(t, 5, w.Cursor())
	assert.Equal(t, 1, w.Offset())
}

func TestResizeKeepsCursorVisible(t *testing.T) {
	w := New(20, 10)
	w.MoveTo(9)
	w.Resize(4)
	assert.Equal(t, 9, w.Cursor())
	start, end := w.Range()
	assert.True(t, start <= 9 && 9 < end)

	w.Resize(50)
	assert.Equal(t, 0, w.Offset())
	assert.Equal(t, 9, w.Cursor())
}

func TestSetRowsReclamps(t *testing.T) {
	w := New(20, 5)
	w.Last()
	w.SetRows(3)
	assert.Equal(t, 2, w.Cursor())
	assert.Equal(t, 0, w.Offset())

	w.SetRows(0)
	assert.Equal(t, 0, w.Cursor())
	assert.False(t, w.Down())
}
