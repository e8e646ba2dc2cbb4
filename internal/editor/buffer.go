// Package editor implements the query text buffer: a rune slice with a cursor,
// insert/overwrite editing and word-boundary motion driven by a configurable
// set of break characters.
package editor

import (
	"fmt"
	"strings"
)

// Mode selects how typed runes are applied at the cursor.
type Mode int

const (
	// ModeInsert shifts existing text to the right of the cursor.
	ModeInsert Mode = iota
	// ModeOverwrite replaces the rune under the cursor.
	ModeOverwrite
)

// String returns the lowercase name used on the command line and in config files.
func (m Mode) String() string {
	if m == ModeOverwrite {
		return "overwrite"
	}
	return "insert"
}

// ParseMode parses "insert" or "overwrite" (case-insensitive). The empty string means insert.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "insert":
		return ModeInsert, nil
	case "overwrite":
		return ModeOverwrite, nil
	default:
		return ModeInsert, fmt.Errorf("edit mode must be 'insert' or 'overwrite', got %q", s)
	}
}

// DefaultWordBreaks are the break characters used when none are configured.
var DefaultWordBreaks = []rune{'.', '|', '(', ')', '[', ']'}

// Buffer holds the query text and cursor. The zero value is an empty buffer in
// insert mode using DefaultWordBreaks.
type Buffer struct {
	text       []rune
	cursor     int
	mode       Mode
	breaks     map[rune]struct{}
	generation uint64
}

// New returns an empty buffer with the given mode and break characters.
// A nil or empty breaks slice selects DefaultWordBreaks.
func New(mode Mode, breaks []rune) *Buffer {
	b := &Buffer{mode: mode}
	b.SetWordBreaks(breaks)
	return b
}

// SetWordBreaks replaces the break character set.
func (b *Buffer) SetWordBreaks(breaks []rune) {
	if len(breaks) == 0 {
		breaks = DefaultWordBreaks
	}
	b.breaks = make(map[rune]struct{}, len(breaks))
	for _, r := range breaks {
		b.breaks[r] = struct{}{}
	}
}

// Text returns the buffer contents.
func (b *Buffer) Text() string { return string(b.text) }

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int { return len(b.text) }

// Cursor returns the cursor position as a rune offset in [0, Len()].
func (b *Buffer) Cursor() int { return b.cursor }

// Mode returns the current edit mode.
func (b *Buffer) Mode() Mode { return b.mode }

// SetMode switches between insert and overwrite.
func (b *Buffer) SetMode(m Mode) { b.mode = m }

// Generation is incremented by every operation that changes the text.
func (b *Buffer) Generation() uint64 { return b.generation }

func (b *Buffer) changed() { b.generation++ }

func (b *Buffer) isBreak(r rune) bool {
	if b.breaks == nil {
		b.SetWordBreaks(nil)
	}
	_, ok := b.breaks[r]
	return ok
}

// Insert applies r at the cursor according to the edit mode and advances the cursor.
func (b *Buffer) Insert(r rune) {
	if b.mode == ModeOverwrite && b.cursor < len(b.text) {
		b.text[b.cursor] = r
	} else {
		b.text = append(b.text, 0)
		copy(b.text[b.cursor+1:], b.text[b.cursor:])
		b.text[b.cursor] = r
	}
	b.cursor++
	b.changed()
}

// InsertString inserts every rune of s in order.
func (b *Buffer) InsertString(s string) {
	for _, r := range s {
		b.Insert(r)
	}
}

// Erase deletes the rune before the cursor.
func (b *Buffer) Erase() {
	if b.cursor == 0 {
		return
	}
	b.text = append(b.text[:b.cursor-1], b.text[b.cursor:]...)
	b.cursor--
	b.changed()
}

// EraseAll clears the buffer.
func (b *Buffer) EraseAll() {
	if len(b.text) == 0 {
		b.cursor = 0
		return
	}
	b.text = b.text[:0]
	b.cursor = 0
	b.changed()
}

// Replace sets the whole text and moves the cursor to the end.
func (b *Buffer) Replace(s string) {
	next := []rune(s)
	same := string(next) == string(b.text)
	b.text = next
	b.cursor = len(b.text)
	if !same {
		b.changed()
	}
}

// Backward moves the cursor one rune left.
func (b *Buffer) Backward() {
	if b.cursor > 0 {
		b.cursor--
	}
}

// Forward moves the cursor one rune right.
func (b *Buffer) Forward() {
	if b.cursor < len(b.text) {
		b.cursor++
	}
}

// MoveToHead moves the cursor to the start of the buffer.
func (b *Buffer) MoveToHead() { b.cursor = 0 }

// MoveToTail moves the cursor to the end of the buffer.
func (b *Buffer) MoveToTail() { b.cursor = len(b.text) }

// MoveTo places the cursor at pos, clamped to [0, Len()].
func (b *Buffer) MoveTo(pos int) {
	b.cursor = max(0, min(pos, len(b.text)))
}

// PreviousBoundary returns the position just after the nearest break character
// strictly before cursor-1, or 0. Skipping the rune directly left of the
// cursor lets repeated calls walk across consecutive segments.
func (b *Buffer) PreviousBoundary() int {
	for i := b.cursor - 2; i >= 0; i-- {
		if b.isBreak(b.text[i]) {
			return i + 1
		}
	}
	return 0
}

// NextBoundary returns the position of the nearest break character strictly
// after the cursor, or Len().
func (b *Buffer) NextBoundary() int {
	for i := b.cursor + 1; i < len(b.text); i++ {
		if b.isBreak(b.text[i]) {
			return i
		}
	}
	return len(b.text)
}

// MoveToPreviousBoundary moves the cursor to PreviousBoundary.
func (b *Buffer) MoveToPreviousBoundary() { b.cursor = b.PreviousBoundary() }

// MoveToNextBoundary moves the cursor to NextBoundary.
func (b *Buffer) MoveToNextBoundary() { b.cursor = b.NextBoundary() }

// EraseToPreviousBoundary removes [PreviousBoundary, cursor) and leaves the
// cursor at the boundary.
func (b *Buffer) EraseToPreviousBoundary() {
	pos := b.PreviousBoundary()
	if pos == b.cursor {
		return
	}
	b.text = append(b.text[:pos], b.text[b.cursor:]...)
	b.cursor = pos
	b.changed()
}

// EraseToNextBoundary removes [cursor, NextBoundary). The cursor does not move.
func (b *Buffer) EraseToNextBoundary() {
	pos := b.NextBoundary()
	if pos == b.cursor {
		return
	}
	b.text = append(b.text[:b.cursor], b.text[pos:]...)
	b.changed()
}

// Split returns the text before and after the cursor.
func (b *Buffer) Split() (before, after string) {
	return string(b.text[:b.cursor]), string(b.text[b.cursor:])
}
