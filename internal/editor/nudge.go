package editor

import (
	"strconv"
	"unicode"
)

// AddToNearestInteger adds delta to the integer literal closest to the cursor.
// A literal containing the cursor is always chosen; otherwise the one with the
// smallest distance wins, earlier literals winning ties. The cursor keeps its
// position unless the text became shorter than it. Reports whether a literal
// was rewritten.
func (b *Buffer) AddToNearestInteger(delta int) bool {
	start, end, ok := b.nearestInteger()
	if !ok {
		return false
	}
	n, err := strconv.Atoi(string(b.text[start:end]))
	if err != nil {
		return false
	}
	cursor := b.cursor
	replaced := make([]rune, 0, len(b.text)+4)
	replaced = append(replaced, b.text[:start]...)
	replaced = append(replaced, []rune(strconv.Itoa(n+delta))...)
	replaced = append(replaced, b.text[end:]...)
	b.Replace(string(replaced))
	if cursor < b.cursor {
		b.cursor = cursor
	}
	return true
}

func (b *Buffer) nearestInteger() (int, int, bool) {
	bestStart, bestEnd := -1, -1
	bestDist := -1
	pos := 0
	for pos < len(b.text) {
		start, end, ok := findInteger(b.text, pos)
		if !ok {
			break
		}
		d := distance(start, end, b.cursor)
		if bestDist < 0 || d < bestDist {
			bestStart, bestEnd, bestDist = start, end, d
		}
		if d == 0 {
			break
		}
		pos = end + 1
	}
	return bestStart, bestEnd, bestDist >= 0
}

func findInteger(text []rune, from int) (int, int, bool) {
	for i := from; i < len(text); i++ {
		if text[i] != '-' && !unicode.IsDigit(text[i]) {
			continue
		}
		end := i + 1
		for end < len(text) && unicode.IsDigit(text[end]) {
			end++
		}
		return i, end, true
	}
	return 0, 0, false
}

func distance(start, end, cursor int) int {
	switch {
	case start <= cursor && cursor < end:
		return 0
	case cursor < start:
		return start - cursor
	default:
		return cursor - end
	}
}
