package completion

import (
	"strconv"
	"strings"
	"unicode"
)

// Segment is one step of a parsed path expression.
type Segment interface{ isSegment() }

// Key selects an object member: .name or ."quoted name".
type Key struct{ Name string }

// Index selects an array element: [3] or [-1].
type Index struct{ N int }

// Iterate fans out to every child: [].
type Iterate struct{}

func (Key) isSegment()     {}
func (Index) isSegment()   {}
func (Iterate) isSegment() {}

// TokenKind says what the trailing partial token can complete to.
type TokenKind int

const (
	// TokenAny follows a complete segment: any child form may be offered.
	TokenAny TokenKind = iota
	// TokenKey is a partial member name after '.' or '["'.
	TokenKey
	// TokenIndex is a partial array index after '['.
	TokenIndex
)

// Tail is the path expression at the end of the query text.
type Tail struct {
	// Start is the rune offset where the path expression begins.
	Start int
	// Complete holds the fully typed segments before the partial token.
	Complete []Segment
	Partial  string
	Kind     TokenKind
	// ReplaceFrom is the rune offset replaced by an accepted candidate.
	ReplaceFrom int
	// Dotted is set when the replaced span begins with '.', so index
	// candidates take the .[n] form.
	Dotted bool
}

// AtRoot reports whether the tail has no complete segments.
func (t Tail) AtRoot() bool { return len(t.Complete) == 0 }

// ParseTail extracts the trailing path expression from text. It reports false
// when text does not end in a path.
func ParseTail(text string) (Tail, bool) {
	r := []rune(text)
	n := len(r)
	start := -1
	var segs []Segment

	reset := func() {
		start = -1
		segs = nil
	}

	i := 0
	for i < n {
		c := r[i]
		switch {
		case c == '.':
			if start < 0 {
				start = i
				segs = nil
			}
			j := i + 1
			switch {
			case j == n:
				return Tail{Start: start, Complete: segs, Kind: TokenKey, ReplaceFrom: i, Dotted: true}, true
			case r[j] == '"':
				name, end, closed := readQuoted(r, j)
				if !closed {
					return Tail{Start: start, Complete: segs, Partial: name, Kind: TokenKey, ReplaceFrom: i, Dotted: true}, true
				}
				segs = append(segs, Key{Name: name})
				i = end
			case isIdentStart(r[j]):
				end := j
				for end < n && isIdentPart(r[end]) {
					end++
				}
				if end == n {
					return Tail{Start: start, Complete: segs, Partial: string(r[j:end]), Kind: TokenKey, ReplaceFrom: i, Dotted: true}, true
				}
				segs = append(segs, Key{Name: string(r[j:end])})
				i = end
			default:
				i = j
			}
		case c == '[' && start >= 0:
			dotted := i > 0 && r[i-1] == '.'
			from := i
			if dotted {
				from = i - 1
			}
			j := i + 1
			if j < n && r[j] == '"' {
				name, end, closed := readQuoted(r, j)
				if !closed {
					return Tail{Start: start, Complete: segs, Partial: name, Kind: TokenKey, ReplaceFrom: from, Dotted: dotted}, true
				}
				if end < n && r[end] == ']' {
					segs = append(segs, Key{Name: name})
					i = end + 1
					continue
				}
				reset()
				i = end
				continue
			}
			end := j
			for end < n && (unicode.IsDigit(r[end]) || (end == j && r[end] == '-')) {
				end++
			}
			digits := string(r[j:end])
			if end == n {
				return Tail{Start: start, Complete: segs, Partial: digits, Kind: TokenIndex, ReplaceFrom: from, Dotted: dotted}, true
			}
			if r[end] != ']' {
				reset()
				i = end
				continue
			}
			if digits == "" {
				segs = append(segs, Iterate{})
			} else if k, err := strconv.Atoi(digits); err == nil {
				segs = append(segs, Index{N: k})
			} else {
				reset()
			}
			i = end + 1
		default:
			reset()
			i++
		}
	}
	if start < 0 {
		return Tail{}, false
	}
	return Tail{Start: start, Complete: segs, Kind: TokenAny, ReplaceFrom: n}, true
}

// readQuoted reads a JSON string starting at the opening quote r[at]. It
// returns the decoded contents, the offset after the closing quote, and
// whether the string was closed.
func readQuoted(r []rune, at int) (string, int, bool) {
	var b strings.Builder
	for i := at + 1; i < len(r); i++ {
		switch r[i] {
		case '\\':
			if i+1 < len(r) {
				i++
				b.WriteRune(r[i])
			}
		case '"':
			return b.String(), i + 1, true
		default:
			b.WriteRune(r[i])
		}
	}
	return b.String(), len(r), false
}

func isIdentStart(c rune) bool { return c == '_' || unicode.IsLetter(c) }

func isIdentPart(c rune) bool { return isIdentStart(c) || unicode.IsDigit(c) }
