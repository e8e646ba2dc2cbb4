package completion

// Mode is the state of the suggestion sub-machine.
type Mode int

const (
	Editing Mode = iota
	Suggesting
)

// Session drives suggestion mode: it holds the ranked list for the text it was
// opened on and the highlighted entry. The query buffer is not touched until
// Accept.
type Session struct {
	mode    Mode
	text    string
	cursor  int
	tail    Tail
	items   []Completion
	active  int
	visible int
}

// NewSession returns a session in Editing mode showing at most visible entries.
func NewSession(visible int) *Session {
	if visible < 1 {
		visible = 1
	}
	return &Session{visible: visible}
}

// Mode returns the current state.
func (s *Session) Mode() Mode { return s.mode }

// Open enters Suggesting mode for text (the query up to the cursor) with
// result. It reports false, staying in Editing, when result has no items.
func (s *Session) Open(text string, cursor int, result Result) bool {
	if len(result.Items) == 0 {
		s.Close()
		return false
	}
	s.mode = Suggesting
	s.text = text
	s.cursor = cursor
	s.tail = result.Tail
	s.items = result.Items
	s.active = 0
	return true
}

// Close returns to Editing and drops the list.
func (s *Session) Close() {
	s.mode = Editing
	s.items = nil
	s.active = 0
}

// Len returns the number of suggestions.
func (s *Session) Len() int { return len(s.items) }

// Next highlights the following entry, wrapping to the first.
func (s *Session) Next() {
	if len(s.items) > 0 {
		s.active = (s.active + 1) % len(s.items)
	}
}

// Previous highlights the preceding entry, wrapping to the last.
func (s *Session) Previous() {
	if len(s.items) > 0 {
		s.active = (s.active - 1 + len(s.items)) % len(s.items)
	}
}

// Active returns the highlighted entry and its index.
func (s *Session) Active() (Completion, int, bool) {
	if s.mode != Suggesting || len(s.items) == 0 {
		return Completion{}, -1, false
	}
	return s.items[s.active], s.active, true
}

// Visible returns the window of entries to display and the position of the
// highlighted entry within it. The window scrolls so the active entry stays
// inside it.
func (s *Session) Visible() ([]Completion, int) {
	if s.mode != Suggesting {
		return nil, -1
	}
	n := len(s.items)
	if n <= s.visible {
		return s.items, s.active
	}
	start := s.active - s.visible/2
	start = max(0, min(start, n-s.visible))
	return s.items[start : start+s.visible], s.active - start
}

// Preview returns the query text as it would read after accepting the
// highlighted entry.
func (s *Session) Preview() string {
	c, _, ok := s.Active()
	if !ok {
		return s.text
	}
	r := []rune(s.text)
	from := min(s.tail.ReplaceFrom, len(r))
	return string(r[:from]) + c.Text
}

// Accept closes the session and returns the replacement for the query text
// that preceded the cursor when the session opened.
func (s *Session) Accept() (string, bool) {
	if _, _, ok := s.Active(); !ok {
		return "", false
	}
	out := s.Preview()
	s.Close()
	return out, true
}

// Cancel closes the session and returns the query text and cursor as they
// were when it opened.
func (s *Session) Cancel() (string, int) {
	text, cursor := s.text, s.cursor
	s.Close()
	return text, cursor
}
