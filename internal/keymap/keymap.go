// Package keymap binds actions to key chords and resolves key presses,
// including multi-key sequences, to actions.
package keymap

import (
	"fmt"
	"sort"
	"strings"
)

// Action names something the UI can do in response to keys.
type Action string

const (
	ActionNone Action = ""

	// Global.
	ActionQuit        Action = "quit"
	ActionToggleFocus Action = "toggle_focus"
	ActionCopyQuery   Action = "copy_query"
	ActionCopyContent Action = "copy_content"
	ActionCopyPath    Action = "copy_path"
	ActionHelp        Action = "help"

	// Editor.
	ActionComplete         Action = "complete"
	ActionNextSuggestion   Action = "next_suggestion"
	ActionPrevSuggestion   Action = "previous_suggestion"
	ActionAccept           Action = "accept"
	ActionBackward         Action = "backward"
	ActionForward          Action = "forward"
	ActionHead             Action = "head"
	ActionTail             Action = "tail"
	ActionPrevWord         Action = "previous_word"
	ActionNextWord         Action = "next_word"
	ActionErase            Action = "erase"
	ActionEraseAll         Action = "erase_all"
	ActionErasePrevWord    Action = "erase_previous_word"
	ActionEraseNextWord    Action = "erase_next_word"
	ActionToggleEditMode   Action = "toggle_edit_mode"
	ActionIncrementInteger Action = "increment_integer"
	ActionDecrementInteger Action = "decrement_integer"

	// Viewer.
	ActionUp          Action = "up"
	ActionDown        Action = "down"
	ActionFirst       Action = "first"
	ActionLast        Action = "last"
	ActionPageUp      Action = "page_up"
	ActionPageDown    Action = "page_down"
	ActionToggleFold  Action = "toggle_fold"
	ActionCollapseAll Action = "collapse_all"
	ActionExpandAll   Action = "expand_all"
)

// Scope selects which keymap section applies.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeEditor Scope = "editor"
	ScopeViewer Scope = "viewer"
)

// Keymap maps each action to the chords that trigger it. A chord is one or
// more key names separated by spaces, e.g. "ctrl+c" or "g g".
type Keymap map[Action][]string

// Set is the keymap for each scope.
type Set map[Scope]Keymap

var scopeActions = map[Scope][]Action{
	ScopeGlobal: {ActionQuit, ActionToggleFocus, ActionCopyQuery, ActionCopyContent, ActionCopyPath, ActionHelp},
	ScopeEditor: {
		ActionComplete, ActionNextSuggestion, ActionPrevSuggestion, ActionAccept,
		ActionBackward, ActionForward, ActionHead, ActionTail, ActionPrevWord, ActionNextWord,
		ActionErase, ActionEraseAll, ActionErasePrevWord, ActionEraseNextWord,
		ActionToggleEditMode, ActionIncrementInteger, ActionDecrementInteger,
	},
	ScopeViewer: {
		ActionUp, ActionDown, ActionFirst, ActionLast, ActionPageUp, ActionPageDown,
		ActionToggleFold, ActionCollapseAll, ActionExpandAll,
	},
}

// Defaults returns the built-in bindings.
func Defaults() Set {
	return Set{
		ScopeGlobal: {
			ActionQuit:        {"ctrl+c"},
			ActionToggleFocus: {"shift+up", "shift+down"},
			ActionCopyQuery:   {"ctrl+q"},
			ActionCopyContent: {"ctrl+o"},
			ActionCopyPath:    {"ctrl+y"},
			ActionHelp:        {"f1"},
		},
		ScopeEditor: {
			ActionComplete:         {"tab"},
			ActionNextSuggestion:   {"tab", "down"},
			ActionPrevSuggestion:   {"shift+tab", "up"},
			ActionAccept:           {"enter"},
			ActionBackward:         {"left", "ctrl+b"},
			ActionForward:          {"right", "ctrl+f"},
			ActionHead:             {"home", "ctrl+a"},
			ActionTail:             {"end", "ctrl+e"},
			ActionPrevWord:         {"alt+b", "alt+left"},
			ActionNextWord:         {"alt+f", "alt+right"},
			ActionErase:            {"backspace"},
			ActionEraseAll:         {"ctrl+u"},
			ActionErasePrevWord:    {"ctrl+w", "alt+backspace"},
			ActionEraseNextWord:    {"alt+d"},
			ActionToggleEditMode:   {"insert"},
			ActionIncrementInteger: {"alt+up"},
			ActionDecrementInteger: {"alt+down"},
		},
		ScopeViewer: {
			ActionUp:          {"up", "ctrl+k", "k"},
			ActionDown:        {"down", "ctrl+j", "j"},
			ActionFirst:       {"ctrl+l", "home", "g g"},
			ActionLast:        {"ctrl+h", "end", "G"},
			ActionPageUp:      {"pgup"},
			ActionPageDown:    {"pgdown"},
			ActionToggleFold:  {"enter", "space"},
			ActionCollapseAll: {"ctrl+p"},
			ActionExpandAll:   {"ctrl+n"},
		},
	}
}

// ScopeOf returns the scope an action belongs to.
func ScopeOf(a Action) (Scope, bool) {
	for s, actions := range scopeActions {
		for _, x := range actions {
			if x == a {
				return s, true
			}
		}
	}
	return "", false
}

// Merge overrides the defaults with user bindings keyed by action name. An
// action listed by the user replaces all of its default chords.
func Merge(base Set, overrides map[string][]string) (Set, error) {
	out := make(Set, len(base))
	for scope, km := range base {
		cp := make(Keymap, len(km))
		for a, chords := range km {
			cp[a] = append([]string(nil), chords...)
		}
		out[scope] = cp
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := Action(strings.TrimSpace(name))
		scope, ok := ScopeOf(a)
		if !ok {
			return nil, fmt.Errorf("unknown keybinding action %q", name)
		}
		chords := make([]string, 0, len(overrides[name]))
		for _, c := range overrides[name] {
			norm := normalizeChord(c)
			if norm == "" {
				return nil, fmt.Errorf("empty key chord for action %q", name)
			}
			chords = append(chords, norm)
		}
		out[scope][a] = chords
	}
	return out, nil
}

func normalizeChord(c string) string {
	return strings.Join(strings.Fields(c), " ")
}

// Conflicts reports chords bound to more than one action within a scope.
// complete and next_suggestion may share chords: the first opens the list and
// the second cycles it.
func (s Set) Conflicts() []string {
	var out []string
	for _, scope := range []Scope{ScopeGlobal, ScopeEditor, ScopeViewer} {
		owners := map[string][]Action{}
		for a, chords := range s[scope] {
			for _, c := range chords {
				owners[c] = append(owners[c], a)
			}
		}
		for chord, actions := range owners {
			sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
			if len(actions) < 2 || sharedSuggestionKey(actions) {
				continue
			}
			out = append(out, fmt.Sprintf("%s: %q bound to %v", scope, chord, actions))
		}
	}
	sort.Strings(out)
	return out
}

func sharedSuggestionKey(sorted []Action) bool {
	return len(sorted) == 2 && sorted[0] == ActionComplete && sorted[1] == ActionNextSuggestion
}
