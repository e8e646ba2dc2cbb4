package keymap

import (
	"sort"
	"strings"
)

// Status is the outcome of feeding one key to a Dispatcher.
type Status int

const (
	// Unbound means no chord starts with the keys seen so far.
	Unbound Status = iota
	// Pending means the keys so far are a strict prefix of a chord.
	Pending
	// Matched means a chord completed.
	Matched
)

type node struct {
	children map[string]*node
	actions  []Action
}

// Dispatcher resolves key presses against one keymap using a trie over the
// keys of each chord.
type Dispatcher struct {
	root    *node
	pending []string
}

// NewDispatcher builds the trie for km.
func NewDispatcher(km Keymap) *Dispatcher {
	root := &node{}
	actions := make([]Action, 0, len(km))
	for a := range km {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	for _, a := range actions {
		for _, chord := range km[a] {
			cur := root
			for _, key := range strings.Fields(chord) {
				if cur.children == nil {
					cur.children = map[string]*node{}
				}
				next, ok := cur.children[key]
				if !ok {
					next = &node{}
					cur.children[key] = next
				}
				cur = next
			}
			if cur != root {
				cur.actions = append(cur.actions, a)
			}
		}
	}
	return &Dispatcher{root: root}
}

// Feed consumes one key. On Matched it returns every action bound to the
// completed chord. When a pending sequence is broken, the pending keys are
// dropped and key is resolved on its own.
func (d *Dispatcher) Feed(key string) ([]Action, Status) {
	cur := d.root
	for _, k := range d.pending {
		cur = cur.children[k]
	}
	next := cur.children[key]
	if next == nil {
		if len(d.pending) > 0 {
			d.pending = nil
			return d.Feed(key)
		}
		return nil, Unbound
	}
	if len(next.actions) > 0 {
		d.pending = nil
		return next.actions, Matched
	}
	d.pending = append(d.pending, key)
	return nil, Pending
}

// Pending returns the keys of an unfinished sequence.
func (d *Dispatcher) Pending() []string { return d.pending }

// Reset drops any unfinished sequence.
func (d *Dispatcher) Reset() { d.pending = nil }

// Has reports whether actions contains a.
func Has(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
