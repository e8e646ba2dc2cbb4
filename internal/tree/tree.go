// Package tree holds the foldable tree built from the displayed JSON values.
// Nodes live in an arena and are addressed by NodeID; a tree is rebuilt
// wholesale whenever the displayed values change, so ids are only meaningful
// within the tree that issued them.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jnav/internal/jsonv"
)

// NodeID indexes a node in its tree's arena.
type NodeID int

// NoNode is the parent of a root.
const NoNode NodeID = -1

// Node is one JSON value inside a document tree.
type Node struct {
	Parent NodeID
	// Key is the member name when the parent is an object.
	Key string
	// Index is the element position when the parent is an array, else -1.
	Index    int
	Kind     jsonv.Kind
	Depth    int
	Value    any
	Children []NodeID
	// Len is the real number of children. For arrays cut by the row limit it
	// is larger than len(Children).
	Len      int
	Expanded bool
}

// Options controls how a tree is built and flattened.
type Options struct {
	// ExpandDepth opens every container whose depth is <= ExpandDepth.
	// Roots are depth 0; a negative value starts fully collapsed.
	ExpandDepth int
	// LimitLength caps the child rows of an array; 0 means no limit.
	LimitLength int
}

// Tree is an arena of nodes with one root per displayed value.
type Tree struct {
	nodes []Node
	roots []NodeID
	opts  Options
}

// Build creates a tree with one root per value.
func Build(values []any, opts Options) *Tree {
	t := &Tree{opts: opts}
	for _, v := range values {
		t.roots = append(t.roots, t.add(v, NoNode, "", -1, 0))
	}
	return t
}

func (t *Tree) add(v any, parent NodeID, key string, index, depth int) NodeID {
	id := NodeID(len(t.nodes))
	kind := jsonv.KindOf(v)
	t.nodes = append(t.nodes, Node{
		Parent:   parent,
		Key:      key,
		Index:    index,
		Kind:     kind,
		Depth:    depth,
		Value:    v,
		Len:      jsonv.Len(v),
		Expanded: kind.IsContainer() && depth <= t.opts.ExpandDepth,
	})

	var children []NodeID
	switch kind {
	case jsonv.KindObject:
		for _, k := range jsonv.Keys(v) {
			f, _ := jsonv.Field(v, k)
			children = append(children, t.add(f, id, k, -1, depth+1))
		}
	case jsonv.KindArray:
		arr := v.([]any)
		n := len(arr)
		if t.opts.LimitLength > 0 && n > t.opts.LimitLength {
			n = t.opts.LimitLength
		}
		for i := 0; i < n; i++ {
			children = append(children, t.add(arr[i], id, "", i, depth+1))
		}
	}
	t.nodes[id].Children = children
	return id
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Roots returns the root ids in document order.
func (t *Tree) Roots() []NodeID { return t.roots }

// Node returns the node for id. It panics on an id from another tree.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// Values returns the values backing the roots.
func (t *Tree) Values() []any {
	out := make([]any, len(t.roots))
	for i, id := range t.roots {
		out[i] = t.nodes[id].Value
	}
	return out
}

// Toggle flips the fold state of a container. Scalars are left alone and
// false is returned.
func (t *Tree) Toggle(id NodeID) bool {
	n := &t.nodes[id]
	if !n.Kind.IsContainer() {
		return false
	}
	n.Expanded = !n.Expanded
	return true
}

// ExpandAll opens every container.
func (t *Tree) ExpandAll() { t.setAll(true) }

// CollapseAll folds every container. Root rows stay visible.
func (t *Tree) CollapseAll() { t.setAll(false) }

func (t *Tree) setAll(open bool) {
	for i := range t.nodes {
		if t.nodes[i].Kind.IsContainer() {
			t.nodes[i].Expanded = open
		}
	}
}

// RowKind distinguishes node rows from synthetic rows.
type RowKind int

const (
	RowNode RowKind = iota
	// RowTruncated stands in for the array elements beyond the row limit.
	RowTruncated
)

// Row is one line of the flattened tree.
type Row struct {
	Kind  RowKind
	ID    NodeID
	Depth int
	// Omitted is the number of hidden elements on a RowTruncated row.
	Omitted int
}

// Flatten walks the tree depth-first in pre-order, descending only into
// expanded containers.
func (t *Tree) Flatten() []Row {
	rows := make([]Row, 0, len(t.nodes))
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := &t.nodes[id]
		rows = append(rows, Row{Kind: RowNode, ID: id, Depth: n.Depth})
		if !n.Expanded {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
		if omitted := n.Len - len(n.Children); n.Kind == jsonv.KindArray && omitted > 0 {
			rows = append(rows, Row{Kind: RowTruncated, ID: id, Depth: n.Depth + 1, Omitted: omitted})
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return rows
}

// Label renders the plain text of a row, without indentation.
func (t *Tree) Label(r Row) string {
	if r.Kind == RowTruncated {
		return fmt.Sprintf("… %d more", r.Omitted)
	}
	n := &t.nodes[r.ID]
	var b strings.Builder
	switch {
	case n.Index >= 0:
		b.WriteString(strconv.Itoa(n.Index))
		b.WriteString(": ")
	case n.Parent != NoNode:
		b.WriteString(n.Key)
		b.WriteString(": ")
	}
	switch n.Kind {
	case jsonv.KindObject:
		b.WriteString(openClose("{", "}", n))
	case jsonv.KindArray:
		b.WriteString(openClose("[", "]", n))
	default:
		b.WriteString(Scalar(n.Value))
	}
	return b.String()
}

func openClose(open, close string, n *Node) string {
	switch {
	case n.Len == 0:
		return open + close
	case n.Expanded:
		return open
	default:
		return open + "…" + close
	}
}

// Scalar renders a scalar value as JSON text.
func Scalar(v any) string {
	if v == nil {
		return "null"
	}
	out, err := marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return out
}

func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PathOf renders the jq path from the node's root to the node, e.g.
// .items[0]."content-type".
func (t *Tree) PathOf(id NodeID) string {
	var segs []string
	for cur := id; cur != NoNode; cur = t.nodes[cur].Parent {
		n := &t.nodes[cur]
		switch {
		case n.Index >= 0:
			segs = append(segs, "["+strconv.Itoa(n.Index)+"]")
		case n.Parent != NoNode:
			segs = append(segs, KeySegment(n.Key))
		}
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteString(segs[i])
	}
	path := b.String()
	if path == "" || strings.HasPrefix(path, "[") {
		path = "." + path
	}
	return path
}

// KeySegment renders an object key as a jq path segment.
func KeySegment(key string) string {
	if identifier.MatchString(key) {
		return "." + key
	}
	q, _ := marshal(key)
	return "." + q
}
