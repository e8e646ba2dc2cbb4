// Package completion suggests path continuations for the query being typed.
// The trailing path expression is resolved against the loaded documents and
// the children found there are ranked against the partial token.
package completion

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/oakwood-commons/jnav/internal/jsonv"
	"github.com/oakwood-commons/jnav/internal/tree"
)

// CompletionKind indicates the form of a suggestion.
type CompletionKind int

const (
	CompletionIdentity CompletionKind = iota // "."
	CompletionField                          // .key
	CompletionIndex                          // [n]
)

// String returns a short label for the kind.
func (k CompletionKind) String() string {
	switch k {
	case CompletionField:
		return "key"
	case CompletionIndex:
		return "index"
	default:
		return "identity"
	}
}

// Completion is one ranked suggestion.
type Completion struct {
	// Text replaces the query from Tail.ReplaceFrom up to the cursor.
	Text string
	// Display is the bare key or index shown in the list.
	Display string
	Kind    CompletionKind
	// Score is the fuzzy score; prefix matches carry PrefixScore.
	Score int
}

// PrefixScore marks candidates that matched the partial token as a prefix.
const PrefixScore = 1 << 30

// Options sets the chunk sizes used while searching.
type Options struct {
	// LoadChunk is how many raw keys or indices are read at a time.
	LoadChunk int
	// ResultChunk is how many candidates are matched between cancellation checks.
	ResultChunk int
}

// DefaultOptions mirrors the shipped configuration.
var DefaultOptions = Options{LoadChunk: 50000, ResultChunk: 100}

// Engine completes paths against a fixed set of documents.
type Engine struct {
	roots []any
	opts  Options
}

// NewEngine returns an engine over roots.
func NewEngine(roots []any, opts Options) *Engine {
	if opts.LoadChunk <= 0 {
		opts.LoadChunk = DefaultOptions.LoadChunk
	}
	if opts.ResultChunk <= 0 {
		opts.ResultChunk = DefaultOptions.ResultChunk
	}
	return &Engine{roots: roots, opts: opts}
}

// Result is the outcome of one completion request.
type Result struct {
	Tail  Tail
	Items []Completion
}

// Complete ranks the continuations of the path ending text. Text that does not
// end in a path, or a path that resolves to nothing, yields no items and no
// error. The only error returned is the context's, when the search was
// abandoned.
func (e *Engine) Complete(ctx context.Context, text string) (Result, error) {
	tail, ok := ParseTail(text)
	if !ok {
		return Result{}, nil
	}
	nodes := Resolve(e.roots, tail.Complete)
	if len(nodes) == 0 {
		return Result{Tail: tail}, nil
	}

	items, err := e.rank(ctx, tail.Partial, newCandidateSource(tail, nodes))
	if err != nil {
		return Result{}, err
	}
	return Result{Tail: tail, Items: items}, nil
}

// Resolve walks segs from every root. Iterate fans out to all children;
// missing members and out of range indices drop the branch.
func Resolve(roots []any, segs []Segment) []any {
	cur := roots
	for _, s := range segs {
		var next []any
		for _, v := range cur {
			switch seg := s.(type) {
			case Key:
				if f, ok := jsonv.Field(v, seg.Name); ok {
					next = append(next, f)
				}
			case Index:
				arr, ok := v.([]any)
				if !ok {
					continue
				}
				i := seg.N
				if i < 0 {
					i += len(arr)
				}
				if i >= 0 && i < len(arr) {
					next = append(next, arr[i])
				}
			case Iterate:
				switch c := v.(type) {
				case []any:
					next = append(next, c...)
				default:
					for _, k := range jsonv.Keys(v) {
						f, _ := jsonv.Field(v, k)
						next = append(next, f)
					}
				}
			}
		}
		cur = next
		if len(cur) == 0 {
			return nil
		}
	}
	return cur
}

type candidate struct {
	match string
	item  Completion
}

// candidateSource produces the distinct continuations available below
// nodes, in first-seen order, reading keys and indices only as chunks are
// requested.
type candidateSource struct {
	nodes    []any
	prefix   string
	identity bool

	wantKeys bool
	node     int
	keys     []string
	loaded   bool
	key      int
	seen     map[string]struct{}

	wantIndices bool
	longest     int
	index       int
}

func newCandidateSource(tail Tail, nodes []any) *candidateSource {
	s := &candidateSource{
		nodes:       nodes,
		identity:    tail.AtRoot() && tail.Kind == TokenKey && tail.Partial == "",
		wantKeys:    tail.Kind != TokenIndex,
		seen:        map[string]struct{}{},
		wantIndices: tail.Kind != TokenKey || tail.Partial == "",
		longest:     -1,
	}
	if tail.Dotted {
		s.prefix = "."
	}
	return s
}

// next reads at most n raw keys or indices and returns the candidates among
// them. more is false once the source is exhausted.
func (s *candidateSource) next(n int) (out []candidate, more bool) {
	budget := n
	if s.identity {
		s.identity = false
		budget--
		out = append(out, candidate{match: "", item: Completion{Text: ".", Display: ".", Kind: CompletionIdentity}})
	}

	for s.wantKeys && budget > 0 {
		if s.node == len(s.nodes) {
			s.wantKeys = false
			break
		}
		if !s.loaded {
			s.keys, s.key, s.loaded = jsonv.Keys(s.nodes[s.node]), 0, true
		}
		budget--
		if s.key == len(s.keys) {
			s.node++
			s.loaded = false
			continue
		}
		k := s.keys[s.key]
		s.key++
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}
		out = append(out, candidate{match: k, item: Completion{Text: tree.KeySegment(k), Display: k, Kind: CompletionField}})
	}

	if s.wantIndices && budget > 0 && s.longest < 0 {
		s.longest = 0
		for _, v := range s.nodes {
			if arr, ok := v.([]any); ok && len(arr) > s.longest {
				s.longest = len(arr)
			}
		}
	}
	for s.wantIndices && budget > 0 && s.index < s.longest {
		budget--
		d := strconv.Itoa(s.index)
		s.index++
		out = append(out, candidate{match: d, item: Completion{Text: s.prefix + "[" + d + "]", Display: d, Kind: CompletionIndex}})
	}
	return out, !s.exhausted()
}

func (s *candidateSource) exhausted() bool {
	indicesDone := !s.wantIndices || (s.longest >= 0 && s.index >= s.longest)
	return !s.identity && !s.wantKeys && indicesDone
}

type scored struct {
	order int
	item  Completion
}

// rank keeps candidates matching partial: prefix matches first in original
// order, then fuzzy matches by descending score. Candidates are pulled from src
// in load chunks and matched in result chunks, checking ctx before every
// chunk of either kind.
func (e *Engine) rank(ctx context.Context, partial string, src *candidateSource) ([]Completion, error) {
	var prefixed, fuzzed []scored
	order := 0
	for more := true; more; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var chunk []candidate
		chunk, more = src.next(e.opts.LoadChunk)
		for lo := 0; lo < len(chunk); lo += e.opts.ResultChunk {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			batch := chunk[lo:min(lo+e.opts.ResultChunk, len(chunk))]
			base := order + lo

			var rest []string
			var restIdx []int
			for i, c := range batch {
				if strings.HasPrefix(c.match, partial) {
					c.item.Score = PrefixScore
					prefixed = append(prefixed, scored{order: base + i, item: c.item})
					continue
				}
				rest = append(rest, c.match)
				restIdx = append(restIdx, i)
			}
			if partial == "" || len(rest) == 0 {
				continue
			}
			for _, m := range fuzzy.Find(partial, rest) {
				c := batch[restIdx[m.Index]]
				c.item.Score = m.Score
				fuzzed = append(fuzzed, scored{order: base + restIdx[m.Index], item: c.item})
			}
		}
		order += len(chunk)
	}

	sort.SliceStable(fuzzed, func(i, j int) bool {
		if fuzzed[i].item.Score != fuzzed[j].item.Score {
			return fuzzed[i].item.Score > fuzzed[j].item.Score
		}
		return fuzzed[i].order < fuzzed[j].order
	})
	out := make([]Completion, 0, len(prefixed)+len(fuzzed))
	for _, s := range prefixed {
		out = append(out, s.item)
	}
	for _, s := range fuzzed {
		out = append(out, s.item)
	}
	return out, nil
}
