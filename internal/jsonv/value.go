// Package jsonv defines the in-memory JSON value representation shared by the
// loader, the tree model and the filter adapters.
//
// Values are the usual encoding/json shapes (nil, bool, float64, int, string,
// []any, map[string]any) plus *Object, an insertion-ordered object produced by
// the streaming loader so that the viewer can show keys in document order.
package jsonv

import (
	"encoding/json"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies a JSON value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON type name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// IsContainer reports whether values of this kind have children.
func (k Kind) IsContainer() bool { return k == KindArray || k == KindObject }

// Object is a JSON object that remembers key insertion order.
type Object struct {
	Keys   []string
	Fields map[string]any
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{Fields: map[string]any{}}
}

// Set adds or replaces a member. A replaced key keeps its original position.
func (o *Object) Set(key string, v any) {
	if _, ok := o.Fields[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Fields[key] = v
}

// Get returns the member value for key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.Fields[key]
	return v, ok
}

// Len returns the number of members.
func (o *Object) Len() int { return len(o.Keys) }

// KindOf returns the kind of v. Unknown types are reported as null.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64, float32, int, int64, int32, uint64, json.Number, *big.Int:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case *Object, map[string]any:
		return KindObject
	default:
		return KindNull
	}
}

// Keys returns the member keys of an object value in display order:
// insertion order for *Object, sorted order for plain maps.
func Keys(v any) []string {
	switch o := v.(type) {
	case *Object:
		return o.Keys
	case map[string]any:
		keys := make([]string, 0, len(o))
		for k := range o {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	default:
		return nil
	}
}

// Field returns the member of an object value.
func Field(v any, key string) (any, bool) {
	switch o := v.(type) {
	case *Object:
		return o.Get(key)
	case map[string]any:
		f, ok := o[key]
		return f, ok
	default:
		return nil, false
	}
}

// Len returns the number of children of a container, or 0 for scalars.
func Len(v any) int {
	switch c := v.(type) {
	case *Object:
		return c.Len()
	case map[string]any:
		return len(c)
	case []any:
		return len(c)
	default:
		return 0
	}
}

// Plain converts v to the map/slice shapes expected by filter engines,
// dropping key order and turning json.Number into int, *big.Int or float64.
func Plain(v any) any { return plain(v, true) }

// PlainFloat is Plain for engines without arbitrary precision integers:
// integers beyond the int range become float64.
func PlainFloat(v any) any { return plain(v, false) }

func plain(v any, bigInts bool) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, len(t.Keys))
		for _, k := range t.Keys {
			m[k] = plain(t.Fields[k], bigInts)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, f := range t {
			m[k] = plain(f, bigInts)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = plain(e, bigInts)
		}
		return s
	case json.Number:
		n, ok := Number(t).(json.Number)
		if !ok {
			return plain(Number(t), bigInts)
		}
		f, _ := n.Float64()
		return f
	case *big.Int:
		if bigInts {
			return t
		}
		f, _ := new(big.Float).SetInt(t).Float64()
		return f
	default:
		return v
	}
}

// Number converts a JSON number literal without losing what it says: int
// when integral and in range, *big.Int for larger integers, float64 when it
// prints back as the same text. Anything else (1.0, 1e3, 1e400) stays a
// json.Number so the literal is shown as written.
func Number(n json.Number) any {
	lit := n.String()
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}
	if !strings.ContainsAny(lit, ".eE") {
		if b, ok := new(big.Int).SetString(lit, 10); ok {
			return b
		}
	}
	if f, err := n.Float64(); err == nil && strconv.FormatFloat(f, 'g', -1, 64) == lit {
		return f
	}
	return n
}

// MarshalJSON writes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range o.Keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		vb, err := json.Marshal(o.Fields[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}
