package jsonv

import "sort"

// KeyOrder ranks object keys by where they first appear in a set of
// documents. Filter engines hand objects back as plain maps; Apply turns them
// into *Object again so results keep document order.
type KeyOrder map[string]int

// NewKeyOrder records the first position of every object key in docs.
func NewKeyOrder(docs []any) KeyOrder {
	o := KeyOrder{}
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case *Object:
			for _, k := range t.Keys {
				o.add(k)
				walk(t.Fields[k])
			}
		case map[string]any:
			for _, k := range Keys(t) {
				o.add(k)
				walk(t[k])
			}
		case []any:
			for _, e := range t {
				walk(e)
			}
		}
	}
	for _, d := range docs {
		walk(d)
	}
	return o
}

func (o KeyOrder) add(key string) {
	if _, ok := o[key]; !ok {
		o[key] = len(o)
	}
}

// Less orders known keys by rank, ahead of unknown keys, which sort
// lexically.
func (o KeyOrder) Less(a, b string) bool {
	ra, okA := o[a]
	rb, okB := o[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// Apply returns v with every plain map replaced by an *Object whose keys
// follow o. v is not modified.
func (o KeyOrder) Apply(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return o.Less(keys[i], keys[j]) })
		obj := &Object{Keys: keys, Fields: make(map[string]any, len(t))}
		for _, k := range keys {
			obj.Fields[k] = o.Apply(t[k])
		}
		return obj
	case []any:
		return o.ApplyAll(t)
	default:
		return v
	}
}

// ApplyAll applies o to every value.
func (o KeyOrder) ApplyAll(values []any) []any {
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = o.Apply(v)
	}
	return out
}
