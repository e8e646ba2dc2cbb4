// Package loader reads the documents a session explores. JSON input is
// consumed as a stream of top-level values; YAML (multi-document) and TOML
// inputs are converted to the same value shapes.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jnav/internal/jsonv"
)

// Format names an input encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ValidFormats lists the accepted --format values.
var ValidFormats = []Format{FormatAuto, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat validates a format name; the empty string means auto.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatAuto, nil
	}
	for _, v := range ValidFormats {
		if v == f {
			return f, nil
		}
	}
	return FormatAuto, fmt.Errorf("unsupported input format %q (expected auto, json, yaml or toml)", s)
}

// ErrNoDocuments is returned when the input holds no parseable document.
var ErrNoDocuments = errors.New("no documents could be parsed from input")

// Options controls ingestion.
type Options struct {
	Format Format
	// MaxStreams stops ingestion after this many documents (0 = unlimited).
	MaxStreams int
}

// Result is the outcome of loading an input.
type Result struct {
	Documents []any
	// Skipped holds one error per malformed document that was dropped.
	Skipped []error
	// Truncated is set when MaxStreams cut ingestion short.
	Truncated bool
}

// Load reads every document from src. Malformed JSON documents are skipped and
// reported in Result.Skipped; ErrNoDocuments is returned only when nothing at
// all could be parsed.
func Load(src io.Reader, opts Options) (*Result, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	format := opts.Format
	if format == "" || format == FormatAuto {
		format = DetectFormat(data)
	}

	res := &Result{}
	switch format {
	case FormatYAML:
		docs, err := loadYAML(data)
		if err != nil {
			return nil, err
		}
		res.Documents = docs
	case FormatTOML:
		doc, err := loadTOML(data)
		if err != nil {
			return nil, err
		}
		res.Documents = []any{doc}
	default:
		r := NewReader(data)
		for {
			if opts.MaxStreams > 0 && len(res.Documents) >= opts.MaxStreams {
				res.Truncated = r.More()
				break
			}
			doc, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			var de *DocumentError
			if errors.As(err, &de) {
				res.Skipped = append(res.Skipped, de)
				continue
			}
			if err != nil {
				return nil, err
			}
			res.Documents = append(res.Documents, doc)
		}
	}

	if opts.MaxStreams > 0 && len(res.Documents) > opts.MaxStreams {
		res.Documents = res.Documents[:opts.MaxStreams]
		res.Truncated = true
	}
	if len(res.Documents) == 0 {
		if len(res.Skipped) > 0 {
			return res, fmt.Errorf("%w: %w", ErrNoDocuments, res.Skipped[0])
		}
		return res, ErrNoDocuments
	}
	return res, nil
}

// LoadFile opens path ("-" means stdin) and loads it.
func LoadFile(path string, stdin io.Reader, opts Options) (*Result, error) {
	if path == "" || path == "-" {
		return Load(stdin, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if opts.Format == "" || opts.Format == FormatAuto {
		opts.Format = formatFromExtension(path)
	}
	return Load(f, opts)
}

func formatFromExtension(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".toml"):
		return FormatTOML
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".jsonl"), strings.HasSuffix(lower, ".ndjson"):
		return FormatJSON
	default:
		return FormatAuto
	}
}

// DetectFormat guesses the encoding of data. Anything that starts like a JSON
// value and does not look like TOML is treated as a JSON stream.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatJSON
	}
	c := trimmed[0]
	switch {
	case c == '{' || c == '"' || isDigit(c):
		return FormatJSON
	case c == '-':
		if len(trimmed) > 1 && isDigit(trimmed[1]) {
			return FormatJSON
		}
		return FormatYAML
	}
	if isLikelyTOML(string(trimmed)) {
		return FormatTOML
	}
	if c == '[' {
		return FormatJSON
	}
	for _, lit := range []string{"true", "false", "null"} {
		if bytes.HasPrefix(trimmed, []byte(lit)) {
			return FormatJSON
		}
	}
	return FormatYAML
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// DocumentError reports a malformed JSON document that was skipped.
type DocumentError struct {
	// Index is the zero-based position of the document in the stream.
	Index int
	// Offset is the byte offset where decoding failed.
	Offset int64
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %d (byte %d): %v", e.Index, e.Offset, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Reader yields successive top-level JSON values from a byte slice, keeping
// object keys in document order. After a syntax error it resumes at the next
// line that starts a new value in column 0.
type Reader struct {
	data  []byte
	base  int
	index int
	dec   *json.Decoder
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	r := &Reader{data: data}
	r.reset(0)
	return r
}

func (r *Reader) reset(pos int) {
	r.base = pos
	r.dec = json.NewDecoder(bytes.NewReader(r.data[pos:]))
	r.dec.UseNumber()
}

// More reports whether non-whitespace input remains.
func (r *Reader) More() bool {
	return len(bytes.TrimSpace(r.data[r.base+int(r.dec.InputOffset()):])) > 0
}

// Next returns the next document. It returns io.EOF at the end of input and a
// *DocumentError for a malformed document, after which Next may be called again.
func (r *Reader) Next() (any, error) {
	if !r.More() {
		return nil, io.EOF
	}
	start := r.valueStart()
	v, err := decodeValue(r.dec, true)
	if err == nil {
		r.index++
		return v, nil
	}
	failedAt := max(r.base+int(r.dec.InputOffset()), start)
	de := &DocumentError{Index: r.index, Offset: int64(failedAt), Err: err}
	r.index++
	r.reset(resyncPoint(r.data, failedAt))
	return nil, de
}

// valueStart returns the offset of the first non-space byte not yet consumed.
func (r *Reader) valueStart() int {
	i := r.base + int(r.dec.InputOffset())
	for i < len(r.data) && isSpace(r.data[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// resyncPoint finds the start of the next line, after from, whose first byte
// can begin a top-level JSON value.
func resyncPoint(data []byte, from int) int {
	i := from
	for {
		nl := bytes.IndexByte(data[i:], '\n')
		if nl < 0 {
			return len(data)
		}
		i += nl + 1
		if i < len(data) && startsValue(data[i]) {
			return i
		}
	}
}

func startsValue(c byte) bool {
	switch c {
	case '{', '[', '"', '-', 't', 'f', 'n':
		return true
	}
	return isDigit(c)
}

func decodeValue(dec *json.Decoder, top bool) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if !top && errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := jsonv.NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, eofToUnexpected(err)
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %v", kt)
				}
				v, err := decodeValue(dec, false)
				if err != nil {
					return nil, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, eofToUnexpected(err)
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec, false)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, eofToUnexpected(err)
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		return jsonv.Number(t), nil
	default:
		return t, nil
	}
}

func eofToUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// loadYAML decodes every YAML document, keeping mapping key order.
func loadYAML(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []any
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		v, err := fromYAMLNode(&node)
		if err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if v != nil {
			docs = append(docs, v)
		}
	}
	return docs, nil
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.MappingNode:
		obj := jsonv.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(n.Content[i].Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return jsonv.Plain(normalizeScalar(v)), nil
	}
}

func loadTOML(data []byte) (any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return normalizeTree(doc), nil
}

func normalizeTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, f := range t {
			out[k] = normalizeTree(f)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeTree(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeTree(e)
		}
		return out
	default:
		return normalizeScalar(v)
	}
}

// normalizeScalar maps decoder-specific scalar types onto JSON shapes.
func normalizeScalar(v any) any {
	switch t := v.(type) {
	case nil, bool, string, int, float64:
		return v
	case int64:
		return jsonv.Number(json.Number(fmt.Sprint(t)))
	case uint64:
		return jsonv.Number(json.Number(fmt.Sprint(t)))
	case int32:
		return int(t)
	case float32:
		return float64(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
