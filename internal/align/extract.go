package align

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/tracker/internal/ir"
)

// Extractor derives an alignment key from a JSON payload.
//
// Implementations must be pure: the same payload always yields the same
// key. A payload that is not valid JSON yields the absent key.
type Extractor interface {
	Extract(payload []byte) ir.Key
}

// PathExtractor reads the key at a dot-separated field path.
type PathExtractor struct {
	path     string
	segments []string
}

// NewPath builds a PathExtractor for a path like "message.phase".
//
// Segments are literal object field names; there is no array indexing or
// wildcard syntax. An empty path or an empty segment ("a..b", ".a") is
// rejected.
func NewPath(path string) (*PathExtractor, error) {
	if path == "" {
		return nil, fmt.Errorf("alignment path is empty")
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("alignment path %q: segment %d is empty", path, i)
		}
	}
	return &PathExtractor{path: path, segments: segments}, nil
}

// MustPath is like NewPath but panics on error.
// Use only in tests or with constant paths.
func MustPath(path string) *PathExtractor {
	p, err := NewPath(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Path returns the configured path.
func (p *PathExtractor) Path() string {
	return p.path
}

// Extract walks the payload one object field per segment.
//
// The first missing field or non-object intermediate yields the absent key.
// Scalar leaves become strings: strings verbatim, numbers by their JSON
// literal text, booleans as "true"/"false". Null, object and array leaves
// yield the absent key.
func (p *PathExtractor) Extract(payload []byte) ir.Key {
	if !gjson.ValidBytes(payload) {
		return ir.NoKey
	}
	cur := gjson.ParseBytes(payload)
	for _, seg := range p.segments {
		next, ok := field(cur, seg)
		if !ok {
			return ir.NoKey
		}
		cur = next
	}
	return scalarKey(cur)
}

// DefaultHeuristicFields are the top-level fields HeuristicExtractor tries,
// in order.
var DefaultHeuristicFields = []string{
	"type",
	"event_type",
	"message_type",
	"phase",
	"state",
	"action",
	"args",
}

// HeuristicExtractor picks the first scalar among a list of well-known
// top-level fields. Non-scalar matches are skipped, not fatal.
type HeuristicExtractor struct {
	fields []string
}

// NewHeuristic returns a HeuristicExtractor over DefaultHeuristicFields.
func NewHeuristic() *HeuristicExtractor {
	return &HeuristicExtractor{fields: DefaultHeuristicFields}
}

// Extract implements Extractor.
func (h *HeuristicExtractor) Extract(payload []byte) ir.Key {
	if !gjson.ValidBytes(payload) {
		return ir.NoKey
	}
	root := gjson.ParseBytes(payload)
	for _, name := range h.fields {
		v, ok := field(root, name)
		if !ok {
			continue
		}
		if k := scalarKey(v); k.Present() {
			return k
		}
	}
	return ir.NoKey
}

// field looks up an exact object member name. Dots and wildcard characters
// in the name carry no meaning, so gjson path syntax is bypassed.
// Duplicate members resolve to the last occurrence.
func field(obj gjson.Result, name string) (gjson.Result, bool) {
	if !obj.IsObject() {
		return gjson.Result{}, false
	}
	var (
		found gjson.Result
		ok    bool
	)
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == name {
			found, ok = v, true
		}
		return true
	})
	return found, ok
}

func scalarKey(v gjson.Result) ir.Key {
	switch v.Type {
	case gjson.String:
		return ir.KeyOf(v.Str)
	case gjson.Number:
		return ir.KeyOf(v.Raw)
	case gjson.True:
		return ir.KeyOf("true")
	case gjson.False:
		return ir.KeyOf("false")
	default:
		return ir.NoKey
	}
}
