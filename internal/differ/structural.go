package differ

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wI2L/jsondiff"

	"github.com/roach88/tracker/internal/ir"
)

// ChangeKind classifies one line of a structural diff.
type ChangeKind int

const (
	// Descend introduces nested changes under Key.
	Descend ChangeKind = iota + 1
	// Modified is a scalar (or type) change from Old to New.
	Modified
	// Removed is a member present only on the left.
	Removed
	// Added is a member present only on the right.
	Added
	// ArrayChanged reports differing arrays by length only.
	ArrayChanged
)

// Change is one line of a structural diff, in render order.
type Change struct {
	Kind ChangeKind

	// Path is the dot-joined member path, e.g. "data.status".
	Path string

	// Key is the last member name. Empty for a type change directly below
	// a Descend line or at the document root.
	Key string

	// Depth is the nesting level used for indentation.
	Depth int

	// Old and New are display forms of the values. Strings are quoted.
	Old string
	New string

	// OldLen and NewLen are set for ArrayChanged.
	OldLen int
	NewLen int
}

// String renders the change without indentation or color.
func (c Change) String() string {
	switch c.Kind {
	case Descend:
		return c.Key
	case Modified:
		if c.Key == "" {
			return fmt.Sprintf("%s → %s", c.Old, c.New)
		}
		return fmt.Sprintf("%s: %s → %s", c.Key, c.Old, c.New)
	case Removed:
		return fmt.Sprintf("%s: %s (removed)", c.Key, c.Old)
	case Added:
		return fmt.Sprintf("%s: (added) %s", c.Key, c.New)
	case ArrayChanged:
		return fmt.Sprintf("[array changed: %d items → %d items]", c.OldLen, c.NewLen)
	}
	return ""
}

// StructuralDiffer lists the changes of a JSON patch as a tree with object
// members in sorted order. Arrays are compared as a whole.
type StructuralDiffer struct{}

// Diff implements Differ. The fallback body is "{}".
func (StructuralDiffer) Diff(left, right Input) (*Result, error) {
	res, done, err := compareOrFallback(Structural, "{}", left, right)
	if done {
		return res, err
	}

	lv, err := ir.DecodeJSON(left.Doc)
	if err != nil {
		res.Body = "{}"
		return res, fmt.Errorf("structural diff: %w", err)
	}
	rv, err := ir.DecodeJSON(right.Doc)
	if err != nil {
		res.Body = "{}"
		return res, fmt.Errorf("structural diff: %w", err)
	}

	patch, err := compareExact(lv, rv)
	if err != nil {
		res.Body = "{}"
		return res, fmt.Errorf("structural diff: %w", err)
	}
	changes := structuralChanges(lv, rv, patch)

	res.Changes = changes
	res.Body = RenderChanges(changes)
	for _, c := range changes {
		if c.Kind != Descend {
			res.Ops++
		}
	}
	return res, nil
}

// RenderChanges renders a change list as indented plain text, two spaces
// per level, one change per line.
func RenderChanges(changes []Change) string {
	var b strings.Builder
	for i, c := range changes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", c.Depth))
		b.WriteString(c.String())
	}
	return b.String()
}

// changeNode is one member path in the change tree. A node either carries
// the change reported at that path or has changed children.
type changeNode struct {
	leaf     *Change
	nested   bool // leaf renders under a Descend line with no key
	children map[string]*changeNode
}

func (n *changeNode) child(key string) *changeNode {
	if n.children == nil {
		n.children = make(map[string]*changeNode)
	}
	c, ok := n.children[key]
	if !ok {
		c = &changeNode{}
		n.children[key] = c
	}
	return c
}

// structuralChanges turns a patch between l and r into the render-ordered
// change list. Operations below an array collapse into one ArrayChanged
// line for the whole array.
func structuralChanges(l, r any, patch jsondiff.Patch) []Change {
	root := &changeNode{}
	for _, op := range patch {
		if op.Type == jsondiff.OperationTest {
			continue
		}
		tokens, array := collapseArrays(l, parsePointer(op.Path))

		node := root
		for _, tok := range tokens {
			node = node.child(tok)
		}
		if node.leaf != nil {
			continue
		}
		node.leaf, node.nested = leafChange(l, r, tokens, op.Type, array)
	}

	var out []Change
	renderNode(&out, root, "", 0)
	return out
}

// collapseArrays truncates tokens at the first array on the left side.
func collapseArrays(l any, tokens []string) ([]string, bool) {
	node := l
	for i, tok := range tokens {
		switch val := node.(type) {
		case []any:
			return tokens[:i], true
		case map[string]any:
			node = val[tok]
		default:
			return tokens, false
		}
	}
	return tokens, false
}

func leafChange(l, r any, tokens []string, opType string, array bool) (*Change, bool) {
	lv, inLeft := lookup(l, tokens)
	rv, inRight := lookup(r, tokens)

	if la, ok := lv.([]any); ok && (array || isArray(rv)) {
		ra, _ := rv.([]any)
		return &Change{Kind: ArrayChanged, OldLen: len(la), NewLen: len(ra)}, true
	}
	switch {
	case opType == jsondiff.OperationRemove || (inLeft && !inRight):
		return &Change{Kind: Removed, Old: display(lv)}, false
	case len(tokens) > 0 && (opType == jsondiff.OperationAdd || !inLeft):
		return &Change{Kind: Added, New: display(rv)}, false
	}
	return &Change{Kind: Modified, Old: display(lv), New: display(rv)}, isContainer(lv) || isContainer(rv)
}

func renderNode(out *[]Change, n *changeNode, path string, depth int) {
	if n.leaf != nil && path == "" {
		*out = append(*out, *n.leaf)
		return
	}
	for _, key := range ir.SortedKeys(n.childSet()) {
		c := n.children[key]
		p := key
		if path != "" {
			p = path + "." + key
		}
		switch {
		case c.leaf == nil:
			*out = append(*out, Change{Kind: Descend, Path: p, Key: key, Depth: depth})
			renderNode(out, c, p, depth+1)
		case c.nested:
			*out = append(*out, Change{Kind: Descend, Path: p, Key: key, Depth: depth})
			leaf := *c.leaf
			leaf.Path, leaf.Depth = p, depth+1
			*out = append(*out, leaf)
		default:
			leaf := *c.leaf
			leaf.Path, leaf.Key, leaf.Depth = p, key, depth
			*out = append(*out, leaf)
		}
	}
}

func (n *changeNode) childSet() map[string]any {
	set := make(map[string]any, len(n.children))
	for k := range n.children {
		set[k] = nil
	}
	return set
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// parsePointer splits an RFC 6901 JSON pointer into member names.
func parsePointer(ptr string) []string {
	if ptr == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, p := range parts {
		parts[i] = pointerUnescaper.Replace(p)
	}
	return parts
}

// lookup follows object members from v.
func lookup(v any, tokens []string) (any, bool) {
	for _, tok := range tokens {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[tok]; !ok {
			return nil, false
		}
	}
	return v, true
}

func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// display formats a value for a change line. Strings are quoted without
// escaping; everything else is canonical JSON.
func display(v any) string {
	switch val := v.(type) {
	case string:
		return `"` + val + `"`
	case json.Number:
		return val.String()
	}
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
