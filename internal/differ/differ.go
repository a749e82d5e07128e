package differ

import (
	"fmt"
	"strings"
)

// Engine names a diff algorithm.
type Engine string

const (
	JSONPatch  Engine = "json-patch"
	Structural Engine = "structural"
	Unified    Engine = "unified"
)

// Engines lists every supported engine in display order.
var Engines = []Engine{JSONPatch, Structural, Unified}

// ParseEngine validates an engine name. Matching is case-insensitive and
// accepts "jsonpatch" for json-patch.
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json-patch", "jsonpatch", "patch":
		return JSONPatch, nil
	case "structural", "tree":
		return Structural, nil
	case "unified", "text":
		return Unified, nil
	}
	return "", fmt.Errorf("unknown diff engine %q (valid: %s)", name, strings.Join(engineNames(), ", "))
}

func engineNames() []string {
	names := make([]string, len(Engines))
	for i, e := range Engines {
		names[i] = string(e)
	}
	return names
}

// Input is one side of a comparison.
type Input struct {
	// Label names the side in headers, e.g. "left[3]".
	Label string

	// Doc is the raw JSON document.
	Doc []byte
}

// Result is the outcome of a comparison.
type Result struct {
	Engine Engine
	Left   string
	Right  string

	// Identical is set when the documents are deep-equal. Body and
	// Changes are empty in that case.
	Identical bool

	// Ops counts patch operations, changes or changed lines depending on
	// the engine.
	Ops int

	// Body is the plain-text diff artifact.
	Body string

	// Changes is populated by the structural engine.
	Changes []Change
}

// Header returns the one-line plain-text banner for the result.
func (r *Result) Header() string {
	switch r.Engine {
	case JSONPatch:
		return fmt.Sprintf("diff %s -> %s (%d ops) [json-patch]", r.Left, r.Right, r.Ops)
	case Structural:
		return fmt.Sprintf("diff %s → %s (%d changes) [structural]", r.Left, r.Right, r.Ops)
	default:
		return fmt.Sprintf("diff %s -> %s (%d lines) [%s]", r.Left, r.Right, r.Ops, r.Engine)
	}
}

// Differ compares two documents.
//
// On a serialization failure Diff returns a Result whose Body is the
// engine's safe empty fallback together with the error; callers log the
// error and may still render the Result.
type Differ interface {
	Diff(left, right Input) (*Result, error)
}

// New returns the Differ for an engine.
func New(engine Engine) (Differ, error) {
	switch engine {
	case JSONPatch:
		return PatchDiffer{}, nil
	case Structural:
		return StructuralDiffer{}, nil
	case Unified:
		return UnifiedDiffer{Context: 3}, nil
	}
	return nil, fmt.Errorf("unknown diff engine %q", engine)
}

// compareOrFallback runs the equality check shared by every engine.
// It returns a finished Result when the documents are equal or cannot be
// decoded.
func compareOrFallback(engine Engine, fallback string, left, right Input) (*Result, bool, error) {
	res := &Result{Engine: engine, Left: left.Label, Right: right.Label}
	equal, err := Equal(left.Doc, right.Doc)
	if err != nil {
		res.Body = fallback
		return res, true, fmt.Errorf("%s diff %s -> %s: %w", engine, left.Label, right.Label, err)
	}
	if equal {
		res.Identical = true
		return res, true, nil
	}
	return res, false, nil
}
