package differ

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wI2L/jsondiff"
)

// PatchDiffer emits RFC 6902 operations turning left into right.
type PatchDiffer struct{}

// Diff implements Differ. The fallback body is "[]".
func (PatchDiffer) Diff(left, right Input) (*Result, error) {
	res, done, err := compareOrFallback(JSONPatch, "[]", left, right)
	if done {
		return res, err
	}

	patch, err := jsondiff.CompareJSON(left.Doc, right.Doc)
	if err != nil {
		res.Body = "[]"
		return res, fmt.Errorf("json-patch diff %s -> %s: %w", left.Label, right.Label, err)
	}
	if len(patch) == 0 {
		// Values that only differ beyond float64 precision.
		res.Body = "[]"
		return res, nil
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		res.Body = "[]"
		return res, fmt.Errorf("json-patch marshal: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		res.Body = "[]"
		return res, fmt.Errorf("json-patch indent: %w", err)
	}
	res.Ops = len(patch)
	res.Body = buf.String()
	return res, nil
}
