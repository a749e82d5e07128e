package differ

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/wI2L/jsondiff"

	"github.com/roach88/tracker/internal/ir"
)

// Equal reports whether two JSON documents are deep-equal.
//
// Object member order and whitespace are ignored. Numbers compare by exact
// value, so 1 and 1.0 are equal while 0.1 and 0.10000000000000001 are not.
func Equal(a, b []byte) (bool, error) {
	av, err := ir.DecodeJSON(a)
	if err != nil {
		return false, fmt.Errorf("decode left: %w", err)
	}
	bv, err := ir.DecodeJSON(b)
	if err != nil {
		return false, fmt.Errorf("decode right: %w", err)
	}
	patch, err := compareExact(av, bv)
	if err != nil {
		return false, err
	}
	return len(patch) == 0, nil
}

// compareExact diffs two decoded documents with numbers rewritten to their
// exact rational form, so the patch only holds value changes.
func compareExact(l, r any) (jsondiff.Patch, error) {
	patch, err := jsondiff.CompareWithoutMarshal(exactNumbers(l), exactNumbers(r))
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	return patch, nil
}

// exactNumbers returns a copy of v with every json.Number replaced by its
// reduced fraction ("1.0" and "1e0" both become "1", "0.5" becomes "1/2").
// The result is only fit for comparison.
func exactNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		r, ok := new(big.Rat).SetString(val.String())
		if !ok {
			return val
		}
		return json.Number(r.RatString())
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = exactNumbers(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = exactNumbers(e)
		}
		return out
	}
	return v
}
