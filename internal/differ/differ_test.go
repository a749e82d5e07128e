package differ

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	leftDoc  = `{"id":1,"data":{"amount":"10.00","status":"pending","tags":[1,2]},"user":"a"}`
	rightDoc = `{"id":1,"data":{"amount":"12.00","status":"pending","tags":[1,2,3]},"extra":true}`
)

func in(label, doc string) Input {
	return Input{Label: label, Doc: []byte(doc)}
}

func TestParseEngine(t *testing.T) {
	tests := map[string]Engine{
		"json-patch": JSONPatch,
		"JSONPatch":  JSONPatch,
		"structural": Structural,
		"unified":    Unified,
		" text ":     Unified,
	}
	for name, want := range tests {
		got, err := ParseEngine(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := ParseEngine("serde")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json-patch, structural, unified")
}

func TestIdenticalDocuments(t *testing.T) {
	for _, engine := range Engines {
		t.Run(string(engine), func(t *testing.T) {
			d, err := New(engine)
			require.NoError(t, err)

			res, err := d.Diff(in("left", `{"a":1,"b":[1,2]}`), in("right", ` { "b": [1, 2], "a": 1.0 } `))
			require.NoError(t, err)
			assert.True(t, res.Identical)
			assert.Empty(t, res.Body)
			assert.Zero(t, res.Ops)
		})
	}
}

func TestInvalidInputFallsBack(t *testing.T) {
	fallbacks := map[Engine]string{JSONPatch: "[]", Structural: "{}", Unified: ""}
	for engine, body := range fallbacks {
		t.Run(string(engine), func(t *testing.T) {
			d, err := New(engine)
			require.NoError(t, err)

			res, err := d.Diff(in("left", `{"a":`), in("right", `{}`))
			require.Error(t, err)
			require.NotNil(t, res)
			assert.False(t, res.Identical)
			assert.Equal(t, body, res.Body)
		})
	}
}

func TestPatchDiffer(t *testing.T) {
	res, err := PatchDiffer{}.Diff(in("left[0]", `{"a":1,"b":2}`), in("right[0]", `{"a":1,"b":3,"c":4}`))
	require.NoError(t, err)

	assert.False(t, res.Identical)
	assert.Equal(t, 2, res.Ops)
	assert.Contains(t, res.Body, `"op": "replace"`)
	assert.Contains(t, res.Body, `"path": "/b"`)
	assert.Contains(t, res.Body, `"op": "add"`)
	assert.Contains(t, res.Body, `"path": "/c"`)
	assert.Equal(t, "diff left[0] -> right[0] (2 ops) [json-patch]", res.Header())
}

func TestStructuralDiffer(t *testing.T) {
	res, err := StructuralDiffer{}.Diff(in("left", leftDoc), in("right", rightDoc))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Ops)
	require.Len(t, res.Changes, 6)
	assert.Equal(t, Descend, res.Changes[0].Kind)
	assert.Equal(t, "data.amount", res.Changes[1].Path)
	assert.Equal(t, ArrayChanged, res.Changes[3].Kind)
	assert.Equal(t, 2, res.Changes[3].OldLen)
	assert.Equal(t, 3, res.Changes[3].NewLen)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "structural", []byte(res.Body+"\n"))
}

func TestStructuralDifferTypeChange(t *testing.T) {
	res, err := StructuralDiffer{}.Diff(in("l", `{"a":{"x":1}}`), in("r", `{"a":"flat"}`))
	require.NoError(t, err)

	assert.Equal(t, "a\n  {\"x\":1} → \"flat\"", res.Body)
}

func TestStructuralDifferRootScalars(t *testing.T) {
	res, err := StructuralDiffer{}.Diff(in("l", `"a"`), in("r", `2`))
	require.NoError(t, err)

	assert.Equal(t, `"a" → 2`, res.Body)
	assert.Equal(t, 1, res.Ops)
}

func TestStructuralDifferShapes(t *testing.T) {
	tests := []struct {
		name        string
		left, right string
		want        string
	}{
		{"exact numbers", `{"n":1,"m":0.1}`, `{"n":1.0,"m":0.10000000000000001}`, "m: 0.1 → 0.10000000000000001"},
		{"root arrays", `[1,2]`, `[1,2,3]`, "[array changed: 2 items → 3 items]"},
		{"array inside array", `{"a":[[1]]}`, `{"a":[[2]]}`, "a\n  [array changed: 1 items → 1 items]"},
		{"removed container", `{"a":{"b":1},"c":1}`, `{"c":1}`, `a: {"b":1} (removed)`},
		{"array to object", `{"a":[1]}`, `{"a":{"b":1}}`, "a\n  [1] → {\"b\":1}"},
		{"escaped member", `{"a/b":{"c~d":1}}`, `{"a/b":{"c~d":2}}`, "a/b\n  c~d: 1 → 2"},
		{"sorted members", `{"b":1,"a":1}`, `{"b":2,"a":2}`, "a: 1 → 2\nb: 1 → 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := StructuralDiffer{}.Diff(in("l", tt.left), in("r", tt.right))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Body)
		})
	}
}

func TestUnifiedDiffer(t *testing.T) {
	res, err := UnifiedDiffer{Context: 1}.Diff(in("left", `{"b":1,"a":"x"}`), in("right", `{"a":"y","b":1}`))
	require.NoError(t, err)

	assert.Contains(t, res.Body, "--- left")
	assert.Contains(t, res.Body, "+++ right")
	assert.Contains(t, res.Body, `-  "a": "x",`)
	assert.Contains(t, res.Body, `+  "a": "y",`)
	assert.Equal(t, 2, res.Ops)
}

func TestEqualNumbers(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{`1`, `1.0`, true},
		{`1e2`, `100`, true},
		{`0.1`, `0.10000000000000001`, false},
		{`{"a":[1,{"b":null}]}`, `{"a":[1,{"b":null}]}`, true},
		{`{"a":null}`, `{}`, false},
		{`[1,2]`, `[2,1]`, false},
		{`"1"`, `1`, false},
	}
	for _, tt := range tests {
		got, err := Equal([]byte(tt.a), []byte(tt.b))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s vs %s", tt.a, tt.b)
	}
}
