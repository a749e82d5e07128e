package ir

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"number literal", json.Number("42"), "42"},
		{"float literal kept", json.Number("42.0"), "42.0"},
		{"int", 7, "7"},
		{"int64", int64(-100), "-100"},
		{"float64", 1.5, "1.5"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array", []any{json.Number("1"), "x", nil}, `[1,"x",null]`},
		{"simple object", map[string]any{"a": json.Number("1")}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"z": map[string]any{"b": 1, "a": 2},
		"a": 3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 sorts after U+10000 in UTF-16 (0xD800 surrogate < 0xE000)
	// but before it in UTF-8.
	private := string(rune(0xE000))
	supplementary := string(rune(0x10000))
	obj := map[string]any{private: 1, supplementary: 2}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"`+supplementary+`":2,"`+private+`":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"html": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>&</b>"}`, string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	decomposed := "e" + string(rune(0x0301))
	composed := string(rune(0x00E9))

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	ls := string(rune(0x2028))
	ps := string(rune(0x2029))

	result, err := MarshalCanonical("a" + ls + "b" + ps)
	require.NoError(t, err)
	assert.Equal(t, `"a`+ls+`b`+ps+`"`, string(result))
}

func TestMarshalCanonicalLiteralBackslashU2028(t *testing.T) {
	// A literal backslash followed by the text u2028 must stay escaped.
	text := `\` + "u2028"

	result, err := MarshalCanonical(text)
	require.NoError(t, err)
	assert.Equal(t, `"\\`+"u2028\"", string(result))
}

func TestMarshalCanonicalRejectsUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestCanonicalize(t *testing.T) {
	out, err := Canonicalize([]byte(`{ "b": [1, 2.50], "a": {"y": true, "x": null} }`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"x":null,"y":true},"b":[1,2.50]}`, string(out))
}

func TestCanonicalizeRejectsInvalid(t *testing.T) {
	_, err := Canonicalize([]byte(`{"a":`))
	require.Error(t, err)

	_, err = Canonicalize([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestCanonicalIndent(t *testing.T) {
	out, err := CanonicalIndent([]byte(`{"b":1,"a":[true]}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    true\n  ],\n  \"b\": 1\n}", out)
}

func TestCanonicalizeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(rt, "n")
		obj := make(map[string]any, n)
		for i := 0; i < n; i++ {
			k := rapid.StringMatching(`[a-z<>&]{0,6}`).Draw(rt, "key")
			obj[k] = json.Number(strconv.Itoa(rapid.IntRange(-1000, 1000).Draw(rt, "value")))
		}

		first, err := MarshalCanonical(obj)
		require.NoError(rt, err)
		second, err := Canonicalize(first)
		require.NoError(rt, err)
		assert.Equal(rt, string(first), string(second))
	})
}
