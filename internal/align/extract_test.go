package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracker/internal/ir"
)

func TestPathExtractor(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		payload string
		want    ir.Key
	}{
		{"nested string", "message.phase", `{"message":{"phase":"init"}}`, ir.KeyOf("init")},
		{"number literal", "n", `{"n":42}`, ir.KeyOf("42")},
		{"float literal kept", "n", `{"n":42.50}`, ir.KeyOf("42.50")},
		{"bool true", "ok", `{"ok":true}`, ir.KeyOf("true")},
		{"bool false", "ok", `{"ok":false}`, ir.KeyOf("false")},
		{"empty string is present", "s", `{"s":""}`, ir.KeyOf("")},
		{"missing field", "x", `{"y":1}`, ir.NoKey},
		{"missing intermediate", "a.b", `{"b":1}`, ir.NoKey},
		{"non-object intermediate", "a.b", `{"a":"str"}`, ir.NoKey},
		{"array intermediate", "a.b", `{"a":[{"b":1}]}`, ir.NoKey},
		{"null leaf", "a", `{"a":null}`, ir.NoKey},
		{"object leaf", "a", `{"a":{"b":1}}`, ir.NoKey},
		{"array leaf", "a", `{"a":[1,2]}`, ir.NoKey},
		{"root not object", "a", `[1,2]`, ir.NoKey},
		{"invalid json", "a", `{"a":`, ir.NoKey},
		{"unicode text", "a", `{"a":"naïve"}`, ir.KeyOf("naïve")},
		{"escapes decoded", "a", `{"a":"\` + `u0041"}`, ir.KeyOf("A")},
		{"wildcard chars are literal", "a*", `{"ab":1,"a*":"star"}`, ir.KeyOf("star")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Extract([]byte(tt.payload)))
		})
	}
}

func TestNewPathRejectsEmptySegments(t *testing.T) {
	for _, path := range []string{"", ".", "a.", ".a", "a..b"} {
		t.Run(path, func(t *testing.T) {
			_, err := NewPath(path)
			require.Error(t, err)
		})
	}
}

func TestHeuristicExtractor(t *testing.T) {
	h := NewHeuristic()

	tests := []struct {
		name    string
		payload string
		want    ir.Key
	}{
		{"type first", `{"phase":"p","type":"t"}`, ir.KeyOf("t")},
		{"event_type", `{"event_type":"user.login","state":"s"}`, ir.KeyOf("user.login")},
		{"non-scalar skipped", `{"type":{"x":1},"phase":"p"}`, ir.KeyOf("p")},
		{"null skipped", `{"type":null,"action":"go"}`, ir.KeyOf("go")},
		{"number", `{"state":3}`, ir.KeyOf("3")},
		{"args scalar", `{"args":"a"}`, ir.KeyOf("a")},
		{"nested ignored", `{"data":{"type":"t"}}`, ir.NoKey},
		{"nothing", `{"foo":"bar"}`, ir.NoKey},
		{"not an object", `"type"`, ir.NoKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Extract([]byte(tt.payload)))
		})
	}
}
