package testutil

// FixedSession generates the same session ID every time.
//
// This enables golden snapshot comparison: the same scenario with the same
// FixedSession produces byte-identical traces and report names.
//
// Implements engine.SessionIDGenerator. If empty, Generate returns
// "test-session".
type FixedSession string

// Generate returns the fixed session ID.
func (f FixedSession) Generate() string {
	if f == "" {
		return "test-session"
	}
	return string(f)
}
