package engine

import (
	"github.com/google/uuid"
)

// SessionIDGenerator names a tracking run. The ID is stamped on every
// round report and on the session artifact.
// Implemented by UUIDv7Generator (production) and testutil.FixedSession
// (tests).
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs, so report
// artifacts from successive runs sort by start time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
