// Package ir provides the shared data model for the tracker.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. This keeps the data model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Events are immutable once a source hands them to the engine
//   - An absent alignment key is a normal value, never an error
//   - Alignment decisions compare keys, never raw payloads
//   - Seq (loop arrival order) is the tie-breaker for equal timestamps
package ir
