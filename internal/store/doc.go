// Package store provides the SQLite file behind .db and .sqlite reports.
//
// A report file holds three tables:
//   - sessions: one row per (session, round) with cross-comparison totals
//   - states: every state of that report, keyed by its content-addressed ID
//   - entries: the cross-comparison in contract order
//
// Round 0 is the session report written at end of stream; rounds 1..n are
// per-round reports. Writes are idempotent: rewriting the same state or
// entry is a no-op, rewriting a session row refreshes its totals.
//
// # Deterministic reads
//
// States are always read ORDER BY seq ASC, state_id COLLATE BINARY ASC and
// entries ORDER BY position ASC, so a report reads back exactly as it was
// generated.
//
// # Database Configuration
//
//   - journal_mode=DELETE: the report stays a single file
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// OpenReadOnly opens a report for inspection without creating or migrating
// it and rejects databases without the report schema (ErrNotReport).
//
// State IDs are computed by ir.StateID using canonical JSON and SHA-256
// with domain separation.
package store
