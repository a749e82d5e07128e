package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/tracker/internal/ir"
)

// timeLayout is how timestamps are stored. Fixed-width so that text order
// matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Session is the header row of one report.
type Session struct {
	ID           string
	Round        int
	CreatedAt    time.Time
	LeftCount    int
	RightCount   int
	Matched      int
	MissingRight int
	MissingLeft  int
}

// Entry is one persisted cross-comparison line. Kind is the align.EntryKind
// string form; state IDs are empty on the missing side.
type Entry struct {
	Position     int
	Kind         string
	Key          string
	LeftStateID  string
	RightStateID string
}

// Tx groups the writes of one report.
type Tx struct {
	tx *sql.Tx
}

// WriteSession inserts or refreshes a report header.
// Must be written before the states and entries that reference it.
func (t *Tx) WriteSession(ctx context.Context, sess Session) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sessions
		(id, round, created_at, left_count, right_count, matched, missing_right, missing_left)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, round) DO UPDATE SET
			created_at = excluded.created_at,
			left_count = excluded.left_count,
			right_count = excluded.right_count,
			matched = excluded.matched,
			missing_right = excluded.missing_right,
			missing_left = excluded.missing_left
	`,
		sess.ID,
		sess.Round,
		sess.CreatedAt.UTC().Format(timeLayout),
		sess.LeftCount,
		sess.RightCount,
		sess.Matched,
		sess.MissingRight,
		sess.MissingLeft,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteState inserts a state and returns its content-addressed ID.
// Uses ON CONFLICT DO NOTHING for idempotency - duplicate writes are
// silently ignored.
//
// The payload is stored in canonical JSON.
func (t *Tx) WriteState(ctx context.Context, sessionID string, round int, s ir.State) (string, error) {
	id, err := ir.StateID(s)
	if err != nil {
		return "", fmt.Errorf("write state: %w", err)
	}
	payload, err := ir.Canonicalize(s.Event.Payload)
	if err != nil {
		return "", fmt.Errorf("write state: %w", err)
	}

	var key sql.NullString
	if v, ok := s.Key.Get(); ok {
		key = sql.NullString{String: v, Valid: true}
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO states
		(state_id, session_id, round, seq, side, idx, align_key, received_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		id,
		sessionID,
		round,
		s.Seq,
		s.Side.String(),
		s.Index,
		key,
		s.Event.ReceivedAt.UTC().Format(timeLayout),
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("write state: %w", err)
	}
	return id, nil
}

// WriteEntry inserts a cross-comparison line.
// Uses ON CONFLICT DO NOTHING for idempotency.
func (t *Tx) WriteEntry(ctx context.Context, sessionID string, round int, e Entry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO entries
		(session_id, round, position, kind, align_key, left_state_id, right_state_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		round,
		e.Position,
		e.Kind,
		e.Key,
		nullable(e.LeftStateID),
		nullable(e.RightStateID),
	)
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
