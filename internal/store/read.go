package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tracker/internal/ir"
)

// ErrNotFound is returned when a requested report does not exist.
var ErrNotFound = errors.New("not found")

// StoredState is a state read back from a report.
type StoredState struct {
	ID    string
	State ir.State
}

// ReadSession returns the header of one report.
func (s *Store) ReadSession(ctx context.Context, id string, round int) (Session, error) {
	var (
		sess    Session
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, round, created_at, left_count, right_count, matched, missing_right, missing_left
		FROM sessions
		WHERE id = ? AND round = ?
	`, id, round).Scan(
		&sess.ID, &sess.Round, &created,
		&sess.LeftCount, &sess.RightCount,
		&sess.Matched, &sess.MissingRight, &sess.MissingLeft,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s round %d: %w", id, round, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if sess.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Session{}, fmt.Errorf("read session: created_at: %w", err)
	}
	return sess, nil
}

// ListSessions returns every report header ordered by session, then
// round. The session report (round 0) comes first within a session.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, round, created_at, left_count, right_count, matched, missing_right, missing_left
		FROM sessions
		ORDER BY created_at ASC, id COLLATE BINARY ASC, round ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var (
			sess    Session
			created string
		)
		if err := rows.Scan(
			&sess.ID, &sess.Round, &created,
			&sess.LeftCount, &sess.RightCount,
			&sess.Matched, &sess.MissingRight, &sess.MissingLeft,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if sess.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("scan session %s: created_at: %w", sess.ID, err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadStates returns the states of one report in arrival order.
// Returns an empty slice (not nil) if the report has no states.
func (s *Store) ReadStates(ctx context.Context, sessionID string, round int) ([]StoredState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state_id, seq, side, idx, align_key, received_at, payload
		FROM states
		WHERE session_id = ? AND round = ?
		ORDER BY seq ASC, state_id COLLATE BINARY ASC
	`, sessionID, round)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	states := []StoredState{}
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate states: %w", err)
	}
	return states, nil
}

// ReadEntries returns the cross-comparison of one report in contract order.
func (s *Store) ReadEntries(ctx context.Context, sessionID string, round int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, kind, align_key, left_state_id, right_state_id
		FROM entries
		WHERE session_id = ? AND round = ?
		ORDER BY position ASC
	`, sessionID, round)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e           Entry
			left, right sql.NullString
		)
		if err := rows.Scan(&e.Position, &e.Kind, &e.Key, &left, &right); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.LeftStateID = left.String
		e.RightStateID = right.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func scanState(rows *sql.Rows) (StoredState, error) {
	var (
		st       StoredState
		side     string
		key      sql.NullString
		received string
		payload  string
	)
	if err := rows.Scan(&st.ID, &st.State.Seq, &side, &st.State.Index, &key, &received, &payload); err != nil {
		return StoredState{}, fmt.Errorf("scan state: %w", err)
	}

	var err error
	if st.State.Side, err = ir.ParseSide(side); err != nil {
		return StoredState{}, fmt.Errorf("scan state %s: %w", st.ID, err)
	}
	if key.Valid {
		st.State.Key = ir.KeyOf(key.String)
	}
	at, err := time.Parse(timeLayout, received)
	if err != nil {
		return StoredState{}, fmt.Errorf("scan state %s: received_at: %w", st.ID, err)
	}
	st.State.Event = ir.NewEvent(json.RawMessage(payload), at)
	return st, nil
}
