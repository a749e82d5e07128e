package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracker/internal/ir"
)

func TestWriteSession_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := Session{
		ID:           "sess-1",
		Round:        2,
		CreatedAt:    testEpoch,
		LeftCount:    3,
		RightCount:   2,
		Matched:      2,
		MissingRight: 1,
	}
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		return tx.WriteSession(ctx, want)
	}))

	got, err := s.ReadSession(ctx, "sess-1", 2)
	require.NoError(t, err)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = want.CreatedAt
	assert.Equal(t, want, got)
}

func TestWriteSession_RefreshesTotals(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, matched := range []int{1, 4} {
		require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
			return tx.WriteSession(ctx, Session{ID: "sess", CreatedAt: testEpoch, Matched: matched})
		}))
	}

	got, err := s.ReadSession(ctx, "sess", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Matched)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "nope", 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWriteState_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "sess", 1)

	left := createTestState(ir.Left, 1, ir.KeyOf("X"), `{"b": 2, "a": "<x>"}`)
	right := createTestState(ir.Right, 2, ir.NoKey, `[1,2]`)

	var ids []string
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		for _, st := range []ir.State{right, left} {
			id, err := tx.WriteState(ctx, "sess", 1, st)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}))
	assert.Equal(t, ir.MustStateID(right), ids[0])
	assert.Equal(t, ir.MustStateID(left), ids[1])

	states, err := s.ReadStates(ctx, "sess", 1)
	require.NoError(t, err)
	require.Len(t, states, 2)

	// Arrival order regardless of write order.
	assert.Equal(t, ids[1], states[0].ID)
	assert.Equal(t, ir.Left, states[0].State.Side)
	assert.Equal(t, ir.KeyOf("X"), states[0].State.Key)
	assert.Equal(t, int64(1), states[0].State.Seq)
	assert.Equal(t, 0, states[0].State.Index)
	assert.JSONEq(t, `{"a":"<x>","b":2}`, string(states[0].State.Event.Payload))
	assert.Equal(t, `{"a":"<x>","b":2}`, string(states[0].State.Event.Payload), "payload stored canonical")
	assert.True(t, left.Event.ReceivedAt.Equal(states[0].State.Event.ReceivedAt))

	assert.Equal(t, ir.Right, states[1].State.Side)
	assert.False(t, states[1].State.Key.Present())
}

func TestWriteState_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "sess", 1)

	st := createTestState(ir.Left, 1, ir.KeyOf("X"), `{"a":1}`)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
			_, err := tx.WriteState(ctx, "sess", 1, st)
			return err
		}))
	}

	states, err := s.ReadStates(ctx, "sess", 1)
	require.NoError(t, err)
	assert.Len(t, states, 1)
}

func TestWriteState_InvalidPayload(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "sess", 1)

	err := s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.WriteState(ctx, "sess", 1, createTestState(ir.Left, 1, ir.NoKey, `{broken`))
		return err
	})
	assert.ErrorContains(t, err, "write state")
}

func TestReadStates_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	states, err := s.ReadStates(context.Background(), "sess", 1)
	require.NoError(t, err)
	assert.NotNil(t, states)
	assert.Empty(t, states)
}

func TestWriteEntry_OrderedByPosition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "sess", 1)

	entries := []Entry{
		{Position: 2, Kind: "missing-left", Key: "Z", RightStateID: "r2"},
		{Position: 0, Kind: "match", Key: "X", LeftStateID: "l1", RightStateID: "r1"},
		{Position: 1, Kind: "missing-right", Key: "Y", LeftStateID: "l2"},
	}
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		for _, e := range entries {
			if err := tx.WriteEntry(ctx, "sess", 1, e); err != nil {
				return err
			}
		}
		return nil
	}))

	got, err := s.ReadEntries(ctx, "sess", 1)
	require.NoError(t, err)
	assert.Equal(t, []Entry{entries[1], entries[2], entries[0]}, got)
}

func TestReports_SeparatedByRound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "sess", 1)
	writeTestSession(t, s, "sess", 2)

	st := createTestState(ir.Left, 1, ir.KeyOf("X"), `{}`)
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.WriteState(ctx, "sess", 2, st)
		return err
	}))

	one, err := s.ReadStates(ctx, "sess", 1)
	require.NoError(t, err)
	two, err := s.ReadStates(ctx, "sess", 2)
	require.NoError(t, err)
	assert.Empty(t, one)
	assert.Len(t, two, 1)
}
