package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/tracker/internal/ir"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return createTestStoreAt(t, filepath.Join(t.TempDir(), "test.db"))
}

// createTestStoreAt opens a store at path, closed at cleanup.
func createTestStoreAt(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestState creates a state with the given arrival ordinal.
func createTestState(side ir.Side, seq int64, key ir.Key, payload string) ir.State {
	return ir.State{
		Event: ir.NewEvent(json.RawMessage(payload), testEpoch.Add(time.Duration(seq)*time.Millisecond)),
		Key:   key,
		Side:  side,
		Index: int(seq - 1),
		Seq:   seq,
	}
}

// writeTestSession writes a session header in its own transaction.
func writeTestSession(t *testing.T, s *Store, id string, round int) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return tx.WriteSession(context.Background(), Session{ID: id, Round: round, CreatedAt: testEpoch})
	})
	if err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
}
