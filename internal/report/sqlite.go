package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/ir"
	"github.com/roach88/tracker/internal/store"
)

type sqliteReporter struct {
	*collector
}

func (r *sqliteReporter) Generate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	return WriteStore(context.Background(), path, r.document(), r.states)
}

// WriteStore persists a document and the states it was built from into the
// SQLite file at path, in one transaction. Writing the same report twice
// leaves the file unchanged apart from the session row's totals.
func WriteStore(ctx context.Context, path string, doc Document, states []ir.State) error {
	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	defer s.Close()

	err = s.WithTx(ctx, func(tx *store.Tx) error {
		err := tx.WriteSession(ctx, store.Session{
			ID:           doc.Session,
			Round:        doc.Round,
			CreatedAt:    doc.GeneratedAt,
			LeftCount:    doc.LeftCount,
			RightCount:   doc.RightCount,
			Matched:      doc.Matched,
			MissingRight: doc.MissingRight,
			MissingLeft:  doc.MissingLeft,
		})
		if err != nil {
			return err
		}

		ids := make(map[int64]string, len(states))
		for _, st := range states {
			id, err := tx.WriteState(ctx, doc.Session, doc.Round, st)
			if err != nil {
				return fmt.Errorf("state seq %d: %w", st.Seq, err)
			}
			ids[st.Seq] = id
		}

		for i, e := range doc.Entries() {
			rec := store.Entry{Position: i, Kind: e.Kind.String(), Key: e.Key.String()}
			if e.Kind != align.MissingLeft {
				rec.LeftStateID = ids[e.Left.Seq]
			}
			if e.Kind != align.MissingRight {
				rec.RightStateID = ids[e.Right.Seq]
			}
			if err := tx.WriteEntry(ctx, doc.Session, doc.Round, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write sqlite report: %w", err)
	}
	return nil
}
