package report

import (
	"encoding/json"
	"time"

	"github.com/roach88/tracker/internal/ir"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// stateAt builds a state that arrived ms milliseconds after epoch.
func stateAt(side ir.Side, seq int64, index int, key string, payload string, ms int) ir.State {
	k := ir.NoKey
	if key != "" {
		k = ir.KeyOf(key)
	}
	return ir.State{
		Event: ir.NewEvent(json.RawMessage(payload), epoch.Add(time.Duration(ms)*time.Millisecond)),
		Key:   k,
		Side:  side,
		Index: index,
		Seq:   seq,
	}
}

// roundStates is a round where X matches with different payloads, END
// matches identically, Y is missing on the right and Z on the left.
func roundStates() []ir.State {
	return []ir.State{
		stateAt(ir.Left, 1, 0, "X", `{"phase":"X","n":1}`, 0),
		stateAt(ir.Right, 2, 0, "X", `{"phase":"X","n":2}`, 5),
		stateAt(ir.Left, 3, 1, "Y", `{"phase":"Y"}`, 10),
		stateAt(ir.Right, 4, 1, "Z", `{"phase":"Z"}`, 12),
		stateAt(ir.Left, 5, 2, "", `{"noise":true}`, 14),
		stateAt(ir.Right, 6, 2, "END", `{"phase":"END"}`, 20),
		stateAt(ir.Left, 7, 3, "END", `{"phase":"END"}`, 20),
	}
}

func testMeta() Meta {
	return Meta{
		Session:   "sess-1",
		Round:     1,
		CreatedAt: epoch,
		Now:       func() time.Time { return epoch.Add(time.Minute) },
	}
}
