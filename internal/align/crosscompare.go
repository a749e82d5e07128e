package align

import (
	"github.com/roach88/tracker/internal/ir"
)

// EntryKind classifies a cross-comparison entry.
type EntryKind int

const (
	// Match pairs a left state with a right state of the same key.
	Match EntryKind = iota + 1
	// MissingRight is a keyed left state with no right counterpart.
	MissingRight
	// MissingLeft is a keyed right state with no left counterpart.
	MissingLeft
)

func (k EntryKind) String() string {
	switch k {
	case Match:
		return "match"
	case MissingRight:
		return "missing-right"
	case MissingLeft:
		return "missing-left"
	default:
		return "unknown"
	}
}

// Entry is one line of a cross-comparison.
// Left is unset for MissingLeft; Right is unset for MissingRight.
type Entry struct {
	Kind  EntryKind
	Key   ir.Key
	Left  ir.State
	Right ir.State
}

// CrossCompare compares the keyed states of two buffers.
//
// Each keyed left state, in buffer order, is matched with the earliest right
// state of the same key that no earlier left state claimed; otherwise it is
// MissingRight. Unclaimed keyed right states follow as MissingLeft, in buffer
// order. Unkeyed states are ignored.
//
// The output order is part of the contract.
func CrossCompare(left, right []ir.State) []Entry {
	pending := make(map[string][]int)
	for i, s := range right {
		if k, ok := s.Key.Get(); ok {
			pending[k] = append(pending[k], i)
		}
	}

	claimed := make([]bool, len(right))
	var entries []Entry
	for _, l := range left {
		k, ok := l.Key.Get()
		if !ok {
			continue
		}
		if q := pending[k]; len(q) > 0 {
			ri := q[0]
			pending[k] = q[1:]
			claimed[ri] = true
			entries = append(entries, Entry{Kind: Match, Key: l.Key, Left: l, Right: right[ri]})
			continue
		}
		entries = append(entries, Entry{Kind: MissingRight, Key: l.Key, Left: l})
	}

	for i, r := range right {
		if claimed[i] || !r.Key.Present() {
			continue
		}
		entries = append(entries, Entry{Kind: MissingLeft, Key: r.Key, Right: r})
	}
	return entries
}

// Stats summarizes a cross-comparison.
type Stats struct {
	Matched      int
	MissingRight int
	MissingLeft  int
}

// Mismatched is the number of unpaired entries on either side.
func (s Stats) Mismatched() int {
	return s.MissingRight + s.MissingLeft
}

// Summarize counts entries by kind.
func Summarize(entries []Entry) Stats {
	var s Stats
	for _, e := range entries {
		switch e.Kind {
		case Match:
			s.Matched++
		case MissingRight:
			s.MissingRight++
		case MissingLeft:
			s.MissingLeft++
		}
	}
	return s
}
