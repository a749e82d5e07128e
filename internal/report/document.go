package report

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/ir"
)

// timelineLayout is how arrival times are shown in the timeline.
const timelineLayout = "15:04:05.000"

// Document is the format-independent content of a report.
type Document struct {
	Session     string    `json:"session"`
	Round       int       `json:"round,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	GeneratedAt time.Time `json:"generated_at"`

	LeftCount    int `json:"left_count"`
	RightCount   int `json:"right_count"`
	Matched      int `json:"matched"`
	Mismatched   int `json:"mismatched"`
	MissingRight int `json:"missing_right"`
	MissingLeft  int `json:"missing_left"`

	// Timeline holds every state sorted by arrival time, ties by Seq.
	Timeline []*Item `json:"timeline"`

	// Matching is the cross-comparison in contract order.
	Matching []Row `json:"matching"`
}

// Item is one state as shown in a report.
type Item struct {
	ID         string          `json:"id"`
	Side       string          `json:"side"`
	Key        string          `json:"key"`
	Keyed      bool            `json:"keyed"`
	Index      int             `json:"index"`
	Seq        int64           `json:"seq"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`

	// Display-only fields.
	Clock  string `json:"-"`
	Pretty string `json:"-"`
	Size   string `json:"-"`
}

// Row is one cross-comparison entry.
type Row struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`

	// Identical is set for matches whose payloads are deep-equal.
	Identical bool `json:"identical,omitempty"`

	// CompareError is set when the payloads of a match could not be
	// compared. Identical is false then.
	CompareError string `json:"compare_error,omitempty"`

	Left  *Item `json:"left,omitempty"`
	Right *Item `json:"right,omitempty"`

	entry align.Entry
}

// Status is the symbol shown for the row in the matching view.
func (r Row) Status() string {
	switch r.entry.Kind {
	case align.Match:
		switch {
		case r.CompareError != "":
			return "?"
		case r.Identical:
			return "✓"
		}
		return "≠"
	default:
		return "⚠"
	}
}

// Title describes the row for humans.
func (r Row) Title() string {
	switch r.entry.Kind {
	case align.Match:
		switch {
		case r.CompareError != "":
			return "matched, comparison failed: " + r.CompareError
		case r.Identical:
			return "matched, identical payloads"
		}
		return "matched, payloads differ"
	case align.MissingRight:
		return "missing on right"
	default:
		return "missing on left"
	}
}

// Build assembles a document from states in arrival order.
func Build(meta Meta, generatedAt time.Time, states []ir.State) Document {
	doc := Document{
		Session:     meta.Session,
		Round:       meta.Round,
		StartedAt:   meta.CreatedAt,
		GeneratedAt: generatedAt,
		Timeline:    make([]*Item, 0, len(states)),
		Matching:    []Row{},
	}

	var left, right []ir.State
	bySeq := make(map[int64]*Item, len(states))
	for _, s := range states {
		item := newItem(s)
		bySeq[s.Seq] = item
		doc.Timeline = append(doc.Timeline, item)
		if s.Side == ir.Left {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	slices.SortStableFunc(doc.Timeline, func(a, b *Item) int {
		if c := a.ReceivedAt.Compare(b.ReceivedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	entries := align.CrossCompare(left, right)
	for _, e := range entries {
		row := Row{Kind: e.Kind.String(), Key: e.Key.String(), entry: e}
		switch e.Kind {
		case align.Match:
			row.Left, row.Right = bySeq[e.Left.Seq], bySeq[e.Right.Seq]
			identical, err := differ.Equal(e.Left.Event.Payload, e.Right.Event.Payload)
			if err != nil {
				row.CompareError = err.Error()
			}
			row.Identical = identical
		case align.MissingRight:
			row.Left = bySeq[e.Left.Seq]
		case align.MissingLeft:
			row.Right = bySeq[e.Right.Seq]
		}
		doc.Matching = append(doc.Matching, row)
	}

	stats := align.Summarize(entries)
	doc.LeftCount = len(left)
	doc.RightCount = len(right)
	doc.Matched = stats.Matched
	doc.Mismatched = stats.Mismatched()
	doc.MissingRight = stats.MissingRight
	doc.MissingLeft = stats.MissingLeft
	return doc
}

// Entries returns the cross-comparison the document was built from.
func (d Document) Entries() []align.Entry {
	out := make([]align.Entry, len(d.Matching))
	for i, r := range d.Matching {
		out[i] = r.entry
	}
	return out
}

func newItem(s ir.State) *Item {
	item := &Item{
		Side:       s.Side.String(),
		Key:        s.Key.String(),
		Keyed:      s.Key.Present(),
		Index:      s.Index,
		Seq:        s.Seq,
		ReceivedAt: s.Event.ReceivedAt,
		Payload:    s.Event.Payload,
		Clock:      s.Event.ReceivedAt.Format(timelineLayout),
		Size:       humanize.Bytes(uint64(len(s.Event.Payload))),
	}
	if id, err := ir.StateID(s); err == nil {
		item.ID = id
	}
	if pretty, err := ir.CanonicalIndent(s.Event.Payload); err == nil {
		item.Pretty = pretty
	} else {
		item.Pretty = string(s.Event.Payload)
	}
	return item
}
