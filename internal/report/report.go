package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/tracker/internal/ir"
)

// Format is a report file format.
type Format int

const (
	HTML Format = iota + 1
	JSON
	SQLite
)

func (f Format) String() string {
	switch f {
	case HTML:
		return "html"
	case JSON:
		return "json"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// FormatOf picks the format from the path extension (case-insensitive).
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return HTML, nil
	case ".json":
		return JSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return SQLite, nil
	case "":
		return 0, fmt.Errorf("report path %q has no extension (want .html, .json, .db or .sqlite)", path)
	default:
		return 0, fmt.Errorf("unsupported report extension %q (want .html, .json, .db or .sqlite)", filepath.Ext(path))
	}
}

// CheckPath validates a report path before any source connects.
func CheckPath(path string) error {
	if path == "" {
		return fmt.Errorf("report path is empty")
	}
	_, err := FormatOf(path)
	return err
}

// roundStampLayout is the timestamp embedded in per-round file names.
const roundStampLayout = "20060102_150405"

// RoundPath derives the per-round artifact path from the configured base:
// "out/report.html" becomes "out/report_20260301_120000_r2.html".
func RoundPath(base string, at time.Time, round int) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%s_r%d%s", stem, at.Format(roundStampLayout), round, ext)
}

// Meta identifies what a report covers.
type Meta struct {
	Session string

	// Round is 0 for the session report, n for the report of round n.
	Round int

	CreatedAt time.Time

	// Now stamps the generation time. Defaults to time.Now.
	Now func() time.Time
}

// Reporter collects states and writes an artifact.
//
// Add is called in arrival order. Generate may be called more than once;
// each call renders everything added so far.
type Reporter interface {
	Add(s ir.State)
	Generate(path string) error
}

// New creates a reporter for the format implied by path.
func New(path string, meta Meta) (Reporter, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if meta.Now == nil {
		meta.Now = time.Now
	}
	c := &collector{meta: meta}
	switch format {
	case HTML:
		return &htmlReporter{collector: c}, nil
	case JSON:
		return &jsonReporter{collector: c}, nil
	default:
		return &sqliteReporter{collector: c}, nil
	}
}

// collector is the state shared by every format.
type collector struct {
	meta   Meta
	states []ir.State
}

func (c *collector) Add(s ir.State) {
	c.states = append(c.states, s)
}

func (c *collector) document() Document {
	return Build(c.meta, c.meta.Now(), c.states)
}
