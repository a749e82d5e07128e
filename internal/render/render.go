package render

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/roach88/tracker/internal/engine"
)

// ResolveMode applies the output priority Visual > Pretty > Logs.
func ResolveMode(visual, pretty bool) engine.Mode {
	switch {
	case visual:
		return engine.ModeVisual
	case pretty:
		return engine.ModePretty
	default:
		return engine.ModeLogs
	}
}

// Options configures a projection.
type Options struct {
	// Out receives Pretty and Visual output. Default: os.Stdout.
	Out io.Writer

	// Logger receives Logs output. Default: slog.Default().
	Logger *slog.Logger

	// NoColor disables ANSI colors.
	NoColor bool

	// RoundPause keeps the Visual round comparison on screen.
	RoundPause time.Duration

	// Width is the Visual screen width in cells. Default: DefaultWidth.
	Width int
}

// DefaultWidth is the Visual screen width.
const DefaultWidth = 100

// New returns the projection for mode.
func New(mode engine.Mode, opts Options) engine.Observer {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	switch mode {
	case engine.ModeVisual:
		return NewVisual(opts)
	case engine.ModePretty:
		return NewPretty(opts)
	default:
		return NewLogs(opts.Logger)
	}
}

// palette holds the colors shared by Pretty and Visual.
type palette struct {
	title, ok, bad, warn, add, del, mod, dim, left, right *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		title: color.New(color.FgCyan, color.Bold),
		ok:    color.New(color.FgGreen),
		bad:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow),
		add:   color.New(color.FgGreen),
		del:   color.New(color.FgRed),
		mod:   color.New(color.FgYellow),
		dim:   color.New(color.Faint),
		left:  color.New(color.FgBlue, color.Bold),
		right: color.New(color.FgMagenta, color.Bold),
	}
	// Without an explicit choice fatih/color follows the terminal.
	if noColor {
		for _, c := range []*color.Color{p.title, p.ok, p.bad, p.warn, p.add, p.del, p.mod, p.dim, p.left, p.right} {
			c.DisableColor()
		}
	}
	return p
}
