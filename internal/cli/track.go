package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/config"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
	"github.com/roach88/tracker/internal/render"
	"github.com/roach88/tracker/internal/source"
)

// TrackOptions holds the flags shared by track, diff and example.
type TrackOptions struct {
	*RootOptions
	Config     string
	AlignBy    string
	AutoAlign  bool
	RoundEnd   string
	Report     string
	Once       bool
	MaxRounds  int
	Capacity   int
	RoundPause time.Duration
	LateEvents string
	Engine     string
	Pretty     bool
	Visual     bool
	Filter     string
	NoColor    bool
}

const trackExample = "tracker track ws://localhost:8001 ws://localhost:8002 --align-by phase --round-end END"

// NewTrackCommand creates the track command.
func NewTrackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "track <left> <right>",
		Short: "Align two streams on a key and compare them",
		Long: `Align two JSON event streams on a key extracted from each payload.

Without --round-end the streams are compared continuously: when the latest
keys of both sides match, their payloads are diffed. With --round-end a
round closes once both sides have seen that key; every keyed state of the
round is then cross-compared and missing states are reported per side.

Examples:
  tracker track ws://localhost:8001 ws://localhost:8002 --align-by phase
  tracker track left.jsonl right.jsonl --align-by data.step --round-end END --report out.html
  tracker track ws://a ws://b --auto-align --round-end END --visual --max-rounds 3`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(opts, args[0], args[1], cmd)
		},
	}

	opts.registerAlignFlags(cmd)
	opts.registerOutputFlags(cmd)
	return cmd
}

func (o *TrackOptions) registerAlignFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.AlignBy, "align-by", "", "dot path of the alignment key, e.g. data.phase")
	f.BoolVar(&o.AutoAlign, "auto-align", false, "guess the alignment key from common field names")
	f.StringVar(&o.RoundEnd, "round-end", "", "key value that closes a round")
	f.StringVar(&o.Report, "report", "", "write reports to this path (.html, .json, .db, .sqlite)")
	f.BoolVar(&o.Once, "once", false, "stop after the first round (same as --max-rounds 1)")
	f.IntVar(&o.MaxRounds, "max-rounds", 0, "stop after this many rounds")
	f.IntVar(&o.Capacity, "capacity", align.DefaultCapacity, "states kept per side")
	f.DurationVar(&o.RoundPause, "round-pause", engine.DefaultRoundPause, "how long --visual shows each round comparison")
	f.StringVar(&o.LateEvents, "late-events", string(engine.LateFold), "late events after a side's round end (fold|defer)")
}

func (o *TrackOptions) registerOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.Config, "config", "", "profile file (.cue, .json, .yaml)")
	f.StringVar(&o.Engine, "engine", string(differ.JSONPatch), "diff engine (json-patch|structural|unified)")
	f.BoolVar(&o.Pretty, "pretty", false, "print colored change trees")
	f.BoolVar(&o.Visual, "visual", false, "draw a live two-column timeline")
	f.StringVar(&o.Filter, "filter", "", `CEL expression selecting events, e.g. 'event.type != "heartbeat"'`)
	f.BoolVar(&o.NoColor, "no-color", false, "disable colors")
}

// flagLayer returns the flags the user set explicitly.
func (o *TrackOptions) flagLayer(cmd *cobra.Command) config.Profile {
	f := cmd.Flags()
	var p config.Profile
	set := func(name string) bool { return f.Changed(name) }

	if set("align-by") {
		p.AlignBy = &o.AlignBy
	}
	if set("auto-align") {
		p.AutoAlign = &o.AutoAlign
	}
	if set("round-end") {
		p.RoundEnd = &o.RoundEnd
	}
	if set("report") {
		p.Report = &o.Report
	}
	if set("once") {
		p.Once = &o.Once
	}
	if set("max-rounds") {
		p.MaxRounds = &o.MaxRounds
	}
	if set("capacity") {
		p.Capacity = &o.Capacity
	}
	if set("round-pause") {
		d := o.RoundPause.String()
		p.RoundPause = &d
	}
	if set("late-events") {
		p.LateEvents = &o.LateEvents
	}
	if set("engine") {
		p.Engine = &o.Engine
	}
	if set("pretty") || set("visual") {
		m := render.ResolveMode(o.Visual, o.Pretty).String()
		p.Mode = &m
	}
	if set("filter") {
		p.Filter = &o.Filter
	}
	if set("no-color") {
		p.NoColor = &o.NoColor
	}
	return p
}

// settings resolves environment, profile and flags.
func (o *TrackOptions) settings(cmd *cobra.Command) (config.Settings, error) {
	layers := []config.Profile{o.Env.Profile()}
	if o.Config != "" {
		p, err := config.LoadProfile(o.Config)
		if err != nil {
			return config.Settings{}, WrapExitError(ExitCommandError, "failed to load profile", err)
		}
		layers = append(layers, p)
	}
	layers = append(layers, o.flagLayer(cmd))

	s, err := config.Resolve(layers...)
	if err != nil {
		return config.Settings{}, ConfigExitError(err)
	}
	return s, nil
}

func (o *TrackOptions) sourceOptions() []source.Option {
	return []source.Option{
		source.WithLogger(o.Logger),
		source.WithBackoffUnit(o.Env.BackoffUnit),
	}
}

func runTrack(opts *TrackOptions, leftTarget, rightTarget string, cmd *cobra.Command) error {
	s, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	if !s.Aligned() {
		return &ExitError{
			Code:    ExitCommandError,
			Message: "track requires --align-by or --auto-align",
			Hint:    trackExample,
		}
	}

	left, err := source.Open("left", leftTarget, opts.sourceOptions()...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid left source", err)
	}
	right, err := source.Open("right", rightTarget, opts.sourceOptions()...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid right source", err)
	}
	return runTracker(opts.RootOptions, s, left, right, cmd)
}

// runTracker wires sources, differ, extractor and projection into an
// engine and runs it until the streams end, the round limit is reached or
// the command context is cancelled.
func runTracker(opts *RootOptions, s config.Settings, left, right source.Source, cmd *cobra.Command) error {
	log := opts.Logger

	d, err := differ.New(s.Differ)
	if err != nil {
		return ConfigExitError(err)
	}

	if s.Filter != "" {
		filter, err := source.CompileFilter(s.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --filter expression", err)
		}
		left = source.NewFiltered(left, ir.Left, filter, source.WithLogger(log))
		right = source.NewFiltered(right, ir.Right, filter, source.WithLogger(log))
	}

	observer := render.New(s.Engine.Mode, render.Options{
		Out:        cmd.OutOrStdout(),
		Logger:     log,
		NoColor:    s.NoColor,
		RoundPause: s.Engine.RoundPause,
	})
	engOpts := []engine.EngineOption{engine.WithObserver(observer), engine.WithLogger(log)}
	if opts.SessionIDs != nil {
		engOpts = append(engOpts, engine.WithSessionIDs(opts.SessionIDs))
	}

	var eng *engine.Engine
	if s.Aligned() {
		extractor, err := newExtractor(s)
		if err != nil {
			return ConfigExitError(err)
		}
		eng, err = engine.New(left, right, extractor, d, s.Engine, engOpts...)
		if err != nil {
			return ConfigExitError(err)
		}
	} else {
		eng, err = engine.NewRaw(left, right, d, engOpts...)
		if err != nil {
			return ConfigExitError(err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := eng.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "tracking failed", err)
	}
	return nil
}

func newExtractor(s config.Settings) (align.Extractor, error) {
	if s.AutoAlign {
		return align.NewHeuristic(), nil
	}
	p, err := align.NewPath(s.AlignBy)
	if err != nil {
		return nil, &engine.ConfigError{
			Code:   engine.ErrCodeUnknownValue,
			Field:  "align-by",
			Reason: err.Error(),
			Hint:   trackExample,
		}
	}
	return p, nil
}

// exactArgs is cobra.ExactArgs reported as a command error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "usage: "+cmd.UseLine(), err)
		}
		return nil
	}
}
