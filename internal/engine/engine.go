package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/ir"
	"github.com/roach88/tracker/internal/report"
	"github.com/roach88/tracker/internal/source"
)

// Engine is the single-writer alignment loop over two sources.
//
// CRITICAL: All mutations happen in the Run goroutine. Buffers, round
// flags, the round limiter and the deferred carry-over are never touched
// from anywhere else.
//
// An Engine runs once; create a new one per run.
type Engine struct {
	sources   [2]source.Source
	extractor align.Extractor // nil in raw mode
	differ    differ.Differ
	cfg       Config

	observer Observer
	clock    *Clock
	sessions SessionIDGenerator
	now      func() time.Time
	logger   *slog.Logger

	// Loop-owned state.
	session  string
	buffers  [2]*align.Buffer
	next     [2]int // next Index per side within the round
	complete [2]bool
	carry    []ir.State
	limiter  *RoundLimiter
	totals   align.Stats
	journal  report.Reporter
}

// EngineOption allows configuration of engine collaborators.
type EngineOption func(*Engine)

// WithObserver sets the observer. Default: NopObserver.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithSessionIDs sets the session ID generator. Default: UUIDv7Generator.
func WithSessionIDs(g SessionIDGenerator) EngineOption {
	return func(e *Engine) {
		e.sessions = g
	}
}

// WithNow sets the wall clock used for report timestamps and artifact
// names. Default: time.Now.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an aligning Engine.
//
// cfg is validated here; an invalid configuration returns a *ConfigError
// and no Engine.
func New(left, right source.Source, extractor align.Extractor, d differ.Differ, cfg Config, opts ...EngineOption) (*Engine, error) {
	if extractor == nil {
		return nil, fmt.Errorf("engine: extractor is required")
	}
	return build(left, right, extractor, d, cfg, opts)
}

// NewRaw creates an Engine that skips key extraction and diffs the latest
// payload of each side whenever either side receives an event.
func NewRaw(left, right source.Source, d differ.Differ, opts ...EngineOption) (*Engine, error) {
	return build(left, right, nil, d, DefaultConfig(), opts)
}

func build(left, right source.Source, extractor align.Extractor, d differ.Differ, cfg Config, opts []EngineOption) (*Engine, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("engine: both sources are required")
	}
	if d == nil {
		return nil, fmt.Errorf("engine: differ is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		sources:   [2]source.Source{left, right},
		extractor: extractor,
		differ:    d,
		cfg:       cfg,
		observer:  NopObserver{},
		clock:     NewClock(),
		sessions:  UUIDv7Generator{},
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.buffers = [2]*align.Buffer{align.NewBuffer(cfg.Capacity), align.NewBuffer(cfg.Capacity)}
	e.limiter = NewRoundLimiter(cfg.MaxRounds)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run merges both sources until one ends, the round limit is reached or
// ctx is cancelled. All three are successful outcomes.
//
// CRITICAL: Must be called from exactly ONE goroutine, once.
//
// The returned error is non-nil only when a source failed outright (for
// example an unreadable replay file). The Summary is valid either way.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	e.session = e.sessions.Generate()
	log := e.logger.With("session", e.session)
	if e.cfg.ReportPath != "" {
		journal, err := report.New(e.cfg.ReportPath, report.Meta{Session: e.session, CreatedAt: e.now(), Now: e.now})
		if err != nil {
			return Summary{Session: e.session}, err
		}
		e.journal = journal
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var chans [2]chan ir.Event
	for _, side := range []ir.Side{ir.Left, ir.Right} {
		ch := make(chan ir.Event, source.ChannelCapacity)
		chans[side] = ch
		src := e.sources[side]
		g.Go(func() error {
			defer close(ch)
			if err := src.Stream(gctx, ch); err != nil {
				return fmt.Errorf("%s source %s: %w", side, src.Name(), err)
			}
			return nil
		})
	}

	attrs := []any{
		"mode", e.cfg.Mode,
		"round_end", e.cfg.RoundEnd,
		"capacity", e.cfg.Capacity,
		"raw", e.extractor == nil,
	}
	if !e.limiter.Unlimited() {
		attrs = append(attrs, "max_rounds", e.limiter.Max())
	}
	log.Info("engine starting", attrs...)

	reason := e.loop(ctx, log, chans)

	cancel()
	srcErr := g.Wait()

	sum := e.summary(reason)
	if reason == EndOfStream && srcErr == nil && e.journal != nil {
		if err := e.journal.Generate(e.cfg.ReportPath); err != nil {
			log.Error("session report failed", "path", e.cfg.ReportPath, "error", err)
		} else {
			sum.ReportPath = e.cfg.ReportPath
			log.Info("session report written", "path", e.cfg.ReportPath)
		}
	}

	log.Info("engine stopped", "reason", reason, "rounds", sum.Rounds)
	e.observer.Finished(sum)
	return sum, srcErr
}

// loop is the single-writer select loop.
func (e *Engine) loop(ctx context.Context, log *slog.Logger, chans [2]chan ir.Event) StopReason {
	for {
		// Cancellation wins over ready events.
		if ctx.Err() != nil {
			log.Info("engine stopping: context cancelled")
			return Cancelled
		}

		var (
			side ir.Side
			ev   ir.Event
			ok   bool
		)
		select {
		case <-ctx.Done():
			log.Info("engine stopping: context cancelled")
			return Cancelled
		case ev, ok = <-chans[ir.Left]:
			side = ir.Left
		case ev, ok = <-chans[ir.Right]:
			side = ir.Right
		}

		if !ok {
			// Producers also close their channel when ctx is cancelled.
			if ctx.Err() != nil {
				log.Info("engine stopping: context cancelled")
				return Cancelled
			}
			log.Info("engine stopping: stream closed", "side", side)
			return EndOfStream
		}
		if e.turn(ctx, side, ev) {
			log.Info("engine stopping: round limit reached", "rounds", e.limiter.Completed())
			return RoundLimit
		}
	}
}

// turn processes one event. Returns true when the round limit is reached.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) turn(ctx context.Context, side ir.Side, ev ir.Event) bool {
	seq := e.clock.Next(side)

	if e.extractor == nil {
		e.compareRaw(e.push(ir.State{Event: ev, Key: ir.NoKey, Side: side, Seq: seq}))
		return false
	}

	s := ir.State{Event: ev, Key: e.extractor.Extract(ev.Payload), Side: side, Seq: seq}
	e.logger.Debug("event", "side", side, "seq", seq, "key", s.Key)

	if !e.cfg.RoundMode() {
		e.push(s)
		e.checkContinuous()
		return false
	}

	if e.complete[side] && e.cfg.LatePolicy == LateDefer {
		e.carry = append(e.carry, s)
		e.observer.Deferred(s)
		return false
	}
	e.pushRound(s)
	return e.checkRound(ctx)
}

// push stamps the round index and stores s.
func (e *Engine) push(s ir.State) ir.State {
	s.Index = e.next[s.Side]
	e.next[s.Side]++
	e.buffers[s.Side].Push(s)
	if e.journal != nil {
		e.journal.Add(s)
	}
	e.observer.Received(s)
	return s
}

// pushRound stores s and raises the side flag on the round-end signal.
func (e *Engine) pushRound(s ir.State) {
	s = e.push(s)
	if s.Key.Matches(e.cfg.RoundEnd) && !e.complete[s.Side] {
		e.complete[s.Side] = true
		e.observer.SideComplete(s.Side, e.limiter.Completed()+1)
	}
}

func (e *Engine) compareRaw(latest ir.State) {
	other, ok := e.buffers[latest.Side.Other()].Latest()
	if !ok {
		return
	}
	l, r := latest, other
	if latest.Side == ir.Right {
		l, r = other, latest
	}
	e.observer.Compared(l, r, e.diff(l, r, "left", "right"))
}

// checkContinuous applies the continuous alignment decision to the latest
// state of each side.
func (e *Engine) checkContinuous() {
	d := align.Check(e.buffers[ir.Left].LatestKey(), e.buffers[ir.Right].LatestKey())
	switch d.Verdict {
	case align.Aligned:
		l, _ := e.buffers[ir.Left].Latest()
		r, _ := e.buffers[ir.Right].Latest()
		e.observer.Aligned(l, r, e.diff(l, r, "left", "right"))
	case align.OutOfSync:
		e.observer.OutOfSync(d.Left, d.Right)
	case align.Waiting:
		key := d.Left
		if d.Ahead == ir.Right {
			key = d.Right
		}
		e.observer.Waiting(d.Ahead, key)
	}
}

// checkRound closes the round when both flags are set. The check, report,
// clear and reset all happen within the current turn.
func (e *Engine) checkRound(ctx context.Context) bool {
	if !e.complete[ir.Left] || !e.complete[ir.Right] {
		return false
	}

	round, reached := e.limiter.Complete()
	rep := e.crossCompare(round)
	e.totals.Matched += rep.Stats.Matched
	e.totals.MissingRight += rep.Stats.MissingRight
	e.totals.MissingLeft += rep.Stats.MissingLeft

	if e.cfg.ReportPath != "" {
		rep.ReportPath = e.writeRoundReport(rep)
	}
	e.observer.RoundComplete(ctx, rep)

	e.buffers[ir.Left].Clear()
	e.buffers[ir.Right].Clear()
	e.next = [2]int{}
	e.complete = [2]bool{}

	if reached {
		return true
	}

	carry := e.carry
	e.carry = nil
	if len(carry) == 0 {
		return false
	}
	for _, s := range carry {
		e.replay(s)
	}
	return e.checkRound(ctx)
}

// replay re-admits a held state at the start of a round. A state that
// follows a replayed round-end signal on its side is held again, exactly
// as it would have been had it arrived live.
func (e *Engine) replay(s ir.State) {
	if e.complete[s.Side] {
		e.carry = append(e.carry, s)
		e.observer.Deferred(s)
		return
	}
	e.pushRound(s)
}

func (e *Engine) crossCompare(round int) *RoundReport {
	left := e.buffers[ir.Left].States()
	right := e.buffers[ir.Right].States()
	entries := align.CrossCompare(left, right)

	rep := &RoundReport{
		Session:     e.session,
		Round:       round,
		MaxRounds:   e.limiter.Max(),
		CompletedAt: e.now(),
		Left:        left,
		Right:       right,
		Entries:     make([]RoundEntry, len(entries)),
		Stats:       align.Summarize(entries),
	}
	for i, entry := range entries {
		rep.Entries[i] = RoundEntry{Entry: entry}
		if entry.Kind == align.Match {
			rep.Entries[i].Diff = e.diff(entry.Left, entry.Right,
				fmt.Sprintf("left[%d]", entry.Left.Index),
				fmt.Sprintf("right[%d]", entry.Right.Index))
		}
	}
	return rep
}

// writeRoundReport writes the per-round artifact. Failures are logged and
// never end the run.
func (e *Engine) writeRoundReport(rep *RoundReport) string {
	path := report.RoundPath(e.cfg.ReportPath, rep.CompletedAt, rep.Round)
	r, err := report.New(path, report.Meta{Session: e.session, Round: rep.Round, CreatedAt: rep.CompletedAt, Now: e.now})
	if err != nil {
		e.logger.Error("round report failed", "round", rep.Round, "path", path, "error", err)
		return ""
	}
	for _, s := range rep.Left {
		r.Add(s)
	}
	for _, s := range rep.Right {
		r.Add(s)
	}
	if err := r.Generate(path); err != nil {
		e.logger.Error("round report failed", "round", rep.Round, "path", path, "error", err)
		return ""
	}
	return path
}

// diff runs the differ; a failure is logged and the fallback result kept.
func (e *Engine) diff(l, r ir.State, leftLabel, rightLabel string) *differ.Result {
	res, err := e.differ.Diff(
		differ.Input{Label: leftLabel, Doc: l.Event.Payload},
		differ.Input{Label: rightLabel, Doc: r.Event.Payload},
	)
	if err != nil {
		e.logger.Warn("diff failed", "left_seq", l.Seq, "right_seq", r.Seq, "error", err)
	}
	if res == nil {
		res = &differ.Result{Left: leftLabel, Right: rightLabel}
	}
	return res
}

func (e *Engine) summary(reason StopReason) Summary {
	return Summary{
		Session:     e.session,
		Reason:      reason,
		Rounds:      e.limiter.Completed(),
		LeftEvents:  e.clock.Count(ir.Left),
		RightEvents: e.clock.Count(ir.Right),
		Totals:      e.totals,
	}
}
