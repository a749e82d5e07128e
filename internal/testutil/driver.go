package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
	"github.com/roach88/tracker/internal/source"
)

// Step is one scripted event.
type Step struct {
	Side    ir.Side
	Payload string
}

// L scripts an event on the left side.
func L(payload string) Step { return Step{Side: ir.Left, Payload: payload} }

// R scripts an event on the right side.
func R(payload string) Step { return Step{Side: ir.Right, Payload: payload} }

// Driver feeds a script to an engine in lockstep.
//
// The engine's select picks randomly when both sources are ready, so a test
// that needs an exact interleaving cannot use two free-running sources.
// Driver releases one event at a time and waits until the engine has
// accepted it (Received or Deferred) before releasing the next. After the
// last event both sources end, unless HoldOpen was set.
//
// Driver is an engine.Observer; pass it to the engine with WithObserver
// (directly or inside engine.Multi).
type Driver struct {
	engine.NopObserver

	steps []Step
	hold  bool
	now   func() time.Time

	feeds [2]chan ir.Event
	acks  chan struct{}
	start sync.Once
	done  chan struct{}

	mu   sync.Mutex
	last int64
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// HoldOpen keeps both sources open after the script, until ctx ends.
func HoldOpen() DriverOption {
	return func(d *Driver) {
		d.hold = true
	}
}

// WithEventClock sets the arrival stamp of scripted events.
// Default: a StepClock from Epoch advancing 10ms per event.
func WithEventClock(now func() time.Time) DriverOption {
	return func(d *Driver) {
		d.now = now
	}
}

// NewDriver creates a driver for the given script.
func NewDriver(steps []Step, opts ...DriverOption) *Driver {
	d := &Driver{
		steps: steps,
		now:   NewStepClock(Epoch, 10*time.Millisecond).Now,
		feeds: [2]chan ir.Event{make(chan ir.Event), make(chan ir.Event)},
		acks:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Source returns the scripted source for side.
func (d *Driver) Source(side ir.Side) source.Source {
	return &scriptSource{driver: d, side: side}
}

// Left returns the left source.
func (d *Driver) Left() source.Source { return d.Source(ir.Left) }

// Right returns the right source.
func (d *Driver) Right() source.Source { return d.Source(ir.Right) }

// Consumed is closed once the engine has accepted every scripted event.
func (d *Driver) Consumed() <-chan struct{} {
	return d.done
}

// Received acknowledges an accepted event.
func (d *Driver) Received(s ir.State) { d.ack(s.Seq) }

// Deferred acknowledges an event held for the next round.
func (d *Driver) Deferred(s ir.State) { d.ack(s.Seq) }

// ack releases the next step. States replayed from a carry-over have a Seq
// at or below the last acknowledged one and are ignored.
func (d *Driver) ack(seq int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq <= d.last {
		return
	}
	d.last = seq
	select {
	case d.acks <- struct{}{}:
	default:
	}
}

func (d *Driver) run(ctx context.Context) {
	for _, st := range d.steps {
		ev := ir.NewEvent(json.RawMessage(st.Payload), d.now())
		select {
		case d.feeds[st.Side] <- ev:
		case <-ctx.Done():
			return
		}
		select {
		case <-d.acks:
		case <-ctx.Done():
			return
		}
	}
	close(d.done)
	if !d.hold {
		close(d.feeds[ir.Left])
		close(d.feeds[ir.Right])
	}
}

type scriptSource struct {
	driver *Driver
	side   ir.Side
}

func (s *scriptSource) Name() string {
	return "script-" + s.side.String()
}

func (s *scriptSource) Stream(ctx context.Context, out chan<- ir.Event) error {
	s.driver.start.Do(func() { go s.driver.run(ctx) })
	feed := s.driver.feeds[s.side]
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-feed:
			if !ok {
				return nil
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
