package source

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// settings collects the knobs shared by all sources.
type settings struct {
	logger      *slog.Logger
	now         Clock
	backoffUnit time.Duration
	dialer      *websocket.Dialer
	interval    time.Duration
	limit       int
	seed        *uint64
}

func defaultSettings() settings {
	return settings{
		logger:      slog.Default(),
		now:         time.Now,
		backoffUnit: time.Second,
		dialer:      websocket.DefaultDialer,
	}
}

// Option configures a source. Options that do not apply to a source are
// ignored by it.
type Option func(*settings)

// WithLogger sets the logger. The source name is added as "source".
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithClock sets the arrival timestamp function.
func WithClock(now Clock) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithBackoffUnit sets the reconnect backoff unit (default 1s).
// Delays run 1, 2, 4, 8, 16, 30, 30, ... units.
func WithBackoffUnit(d time.Duration) Option {
	return func(s *settings) {
		s.backoffUnit = d
	}
}

// WithDialer overrides the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *settings) {
		s.dialer = d
	}
}

// WithInterval sets the pause between generated or replayed events.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		s.interval = d
	}
}

// WithLimit stops a synthetic source after n events. 0 means unlimited.
func WithLimit(n int) Option {
	return func(s *settings) {
		s.limit = n
	}
}

// WithSeed makes a synthetic source deterministic.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = &seed
	}
}

func apply(name string, opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	s.logger = s.logger.With("source", name)
	return s
}
