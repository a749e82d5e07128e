package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TRACKER_"

// Env holds settings read from TRACKER_* environment variables.
//
// Zero values mean "not set" for the fields that also appear in a
// Profile, so a profile or flag can still provide them.
type Env struct {
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"`
	BufferCapacity int           `env:"BUFFER_CAPACITY"`
	RoundPause     time.Duration `env:"ROUND_PAUSE"`
	BackoffUnit    time.Duration `env:"BACKOFF_UNIT" envDefault:"1s"`
	NoColor        bool          `env:"NO_COLOR"`
}

// ParseEnv loads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := ParseLevel(e.LogLevel); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if err := CheckLogFormat(e.LogFormat); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	if e.BackoffUnit <= 0 {
		return Env{}, fmt.Errorf("parse env: %sBACKOFF_UNIT must be positive, got %s", EnvPrefix, e.BackoffUnit)
	}
	return e, nil
}

// Profile returns the environment as the lowest-priority settings layer.
func (e Env) Profile() Profile {
	var p Profile
	if e.BufferCapacity != 0 {
		p.Capacity = ptr(e.BufferCapacity)
	}
	if e.RoundPause != 0 {
		p.RoundPause = ptr(e.RoundPause.String())
	}
	if e.NoColor {
		p.NoColor = ptr(true)
	}
	return p
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
}

// LogFormats lists the accepted log formats.
var LogFormats = []string{"text", "json"}

// CheckLogFormat validates a log format name.
func CheckLogFormat(s string) error {
	for _, f := range LogFormats {
		if s == f {
			return nil
		}
	}
	return fmt.Errorf("unknown log format %q (valid: %s)", s, strings.Join(LogFormats, ", "))
}

func ptr[T any](v T) *T {
	return &v
}
