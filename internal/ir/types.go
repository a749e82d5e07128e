package ir

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Side identifies which of the two compared streams a value belongs to.
type Side int

const (
	// Left is the first stream given on the command line.
	Left Side = iota
	// Right is the second stream given on the command line.
	Right
)

// String returns "left" or "right".
func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// LogValue implements slog.LogValuer.
func (s Side) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// ParseSide parses "left" or "right".
func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Left, fmt.Errorf("unknown side %q", s)
	}
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Right {
		return Left
	}
	return Right
}

// NoKeyLabel is how an absent alignment key is displayed.
const NoKeyLabel = "<no-key>"

// Key is an optional alignment key.
//
// The zero value is the absent key. Two keys are equal for alignment
// purposes only when both are present and byte-identical.
type Key struct {
	value   string
	present bool
}

// NoKey is the absent key.
var NoKey = Key{}

// LogValue implements slog.LogValuer so absent keys log as NoKeyLabel.
func (k Key) LogValue() slog.Value {
	return slog.StringValue(k.String())
}

// KeyOf returns a present key holding s.
func KeyOf(s string) Key {
	return Key{value: s, present: true}
}

// Get returns the key value and whether it is present.
func (k Key) Get() (string, bool) {
	return k.value, k.present
}

// Present reports whether the key carries a value.
func (k Key) Present() bool {
	return k.present
}

// Matches reports whether both keys are present and equal.
func (k Key) Matches(other Key) bool {
	return k.present && other.present && k.value == other.value
}

// String returns the key value, or NoKeyLabel when absent.
func (k Key) String() string {
	if !k.present {
		return NoKeyLabel
	}
	return k.value
}

// Event is a single JSON payload received from a source.
//
// Payload is compact, valid JSON. Sources stamp ReceivedAt when they
// accept the message off the wire.
type Event struct {
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// NewEvent creates an Event stamped with the given arrival time.
func NewEvent(payload json.RawMessage, at time.Time) Event {
	return Event{Payload: payload, ReceivedAt: at}
}

// State is an Event folded into a side's history.
type State struct {
	Event Event
	Key   Key
	Side  Side

	// Index is the 0-based ordinal of the state within its round.
	Index int

	// Seq is the 1-based arrival ordinal across both sides for the run.
	Seq int64
}
