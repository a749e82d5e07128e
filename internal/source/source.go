package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/tracker/internal/ir"
)

// Source produces events for one side of a comparison.
type Source interface {
	// Name identifies the source in logs, e.g. "left".
	Name() string

	// Stream sends events to out until the input is exhausted or ctx is
	// cancelled. Stream never closes out; the caller owns the channel.
	Stream(ctx context.Context, out chan<- ir.Event) error
}

// ChannelCapacity is the size of the bounded channel between a source and
// the engine.
const ChannelCapacity = 64

// Clock returns the arrival time stamped on events.
type Clock func() time.Time

// emit delivers ev unless ctx ends first. Returns false when the consumer
// is gone.
func emit(ctx context.Context, out chan<- ir.Event, ev ir.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- ev:
		return true
	}
}

// sleep waits for d or until ctx ends. Returns false when ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// compactJSON validates and compacts a payload.
func compactJSON(data []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// Open picks a source for a command-line target: ws:// and wss:// URLs
// become WebSocket sources, anything else is read as a replay file.
func Open(name, target string, opts ...Option) (Source, error) {
	lower := strings.ToLower(target)
	switch {
	case strings.HasPrefix(lower, "ws://"), strings.HasPrefix(lower, "wss://"):
		return NewWebSocket(name, target, opts...), nil
	case strings.Contains(lower, "://"):
		return nil, fmt.Errorf("%s: unsupported source scheme in %q (want ws://, wss:// or a file path)", name, target)
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".jsonl", ".ndjson", ".json", ".yaml", ".yml":
		return NewReplay(name, target, opts...), nil
	}
	return nil, fmt.Errorf("%s: unsupported replay file %q (want .jsonl, .ndjson, .json, .yaml or .yml)", name, target)
}
