package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tracker/internal/ir"
)

// Replay plays back recorded events from a file, then ends the stream.
//
// Supported layouts:
//
//	.jsonl / .ndjson   one JSON payload per line, blank lines skipped
//	.json / .yaml      an array of payloads, or a script object:
//
//	interval: 100ms          # pause between events (optional)
//	events:
//	  - payload: {phase: X}
//	    delay: 250ms         # overrides interval before this event
//	  - payload: {phase: END}
//
// Invalid lines in a .jsonl file are logged and skipped, like malformed
// frames on a live feed. A structurally invalid .json or .yaml file fails
// the stream before any event is sent.
type Replay struct {
	name string
	path string
	cfg  settings
}

// NewReplay creates a replay source for path.
func NewReplay(name, path string, opts ...Option) *Replay {
	return &Replay{name: name, path: path, cfg: apply(name, opts)}
}

// Name implements Source.
func (r *Replay) Name() string {
	return r.name
}

// Step is one scripted replay event.
type Step struct {
	// Delay is the pause before the event. Negative means "use the
	// script interval".
	Delay   time.Duration
	Payload json.RawMessage
}

// Stream implements Source.
func (r *Replay) Stream(ctx context.Context, out chan<- ir.Event) error {
	steps, err := r.Load()
	if err != nil {
		return err
	}
	r.cfg.logger.Info("replaying", "path", r.path, "events", len(steps))

	for i, step := range steps {
		delay := step.Delay
		if delay < 0 {
			delay = r.cfg.interval
			if i == 0 {
				delay = 0
			}
		}
		if !sleep(ctx, delay) {
			return nil
		}
		if !emit(ctx, out, ir.NewEvent(step.Payload, r.cfg.now())) {
			return nil
		}
	}
	return nil
}

// Load reads and validates the whole file.
func (r *Replay) Load() ([]Step, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%s: read replay file: %w", r.name, err)
	}

	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".jsonl", ".ndjson":
		return r.loadLines(data)
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: parse %s: %w", r.name, r.path, err)
		}
		return r.loadDocument(doc)
	default:
		doc, err := ir.DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: parse %s: %w", r.name, r.path, err)
		}
		return r.loadDocument(doc)
	}
}

func (r *Replay) loadLines(data []byte) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		payload, err := compactJSON(text)
		if err != nil {
			r.cfg.logger.Warn("skipped malformed line", "path", r.path, "line", line, "error", err)
			continue
		}
		steps = append(steps, Step{Delay: -1, Payload: payload})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: scan %s: %w", r.name, r.path, err)
	}
	return steps, nil
}

func (r *Replay) loadDocument(doc any) ([]Step, error) {
	switch v := doc.(type) {
	case []any:
		steps := make([]Step, 0, len(v))
		for i, item := range v {
			payload, err := toJSON(item)
			if err != nil {
				return nil, fmt.Errorf("%s: event %d: %w", r.name, i, err)
			}
			steps = append(steps, Step{Delay: -1, Payload: payload})
		}
		return steps, nil
	case map[string]any:
		return r.loadScript(v)
	}
	return nil, fmt.Errorf("%s: %s must hold an array of events or an object with \"events\"", r.name, r.path)
}

func (r *Replay) loadScript(script map[string]any) ([]Step, error) {
	if raw, ok := script["interval"]; ok {
		d, err := parseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: interval: %w", r.name, err)
		}
		r.cfg.interval = d
	}

	events, ok := script["events"].([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %s: \"events\" must be an array", r.name, r.path)
	}

	steps := make([]Step, 0, len(events))
	for i, item := range events {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: event %d: want an object with \"payload\"", r.name, i)
		}
		body, ok := entry["payload"]
		if !ok {
			return nil, fmt.Errorf("%s: event %d: missing \"payload\"", r.name, i)
		}
		payload, err := toJSON(body)
		if err != nil {
			return nil, fmt.Errorf("%s: event %d: %w", r.name, i, err)
		}
		step := Step{Delay: -1, Payload: payload}
		if raw, ok := entry["delay"]; ok {
			d, err := parseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: event %d: delay: %w", r.name, i, err)
			}
			step.Delay = d
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// toJSON re-encodes a decoded JSON or YAML value as compact JSON.
func toJSON(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return json.RawMessage(data), nil
}

// parseDuration accepts Go duration strings or a number of milliseconds.
func parseDuration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case string:
		return time.ParseDuration(d)
	case int:
		return time.Duration(d) * time.Millisecond, nil
	case float64:
		return time.Duration(d * float64(time.Millisecond)), nil
	case json.Number:
		ms, err := d.Float64()
		if err != nil {
			return 0, err
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	return 0, fmt.Errorf("want a duration string or milliseconds, got %T", v)
}
