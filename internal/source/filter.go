package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tracker/internal/ir"
)

// Filter is a compiled CEL predicate over events.
//
// Variables available to the expression:
//
//	event  the decoded JSON payload (dyn)
//	side   "left" or "right"
//	text   the raw payload
//	size   payload length in bytes
type Filter struct {
	expr string
	prog cel.Program
}

// CompileFilter parses and type-checks expr. The expression must yield a
// bool.
func CompileFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("filter expression is empty")
	}
	env, err := cel.NewEnv(
		cel.Variable("event", cel.DynType),
		cel.Variable("side", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("size", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) && !checked.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q: must evaluate to bool, got %s", expr, checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the predicate. Evaluation errors, such as a missing
// field, are returned so callers can decide; a non-bool result is an
// error.
func (f *Filter) Match(side ir.Side, payload []byte) (bool, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return false, fmt.Errorf("decode payload: %w", err)
	}
	out, _, err := f.prog.Eval(map[string]any{
		"event": doc,
		"side":  side.String(),
		"text":  string(payload),
		"size":  int64(len(payload)),
	})
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", f.expr, out.Value())
	}
	return b, nil
}

// Filtered forwards only the events of an inner source that satisfy a
// filter. Events the filter cannot evaluate are dropped with a debug log.
type Filtered struct {
	inner  Source
	filter *Filter
	side   ir.Side
	cfg    settings
}

// NewFiltered wraps inner. side is exposed to the expression.
func NewFiltered(inner Source, side ir.Side, filter *Filter, opts ...Option) *Filtered {
	return &Filtered{inner: inner, filter: filter, side: side, cfg: apply(inner.Name(), opts)}
}

// Name implements Source.
func (f *Filtered) Name() string {
	return f.inner.Name()
}

// Stream implements Source.
func (f *Filtered) Stream(ctx context.Context, out chan<- ir.Event) error {
	g, gctx := errgroup.WithContext(ctx)
	in := make(chan ir.Event, ChannelCapacity)

	g.Go(func() error {
		defer close(in)
		return f.inner.Stream(gctx, in)
	})

	g.Go(func() error {
		dropped := 0
		for ev := range in {
			ok, err := f.filter.Match(f.side, ev.Payload)
			if err != nil {
				f.cfg.logger.Debug("filter evaluation failed", "filter", f.filter.String(), "error", err)
			}
			if !ok {
				dropped++
				continue
			}
			if !emit(gctx, out, ev) {
				break
			}
		}
		// Drain so the inner source is never blocked on a full channel.
		for range in {
		}
		f.cfg.logger.Debug("filter finished", "filter", f.filter.String(), "dropped", dropped)
		return nil
	})

	return g.Wait()
}
