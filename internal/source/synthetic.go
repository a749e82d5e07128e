package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/roach88/tracker/internal/ir"
)

// DefaultEventTypes are the event_type values a Synthetic source draws
// from. "order.completed" is the conventional round-end signal.
var DefaultEventTypes = []string{
	"user.login",
	"user.logout",
	"order.created",
	"order.updated",
	"order.completed",
	"payment.processed",
	"inventory.changed",
}

var statuses = []string{"pending", "completed", "failed"}

// Synthetic emits random e-commerce-like events at a fixed interval.
//
// Each event looks like:
//
//	{"id":"<uuid>","event_type":"order.created","timestamp":"<RFC 3339>",
//	 "user_id":4821,"data":{"amount":"512.09","status":"pending",
//	 "metadata":{"source":"left","version":"1.0"}}}
type Synthetic struct {
	name       string
	eventTypes []string
	cfg        settings
	rng        *rand.Rand
	newID      func() string
}

// NewSynthetic creates a synthetic source. Use WithInterval to set the
// pace, WithSeed for reproducible output and WithLimit to bound it.
func NewSynthetic(name string, opts ...Option) *Synthetic {
	cfg := apply(name, opts)
	s := &Synthetic{name: name, eventTypes: DefaultEventTypes, cfg: cfg}
	if cfg.seed != nil {
		s.rng = rand.New(rand.NewPCG(*cfg.seed, *cfg.seed^0x9e3779b97f4a7c15))
		s.newID = func() string {
			var b [16]byte
			for i := range b {
				b[i] = byte(s.rng.UintN(256))
			}
			id, _ := uuid.FromBytes(b[:])
			return id.String()
		}
	} else {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

// Name implements Source.
func (s *Synthetic) Name() string {
	return s.name
}

// Stream implements Source.
func (s *Synthetic) Stream(ctx context.Context, out chan<- ir.Event) error {
	s.cfg.logger.Info("starting synthetic stream", "interval", s.cfg.interval)
	for n := 0; s.cfg.limit == 0 || n < s.cfg.limit; n++ {
		if n > 0 && !sleep(ctx, s.cfg.interval) {
			return nil
		}
		doc, err := s.Generate()
		if err != nil {
			return fmt.Errorf("%s: generate event: %w", s.name, err)
		}
		if !emit(ctx, out, ir.NewEvent(doc, s.cfg.now())) {
			return nil
		}
	}
	return nil
}

// Generate builds one random event document.
func (s *Synthetic) Generate() ([]byte, error) {
	doc := []byte(`{}`)
	fields := []struct {
		path  string
		value any
	}{
		{"id", s.newID()},
		{"event_type", s.eventTypes[s.rng.IntN(len(s.eventTypes))]},
		{"timestamp", s.cfg.now().UTC().Format(time.RFC3339Nano)},
		{"user_id", 1000 + s.rng.IntN(8999)},
		{"data.amount", fmt.Sprintf("%.2f", 10+s.rng.Float64()*990)},
		{"data.status", statuses[s.rng.IntN(len(statuses))]},
		{"data.metadata.source", s.name},
		{"data.metadata.version", "1.0"},
	}
	var err error
	for _, f := range fields {
		doc, err = sjson.SetBytes(doc, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	return doc, nil
}
