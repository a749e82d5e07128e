package source

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/roach88/tracker/internal/ir"
)

// MaxBackoffUnits caps the reconnect delay, in backoff units.
const MaxBackoffUnits = 30

// NewBackOff returns the reconnect schedule: unit, doubling per consecutive
// failure, capped at MaxBackoffUnits units, never giving up.
func NewBackOff(unit time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = unit
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = MaxBackoffUnits * unit
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// WebSocket reads JSON messages from a WebSocket endpoint.
//
// Connection loss is never surfaced: the source reconnects after a backoff
// delay, which resets to one unit after every successful connect. Only
// context cancellation ends the stream.
type WebSocket struct {
	name string
	url  string
	cfg  settings
}

// NewWebSocket creates a WebSocket source for url.
func NewWebSocket(name, url string, opts ...Option) *WebSocket {
	return &WebSocket{name: name, url: url, cfg: apply(name, opts)}
}

// Name implements Source.
func (w *WebSocket) Name() string {
	return w.name
}

// Stream implements Source.
func (w *WebSocket) Stream(ctx context.Context, out chan<- ir.Event) error {
	log := w.cfg.logger
	b := NewBackOff(w.cfg.backoffUnit)

	for ctx.Err() == nil {
		conn, _, err := w.cfg.dialer.DialContext(ctx, w.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn("connect failed", "url", w.url, "error", err)
		} else {
			b.Reset()
			log.Info("connected", "url", w.url)
			if !w.read(ctx, conn, out) {
				break
			}
		}

		delay := b.NextBackOff()
		log.Info("reconnecting", "url", w.url, "delay", delay)
		if !sleep(ctx, delay) {
			break
		}
	}

	log.Debug("stream stopped", "url", w.url)
	return nil
}

// read forwards messages until the connection fails. Returns false when the
// context ended, true when the caller should reconnect.
func (w *WebSocket) read(ctx context.Context, conn *websocket.Conn, out chan<- ir.Event) bool {
	log := w.cfg.logger

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		// Unblocks ReadMessage on cancellation.
		conn.Close()
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				log.Warn("closed by peer", "code", ce.Code, "reason", ce.Text)
			} else {
				log.Warn("read error", "error", err)
			}
			return true
		}

		payload, ok := decodeMessage(log, kind, data)
		if !ok {
			continue
		}
		if !emit(ctx, out, ir.NewEvent(payload, w.cfg.now())) {
			return false
		}
	}
}

// decodeMessage turns a frame into a compact JSON payload. Text and binary
// frames must both be UTF-8. Anything else is logged and dropped.
func decodeMessage(log *slog.Logger, kind int, data []byte) ([]byte, bool) {
	if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
		return nil, false
	}
	if !utf8.Valid(data) {
		log.Warn("dropped non-UTF-8 message", "bytes", len(data))
		return nil, false
	}

	payload, err := compactJSON(data)
	if err != nil {
		log.Warn("dropped malformed JSON message", "error", err, "bytes", len(data))
		return nil, false
	}
	return payload, true
}
