// Package source provides the event producers the engine merges.
//
// A Source pushes JSON events into a channel owned by the engine until its
// input ends or the context is cancelled. Both outcomes are a normal return
// (nil error). Malformed payloads are logged and dropped; they never end a
// stream.
//
// Available sources:
//
//	WebSocket  live ws:// or wss:// feed with reconnect and backoff
//	Replay     recorded events from a .jsonl, .json or .yaml file
//	Synthetic  random e-commerce events at a fixed interval
//	Filtered   wraps another source behind a CEL predicate
package source
