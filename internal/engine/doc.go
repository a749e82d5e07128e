// Package engine implements the dual-stream alignment engine.
//
// The engine merges two event sources into one control loop, derives an
// alignment key for every event, keeps bounded per-side history and
// compares the two sides either continuously or once per round.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Each source runs in its own producer goroutine and pushes events into a
// bounded channel owned by the engine. Run selects over both channels and
// processes one event per turn. Buffers, round flags, counters and the
// deferred carry-over are touched only by the loop goroutine, so no locks
// are needed.
//
// Event Processing Flow:
//  1. Event arrives on either channel, stamped with the next Seq
//  2. Key extracted, State pushed into the owning buffer, observers notified
//  3. Continuous mode: latest keys compared (aligned / out of sync / waiting)
//  4. Round mode: the round-end signal sets the side's flag; when both are
//     set the round is cross-compared, reported and cleared
//
// Observers only render. Nothing an Observer does changes control flow,
// except that RoundComplete runs synchronously inside the loop turn.
//
// CRITICAL PATTERNS:
//
// Key-only alignment:
// States align when both keys are present and byte-equal. Payload equality
// never participates in alignment; it only decides whether a diff is empty.
//
// Atomic round boundary:
// Both flags are observed true only within the turn that completes the
// round. Check, report, clear and reset happen in that same turn.
//
// Termination:
// A closed source channel is a normal end of stream. Cancellation ends the
// run with success and writes no report. Reaching the round limit ends the
// run with success after the final round report.
package engine
