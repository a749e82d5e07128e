// Package align holds the pure pieces of dual-stream alignment:
// key extraction, bounded per-side history, the continuous-mode decision
// and the end-of-round cross-comparison.
//
// Nothing in this package blocks, logs or allocates goroutines. The engine
// owns all mutable instances and drives them from its single loop.
//
// CRITICAL: Alignment is decided on keys only. Two states align when both
// keys are present and byte-equal; payload equality never participates.
package align
