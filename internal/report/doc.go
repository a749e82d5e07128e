// Package report writes comparison artifacts for a session or a round.
//
// A Reporter collects states in arrival order and renders them on Generate.
// The format follows the file extension:
//
//	.html          self-contained page with stats, timeline and matching view
//	.json          the same document as indented JSON
//	.db, .sqlite   a SQLite file (see internal/store)
//
// Every format is built from one Document, so the three always agree on
// counts and pairing. Pairing is align.CrossCompare over the collected
// states.
package report
