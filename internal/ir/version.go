package ir

// Version constants for reports and the command line.
const (
	// FormatVersion is the version of the JSON and SQLite report layouts.
	FormatVersion = "1"

	// Version is the tracker release version.
	Version = "0.1.0"
)
