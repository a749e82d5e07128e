// Package config resolves tracker settings from layered sources.
//
// Layers, lowest priority first:
//
//   - built-in defaults (engine.DefaultConfig)
//   - TRACKER_* environment variables (ParseEnv)
//   - a profile file given with --config (LoadProfile), validated against
//     the embedded #Profile CUE schema
//   - explicit command-line flags
//
// Resolve merges the layers and returns validated Settings.
package config
