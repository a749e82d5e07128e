// Package render turns engine notifications into output.
//
// Exactly one projection is active per run, chosen by ResolveMode:
//
//	Visual   full-screen two-column timeline plus a round-comparison table
//	Pretty   colored "Aligned at" banners with structural change trees
//	Logs     structured slog records (the default)
//
// Projections implement engine.Observer and only render. They never feed
// back into the engine.
package render
