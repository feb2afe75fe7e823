// Package observe composites the dispersed spectra of every source in an
// exposure onto a shared simulated detector frame.
//
// DisperseAll computes the full-frame composite for one spectral order,
// optionally fanning sources out over a worker pool; each worker
// accumulates into its own partial frame and the coordinator sums the
// partials, so no mutable buffer is ever shared between goroutines.
// DisperseChunk recomputes a single source's contribution on demand and
// is numerically identical to that source's term inside DisperseAll,
// which the contamination stage relies on for exact cancellation.
package observe
