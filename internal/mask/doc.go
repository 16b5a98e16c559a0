// Package mask implements the temporal side of the background-effect engine:
// the raw-mask history, the periodic-motion exclusion heuristic, the
// exponential accumulator and the feedback reinforcement rules.
//
// Everything in this package operates on flat per-pixel buffers of length
// width*height in row-major order:
//   - raw masks are []byte, 0 (background) to 255 (foreground)
//   - the accumulated mask is []float64 in [0,1]
//   - the exclusion map is []bool, true for pixels that must not be trusted
//     as foreground
//
// # Thread Safety
//
// None of the types here are safe for concurrent use. They are owned by a
// single session, which serializes access (see package session).
//
// # Tuning
//
// The thresholds and weights in Params are empirical defaults, not derived
// values. They are exposed so deployments can tune them through the tuning
// config file.
package mask
