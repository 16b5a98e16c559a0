// Package session is the controller of the background-effect engine. A
// Session owns every piece of per-run state (raw-mask history, exclusion
// map, accumulated mask, effect parameters) and runs the per-frame pipeline:
//
//	validate -> history window -> exclusion -> accumulate -> queued feedback
//	-> composite -> commit
//
// # State Machine
//
//	Uninitialized --Init--> Ready --ProcessFrame--> Processing (loops)
//	Ready/Processing --Reset--> Ready
//	Ready/Processing --Init(new size)--> Ready (buffers reallocated)
//	any --Finalize--> Finalizing --> Done
//
// # Failure Policy
//
// A frame is computed into staging buffers and committed only after the
// compositor succeeds, so a rejected frame (DimensionMismatch,
// CompositingFailure, UninitializedSession, SessionClosed) never changes
// history or the accumulated mask. A frame without a raw mask is not an
// error: the engine substitutes a motion mask from history, or renders the
// frame as pure background when history is too short, and reports it as a
// notice.
//
// # Concurrency
//
// All Session methods are safe for concurrent use; one mutex serializes
// them, so feedback is never interleaved with a partial frame update.
// Worker wraps a Session with an ordered event queue for callers that
// prefer message passing.
package session
