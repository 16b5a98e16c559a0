// Package server implements the MCP (Model Context Protocol) server for
// video background effects.
//
// This package provides a JSON-RPC 2.0 server that exposes the temporal mask
// refinement engine through the MCP protocol. A client feeds video frames
// together with the raw masks of its segmentation model; the server smooths
// the masks over time, suppresses oscillating regions and renders each frame
// with the selected background effect.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Lifecycle:
//   - session_init: Create a session at a working resolution
//   - session_process_frame: Accumulate a raw mask and render one frame
//   - session_feedback: Reinforce or suppress part of the mask
//   - session_set_effect: Switch the background effect
//   - session_reset: Forget history and the accumulated mask
//   - session_finalize: End and release a session
//
// Introspection:
//   - session_status: State, counters and mask statistics
//   - session_mask_preview: The accumulated mask as an image
//
// # Sessions
//
// Each session is owned by a session.Worker that applies frames, feedback and
// resets in submission order. Sessions are keyed by a random UUID and live
// until session_finalize or the end of the input stream.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The error string; session errors start with their kind, such as
//     "dimension_mismatch" or "session_closed"
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(tuning, logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
