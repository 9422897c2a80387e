// ABOUTME: Package documentation for the frame decoder.
// ABOUTME: Explains dual-mode response decoding (JSON document vs SSE stream).

// Package frame classifies raw response bodies from the memory service
// and extracts the embedded JSON-RPC document.
//
// The remote endpoint answers a POST in one of two shapes:
//
//   - a plain JSON document (Content-Type: application/json)
//   - a Server-Sent Events stream (Content-Type: text/event-stream)
//     whose events carry the same document across one or more "data:"
//     lines
//
// Decode handles both uniformly. For streams it accumulates every data
// line of the current event and parses the joined payload once the
// event completes, so documents that span multiple data lines decode
// correctly. The first complete event with a parsable payload wins;
// bodies that match neither shape fail with ErrMalformedResponse.
//
// Decoding is a pure transform: no I/O, no shared state.
package frame
