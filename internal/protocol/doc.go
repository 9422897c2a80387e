// ABOUTME: Package documentation for the protocol layer.
// ABOUTME: Covers transport, session lifecycle, and remote call invocation.

// Package protocol implements the session-oriented wire protocol spoken
// with the remote memory service.
//
// Three layers live here, leaf first:
//
//   - Transport: request/response exchanges against the fixed HTTPS
//     endpoint. Attaches content-negotiation and credential headers,
//     honors caller timeouts via context, and never retries.
//   - Client: the session lifecycle. A handshake negotiates protocol
//     version and capabilities; the server-assigned session identifier
//     arrives in the Mcp-Session-Id response header and is echoed on
//     every subsequent request until an explicit DELETE terminates the
//     session.
//   - Call: named remote procedure invocation with typed params on an
//     established session. Call ids come from a session-scoped
//     monotonic counter, so rapid sequential calls never collide.
//
// Each Client owns its session state exclusively. There is no package
// level session: multiple independent sessions can coexist in one
// process by creating multiple Clients.
//
// The layer gives no ordering guarantee between calls issued without
// awaiting the prior result. Callers that need ordering must serialize
// their own calls.
package protocol
