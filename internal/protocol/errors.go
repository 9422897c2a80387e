// ABOUTME: Error taxonomy for the protocol layer.
// ABOUTME: Distinguishes transport failures, handshake failures, and remote call errors.

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Session state sentinels.
var (
	// ErrNotEstablished is returned when a call is attempted before a
	// successful handshake.
	ErrNotEstablished = errors.New("session not established")

	// ErrTerminated is returned when a call is attempted after the
	// session was terminated. The stale session identifier is never
	// sent on the wire.
	ErrTerminated = errors.New("session terminated")

	// ErrAlreadyEstablished is returned by Initialize on a client that
	// already holds a live session.
	ErrAlreadyEstablished = errors.New("session already established")
)

// TransportError reports a connectivity-level failure: timeout,
// connection refused, TLS failure. It is never retried by this layer.
type TransportError struct {
	Op  string // "post" or "delete"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HandshakeError reports a failed session handshake. It is fatal to
// session establishment: the caller must not proceed to issue calls.
type HandshakeError struct {
	Reason string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("handshake failed: %s", e.Reason)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// RemoteCallError is an explicit failure reported by the remote peer
// for a specific call, as opposed to a transport-level failure.
type RemoteCallError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call %s failed: %s (code %d)", e.Method, e.Message, e.Code)
}

// Unauthorized reports whether the failure was a credential rejection.
// Unauthorized calls are not worth retrying.
func (e *RemoteCallError) Unauthorized() bool { return e.Code == CodeUnauthorized }

// Retryable reports whether a retry could plausibly succeed. Only
// internal server errors qualify; this layer itself never retries.
func (e *RemoteCallError) Retryable() bool { return e.Code == CodeInternalError }
