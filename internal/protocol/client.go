// ABOUTME: Session lifecycle and remote procedure invocation for the memory service.
// ABOUTME: Handshake assigns the session id; Call issues JSON-RPC methods against it.

package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/tactolearn/memvault/internal/frame"
)

// protocolVersion is declared in the initialize handshake.
const protocolVersion = "2025-03-26"

// State is the session lifecycle state.
type State int

const (
	StateUnestablished State = iota
	StateEstablishing
	StateEstablished
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnestablished:
		return "unestablished"
	case StateEstablishing:
		return "establishing"
	case StateEstablished:
		return "established"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ClientInfo identifies this client in the handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo is what the handshake negotiates: the server's identity,
// protocol version, and advertised capabilities.
type ServerInfo struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	Server          struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

// initializeParams is the handshake request payload.
type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

// defaultClientInfo identifies this library when the caller does not.
var defaultClientInfo = ClientInfo{Name: "memvault-go", Version: "1.0.0"}

// Client owns one session with the memory service. The session id is
// written once by Initialize, read by every Call, and cleared only by
// Terminate; all access goes through the mutex. Create one Client per
// session - there is no package-level session state.
type Client struct {
	transport *Transport
	logger    *slog.Logger
	info      ClientInfo

	mu         sync.Mutex
	state      State
	sessionID  string
	negotiated string // protocol version from the handshake result

	callSeq atomic.Uint64
}

// ClientConfig holds configuration for a Client.
type ClientConfig struct {
	Transport  *Transport
	ClientInfo ClientInfo // zero value uses defaultClientInfo
	Logger     *slog.Logger
}

// NewClient creates an unestablished client. Initialize must succeed
// before any call is issued.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	info := cfg.ClientInfo
	if info.Name == "" {
		info = defaultClientInfo
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: cfg.Transport,
		logger:    logger.With("component", "session"),
		info:      info,
	}, nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the server-assigned session identifier, or empty
// when no session is established.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Initialize performs the handshake: declares protocol version and
// client capabilities, reads the session id from the response headers,
// and transitions to Established. Re-initializing an established
// session fails without touching the existing session id. A Terminate
// that lands mid-handshake wins: the client stays terminated and any
// session the server issued is released.
func (c *Client) Initialize(ctx context.Context) (*ServerInfo, error) {
	c.mu.Lock()
	switch c.state {
	case StateEstablished, StateEstablishing:
		c.mu.Unlock()
		return nil, ErrAlreadyEstablished
	case StateTerminated:
		c.mu.Unlock()
		return nil, ErrTerminated
	}
	c.state = StateEstablishing
	c.mu.Unlock()

	info, sessionID, err := c.handshake(ctx)

	c.mu.Lock()
	if c.state != StateEstablishing {
		// A concurrent Terminate landed while the handshake was in
		// flight. Terminated is final: the handshake result is
		// discarded and the just-issued session released, never armed.
		c.mu.Unlock()
		if err == nil && sessionID != "" {
			if derr := c.transport.Delete(ctx, sessionID); derr != nil {
				c.logger.Warn("releasing orphaned session failed",
					"session_id", sessionID,
					"error", derr)
			}
		}
		return nil, ErrTerminated
	}
	if err != nil {
		c.state = StateUnestablished
		c.mu.Unlock()
		return nil, err
	}
	c.state = StateEstablished
	c.sessionID = sessionID
	c.negotiated = info.ProtocolVersion
	c.mu.Unlock()

	c.logger.Info("session established",
		"session_id", sessionID,
		"protocol_version", info.ProtocolVersion,
		"server", info.Server.Name)
	return info, nil
}

// handshake runs the initialize exchange and returns the negotiated
// server info and the session id from the response headers.
func (c *Client) handshake(ctx context.Context) (*ServerInfo, string, error) {
	req := Request{
		JSONRPC: "2.0",
		ID:      c.nextCallID(),
		Method:  "initialize",
		Params: initializeParams{
			ProtocolVersion: protocolVersion,
			ClientInfo:      c.info,
			Capabilities:    map[string]any{},
		},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, "", &HandshakeError{Reason: "encoding request", Err: err}
	}

	resp, err := c.transport.Post(ctx, body, "", "")
	if err != nil {
		return nil, "", &HandshakeError{Reason: "transport failure", Err: err}
	}

	doc, err := frame.Decode(resp.Body, resp.ContentType)
	if err != nil {
		return nil, "", &HandshakeError{Reason: "decoding response", Err: err}
	}

	var env Response
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, "", &HandshakeError{Reason: "decoding envelope", Err: err}
	}
	if env.Error != nil {
		return nil, "", &HandshakeError{
			Reason: "server rejected handshake",
			Err: &RemoteCallError{
				Method:  "initialize",
				Code:    env.Error.Code,
				Message: env.Error.Message,
				Data:    env.Error.Data,
			},
		}
	}

	sessionID := resp.Header.Get(headerSessionID)
	if sessionID == "" {
		return nil, "", &HandshakeError{Reason: "no session identifier returned"}
	}

	var info ServerInfo
	if err := json.Unmarshal(env.Result, &info); err != nil {
		return nil, "", &HandshakeError{Reason: "decoding server info", Err: err}
	}
	return &info, sessionID, nil
}

// Terminate sends the explicit session-termination request and
// transitions to Terminated regardless of the call's outcome: the goal
// is local cleanup, so a transport failure is logged, not raised.
// Calling Terminate again is a no-op.
func (c *Client) Terminate(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return nil
	}
	sessionID := c.sessionID
	c.state = StateTerminated
	c.sessionID = ""
	c.negotiated = ""
	c.mu.Unlock()

	if sessionID == "" {
		// Never established; nothing to tear down remotely.
		return nil
	}

	if err := c.transport.Delete(ctx, sessionID); err != nil {
		c.logger.Warn("session termination request failed",
			"session_id", sessionID,
			"error", err)
		return nil
	}

	c.logger.Info("session terminated", "session_id", sessionID)
	return nil
}

// Call invokes a named remote method with typed params on the
// established session and returns the result payload. An error result
// from the peer surfaces as *RemoteCallError.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	switch c.state {
	case StateTerminated:
		c.mu.Unlock()
		return nil, ErrTerminated
	case StateEstablished:
		// proceed
	default:
		c.mu.Unlock()
		return nil, ErrNotEstablished
	}
	sessionID := c.sessionID
	negotiated := c.negotiated
	c.mu.Unlock()

	req := Request{
		JSONRPC: "2.0",
		ID:      c.nextCallID(),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}

	c.logger.Debug("remote call", "method", method, "call_id", req.ID)

	resp, err := c.transport.Post(ctx, body, sessionID, negotiated)
	if err != nil {
		return nil, err
	}

	doc, err := frame.Decode(resp.Body, resp.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	var env Response
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", method, frame.ErrMalformedResponse, err)
	}
	if env.Error != nil {
		return nil, &RemoteCallError{
			Method:  method,
			Code:    env.Error.Code,
			Message: env.Error.Message,
			Data:    env.Error.Data,
		}
	}
	return env.Result, nil
}

// nextCallID returns the next call id from the session-scoped monotonic
// counter. Unique within the client's lifetime, unlike time-derived ids
// which collide under rapid sequential calls.
func (c *Client) nextCallID() string {
	return strconv.FormatUint(c.callSeq.Add(1), 10)
}
