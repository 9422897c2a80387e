// ABOUTME: HTTP transport for the memory service endpoint.
// ABOUTME: Attaches negotiation, credential, and session headers; never retries.

package protocol

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Header names used on the wire.
const (
	headerSessionID       = "Mcp-Session-Id"
	headerProtocolVersion = "Mcp-Protocol-Version"
	headerAPIKey          = "X-Api-Key"
	headerUserID          = "X-User-Id"
)

// acceptTypes advertises both response formats the frame decoder handles.
const acceptTypes = "application/json, text/event-stream"

// defaultTimeout bounds a single exchange when the caller's context
// carries no deadline of its own.
const defaultTimeout = 30 * time.Second

// Credentials are the static credentials attached to every request.
type Credentials struct {
	APIKey string
	UserID string
}

// TransportConfig holds configuration for a Transport.
type TransportConfig struct {
	// Endpoint is the fixed HTTPS endpoint all calls are POSTed to.
	Endpoint string

	Credentials Credentials

	// Timeout bounds each exchange. Zero means defaultTimeout.
	Timeout time.Duration

	// InsecureSkipTLSVerify disables certificate validation. Explicit
	// opt-in for development against self-signed endpoints only.
	InsecureSkipTLSVerify bool

	Logger *slog.Logger

	// HTTPClient overrides the constructed client (tests).
	HTTPClient *http.Client
}

// RawResponse is one transport exchange's result: status, headers, and
// the unparsed body. Decoding belongs to the frame layer.
type RawResponse struct {
	Status      int
	Header      http.Header
	ContentType string
	Body        []byte
}

// Transport issues request/response exchanges against the remote
// endpoint. It attaches headers and surfaces failures; it does not
// retry and it does not interpret bodies.
type Transport struct {
	endpoint string
	creds    Credentials
	client   *http.Client
	logger   *slog.Logger
}

// NewTransport validates the endpoint and builds a Transport.
func NewTransport(cfg TransportConfig) (*Transport, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint must be http(s), got %q", cfg.Endpoint)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "transport")

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
		if cfg.InsecureSkipTLSVerify {
			logger.Warn("TLS certificate verification disabled", "endpoint", cfg.Endpoint)
			client.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}

	return &Transport{
		endpoint: cfg.Endpoint,
		creds:    cfg.Credentials,
		client:   client,
		logger:   logger,
	}, nil
}

// Post sends one JSON-RPC request body. sessionID and protocolVersion
// are attached as headers when non-empty; the handshake call passes
// both empty. Network failures surface as *TransportError.
func (t *Transport) Post(ctx context.Context, body []byte, sessionID, protocolVersion string) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptTypes)
	t.setCredentials(req)
	if sessionID != "" {
		req.Header.Set(headerSessionID, sessionID)
	}
	if protocolVersion != "" {
		req.Header.Set(headerProtocolVersion, protocolVersion)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: fmt.Errorf("reading response body: %w", err)}
	}

	t.logger.Debug("exchange complete",
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(data))

	return &RawResponse{
		Status:      resp.StatusCode,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// Delete sends the session-termination request. A 404 counts as
// success: the server already forgot the session.
func (t *Transport) Delete(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, t.endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	t.setCredentials(req)
	req.Header.Set(headerSessionID, sessionID)

	resp, err := t.client.Do(req)
	if err != nil {
		return &TransportError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return &TransportError{Op: "delete", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
}

func (t *Transport) setCredentials(req *http.Request) {
	if t.creds.APIKey != "" {
		req.Header.Set(headerAPIKey, t.creds.APIKey)
	}
	if t.creds.UserID != "" {
		req.Header.Set(headerUserID, t.creds.UserID)
	}
}
