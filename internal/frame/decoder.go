// ABOUTME: Decodes raw response bodies into a single JSON document.
// ABOUTME: Handles plain JSON and SSE event-stream bodies with multi-line data accumulation.

package frame

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when a response body cannot be
// decoded as either a JSON document or an event stream carrying one.
var ErrMalformedResponse = errors.New("malformed response body")

// streamContentType marks an SSE response in the Content-Type header.
const streamContentType = "text/event-stream"

// Decode extracts the JSON document embedded in a raw response body.
// contentType is the response's declared Content-Type; it is a hint
// only, since some servers stream with a misleading header. Returns the
// raw document for the caller to unmarshal into an envelope.
func Decode(body []byte, contentType string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	if isEventStream(trimmed, contentType) {
		if doc, ok := decodeEventStream(trimmed); ok {
			return doc, nil
		}
		// Fall through: some servers declare a stream but send a bare
		// document. Try the whole body before giving up.
	}

	if doc, ok := decodeDocument(trimmed); ok {
		return doc, nil
	}
	return nil, fmt.Errorf("%w: no parsable document", ErrMalformedResponse)
}

// isEventStream reports whether the body should be scanned as SSE.
func isEventStream(body, contentType string) bool {
	if strings.Contains(contentType, streamContentType) {
		return true
	}
	return strings.HasPrefix(body, "data:") || strings.HasPrefix(body, "event:")
}

// decodeEventStream scans SSE events line by line. Data lines belonging
// to one event are joined with newlines per the SSE spec before
// parsing, so a document split across data lines is reassembled. The
// first complete event whose joined payload parses as JSON wins.
func decodeEventStream(body string) (json.RawMessage, bool) {
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var dataLines []string

	flush := func() (json.RawMessage, bool) {
		if len(dataLines) == 0 {
			return nil, false
		}
		payload := strings.Join(dataLines, "\n")
		dataLines = nil
		return decodeDocument(payload)
	}

	for scanner.Scan() {
		line := scanner.Text()

		// Blank line terminates the current event.
		if strings.TrimSpace(line) == "" {
			if doc, ok := flush(); ok {
				return doc, true
			}
			continue
		}

		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			dataLines = append(dataLines, strings.TrimPrefix(rest, " "))
		}
		// event:, id:, retry: and comment lines carry no payload here.
	}

	// EOF terminates the final event even without a trailing blank line.
	return flush()
}

// decodeDocument parses s as a single JSON value. Only objects and
// arrays are accepted: the envelope is always an object, and bare
// scalars would mask protocol mismatches.
func decodeDocument(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	if !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}
