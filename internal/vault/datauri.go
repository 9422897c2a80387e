// ABOUTME: Data URI encoding for vault write payloads.
// ABOUTME: Wraps content as data:<mime>;base64,<payload> and decodes it back.

package vault

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// MIME types used for encoded write payloads.
const (
	mimeText   = "text/plain"
	mimeJSON   = "application/json"
	mimeBinary = "application/octet-stream"
)

// encodeDataURI wraps content in a self-describing data URI. Strings
// pass through as UTF-8 text, byte slices as binary, and anything else
// is serialized to JSON first.
func encodeDataURI(content any) (string, error) {
	var raw []byte
	var mime string

	switch v := content.(type) {
	case string:
		raw, mime = []byte(v), mimeText
	case []byte:
		raw, mime = v, mimeBinary
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("serializing content: %w", err)
		}
		raw, mime = data, mimeJSON
	}

	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw)), nil
}

// decodeDataURI extracts the payload from a data URI. Returns false if
// s is not a base64 data URI, in which case the caller should treat s
// as literal content.
func decodeDataURI(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, false
	}
	_, payload, found := strings.Cut(s, ";base64,")
	if !found {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return raw, true
}
