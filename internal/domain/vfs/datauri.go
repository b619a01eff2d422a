package vfs

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
)

var dataURIPattern = regexp.MustCompile(`(?s)^data:(.+);base64,(.+)$`)

// payloadEncodings are tried in order. Padding and the URL-safe alphabet
// are both optional.
var payloadEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

const octetStream = "application/octet-stream"

// parseDataURI splits a base64 data URI into its MIME type and payload
func parseDataURI(s string) (mime string, payload []byte, ok bool) {
	m := dataURIPattern.FindStringSubmatch(s)
	if m == nil {
		return "", nil, false
	}
	payload, ok = decodePayload(m[2])
	if !ok {
		return "", nil, false
	}
	return m[1], payload, true
}

// decodePayload decodes base64 with embedded whitespace removed
func decodePayload(s string) ([]byte, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, false
	}
	for _, enc := range payloadEncodings {
		if payload, err := enc.DecodeString(s); err == nil {
			return payload, true
		}
	}
	return nil, false
}

// FormatDataURI encodes payload as a base64 data URI
func FormatDataURI(mime string, payload []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// refineMIME replaces a generic declared type with the sniffed one
func refineMIME(declared string, payload []byte) string {
	if declared != octetStream && declared != "" {
		return declared
	}
	detected := mimetype.Detect(payload)
	if detected.Is(octetStream) {
		return declared
	}
	return detected.String()
}
