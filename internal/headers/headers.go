package headers

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"

	"github.com/Brownie44l1/httpscan/internal/bytesconv"
	"github.com/Brownie44l1/httpscan/internal/config"
)

var (
	ErrInvalidFormat          = errors.New("invalid header format")
	ErrCapacityExceeded       = errors.New("header capacity exceeded")
	ErrNeedMoreData           = errors.New("incomplete header block")
	ErrDangerousInvalidFormat = errors.New("dangerous header block")

	// ErrBlockTooLarge is the ErrDangerousInvalidFormat returned once the
	// block passes MaxHeadersSize.
	ErrBlockTooLarge = fmt.Errorf("%w: larger than the configured maximum", ErrDangerousInvalidFormat)
)

// Line is one stored header line. Both fields alias the parsed buffer.
type Line struct {
	Key   string
	Value Value
}

// Headers is the parsed header block. Stored lines live in the storage
// slice handed to Parse; lines beyond its length are scanned but dropped.
type Headers struct {
	lines            []Line
	seen             int
	contentLength    uint64
	hasContentLength bool

	// Consumed is the offset of the first body byte in the parsed input
	Consumed int
}

// Parse scans a header block that directly follows a request line.
//
// The block ends once four consecutive CR/LF bytes have been seen and the
// last of them is a LF. The request line's own CRLF counts towards those
// four, so an empty block is just "\r\n".
//
// storage is caller-owned: len(storage) is the number of lines kept.
func Parse(b []byte, cfg config.Config, storage []Line) (Headers, error) {
	var (
		h      Headers
		n      = len(b)
		breaks = 2
		start  int
		key    []byte
		hasKey bool
	)

	for i := 0; i < n; i++ {
		if i >= cfg.MaxHeadersSize {
			return Headers{}, ErrBlockTooLarge
		}

		switch b[i] {
		case ':':
			breaks = 0
			if hasKey {
				continue
			}
			key = b[start:i]
			hasKey = true
			// skip the colon and the single space expected after it
			if i+2 >= n {
				return Headers{}, ErrNeedMoreData
			}
			start = i + 2

		case '\r':
			breaks++
			if hasKey {
				value := b[min(start, i):i]
				if isContentLength(key) {
					h.contentLength, h.hasContentLength = bytesconv.ParseUint(value)
				}
				if h.seen < len(storage) {
					if !utf8.Valid(key) {
						return Headers{}, ErrDangerousInvalidFormat
					}
					storage[h.seen] = Line{Key: bytesconv.B2S(key), Value: Value(value)}
				}
				h.seen++
				hasKey = false
			}
			if i+1 >= n {
				return Headers{}, ErrNeedMoreData
			}
			start = i + 1

		case '\n':
			breaks++
			if breaks >= 4 {
				h.lines = storage[:min(h.seen, len(storage))]
				h.Consumed = i + 1
				return h, nil
			}
			if i+1 >= n {
				return Headers{}, ErrNeedMoreData
			}
			start = i + 1

		default:
			breaks = 0
		}
	}

	return Headers{}, ErrNeedMoreData
}

// Only these two spellings take the fast path; Get still finds any casing.
func isContentLength(key []byte) bool {
	switch string(key) {
	case "Content-Length", "content-length":
		return true
	}
	return false
}

// Get returns the value of the first stored line whose key equals key
// exactly, falling back to the first case-insensitive match.
func (h *Headers) Get(key string) (Value, bool) {
	for _, line := range h.lines {
		if line.Key == key {
			return line.Value, true
		}
	}
	for _, line := range h.lines {
		if bytesconv.EqualFold(line.Key, key) {
			return line.Value, true
		}
	}
	return nil, false
}

// GetString is Get returning the value as a string view.
func (h *Headers) GetString(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// GetBytes is Get returning the raw value bytes.
func (h *Headers) GetBytes(key string) ([]byte, bool) {
	v, ok := h.Get(key)
	if !ok {
		return nil, false
	}
	return []byte(v), true
}

// ContentLength returns the Content-Length captured during the scan.
func (h *Headers) ContentLength() (uint64, bool) {
	return h.contentLength, h.hasContentLength
}

// Lines returns the stored lines with a non-empty key, in storage order.
func (h *Headers) Lines() []Line {
	lines := make([]Line, 0, len(h.lines))
	for _, line := range h.lines {
		if line.Key != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Len is the number of stored lines.
func (h *Headers) Len() int {
	return len(h.lines)
}

// Seen is the number of header lines encountered, stored or not.
func (h *Headers) Seen() int {
	return h.seen
}

// Dropped is the number of lines that did not fit in storage.
func (h *Headers) Dropped() int {
	return h.seen - len(h.lines)
}

// Validate checks stored keys and values against the RFC 7230 token and
// field-value grammars. Parse itself is lenient; callers opt in to this.
func (h *Headers) Validate() error {
	for _, line := range h.lines {
		if !httpguts.ValidHeaderFieldName(line.Key) {
			return ErrInvalidFormat
		}
		if !httpguts.ValidHeaderFieldValue(line.Value.String()) {
			return ErrInvalidFormat
		}
	}
	return nil
}
