package request

import (
	"bytes"
	"strings"
)

// Path is the raw request target as it appeared on the request line.
// It is neither decoded nor checked to be valid text.
type Path []byte

// Bytes returns the raw target bytes.
func (p Path) Bytes() []byte {
	return p
}

// String copies the target into a string.
func (p Path) String() string {
	return string(p)
}

// Split separates the target on its first '?' into the path and the query
// parameters. Pairs without '=' are dropped and a repeated key keeps its
// last value. Nothing is percent-decoded.
func (p Path) Split() (string, map[string]string) {
	path, query, _ := bytes.Cut(p, []byte{'?'})
	return string(path), parseQuery(string(query))
}

// Query returns just the query parameters of the target.
func (p Path) Query() map[string]string {
	_, query, _ := bytes.Cut(p, []byte{'?'})
	return parseQuery(string(query))
}

func parseQuery(query string) map[string]string {
	params := make(map[string]string)
	if query == "" {
		return params
	}
	for _, pair := range strings.Split(query, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		params[key] = value
	}
	return params
}
