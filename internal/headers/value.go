package headers

import (
	"bytes"
	"errors"
	"strings"

	"github.com/Brownie44l1/httpscan/internal/bytesconv"
)

// ErrMalformedParams is returned when a value ends right after '=' or
// right after the space following ';'.
var ErrMalformedParams = errors.New("malformed header parameters")

var valueSeparator = []byte(", ")

// Value is a raw header value. It aliases the parsed buffer and is not
// validated as text.
type Value []byte

// String returns the value as a string view over the same bytes.
func (v Value) String() string {
	return bytesconv.B2S(v)
}

// Values splits a value like "text/html, application/xml;q=0.9" on ", ".
// Nothing else is a separator and nothing is trimmed.
func (v Value) Values() []string {
	return strings.Split(v.String(), ", ")
}

// ValuesWithParams splits the value like Values and parses the parameters
// of each part. Parts that fail to parse are left out.
func (v Value) ValuesWithParams() []Params {
	parts := bytes.Split(v, valueSeparator)
	params := make([]Params, 0, len(parts))
	for _, part := range parts {
		p, err := ParseParams(part)
		if err != nil {
			continue
		}
		params = append(params, p)
	}
	return params
}

// Params parses the value itself as "value; name=x; token".
func (v Value) Params() (Params, error) {
	return ParseParams(v)
}

// Params is a header value broken into its primary value and parameters.
type Params struct {
	raw        []byte
	value      string
	named      map[string][]byte
	unnamed    []byte
	hasUnnamed bool
}

// ParseParams splits b on ';' into segments. The first segment is the
// primary value unless it holds an '=', in which case it is a named
// parameter and the whole input stands as the value. Every later segment
// is either name=value or a bare token; bare tokens share one unnamed slot
// and the last one wins. One space after each ';' is skipped.
//
// A bare token after a leading name=value is never promoted to the primary
// value: "q=1; text/html" has the value "q=1; text/html", not "text/html".
func ParseParams(b []byte) (Params, error) {
	p := Params{raw: b}

	var (
		n        = len(b)
		start    int
		name     []byte
		hasName  bool
		first    = true
		hasValue bool
	)

	flush := func(end int) {
		switch {
		case hasName:
			p.setNamed(name, b[start:end])
			hasName = false
		case first:
			p.value = bytesconv.B2S(b[start:end])
			hasValue = true
		default:
			p.unnamed = b[start:end]
			p.hasUnnamed = true
		}
		first = false
	}

	for i := 0; i < n; i++ {
		switch b[i] {
		case ';':
			flush(i)
			start = i + 1
			if i+1 < n && b[i+1] == ' ' {
				if i+2 >= n {
					return Params{}, ErrMalformedParams
				}
				start = i + 2
				i++
			}
		case '=':
			name = b[start:i]
			hasName = true
			if i+1 >= n {
				return Params{}, ErrMalformedParams
			}
			start = i + 1
		}
	}

	if hasName || (!first && start < n) {
		flush(n)
	}
	if !hasValue {
		p.value = bytesconv.B2S(b)
	}
	return p, nil
}

func (p *Params) setNamed(name, value []byte) {
	if p.named == nil {
		p.named = make(map[string][]byte)
	}
	p.named[bytesconv.B2S(name)] = value
}

// Value returns the primary value.
func (p Params) Value() string {
	return p.value
}

// Whole returns the entire raw value, parameters included.
func (p Params) Whole() string {
	return bytesconv.B2S(p.raw)
}

// Get returns the named parameter. When no parameter has that name, a
// bare token equal to name is returned instead.
func (p Params) Get(name string) ([]byte, bool) {
	if v, ok := p.named[name]; ok {
		return v, true
	}
	if p.hasUnnamed && string(p.unnamed) == name {
		return p.unnamed, true
	}
	return nil, false
}

// Named returns the named parameters. The map must not be modified.
func (p Params) Named() map[string][]byte {
	return p.named
}

// Unnamed returns the last bare token, if any.
func (p Params) Unnamed() ([]byte, bool) {
	return p.unnamed, p.hasUnnamed
}
