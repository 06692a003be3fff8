package request

import (
	"unicode/utf8"

	"github.com/Brownie44l1/httpscan/internal/bytesconv"
	"github.com/Brownie44l1/httpscan/internal/config"
)

// FirstLine is the request line: METHOD PATH VERSION\r\n.
// Method and Version alias the parsed buffer.
type FirstLine struct {
	Method  string
	Path    Path
	Version string

	// Consumed is the offset just past the line's LF
	Consumed int
}

// ParseFirstLine scans the request line in one pass.
//
// An overlong method is ErrInvalidFormat. A path reaching past
// MaxPathSize from the start of the buffer, an overlong version, or a
// method or version that is not UTF-8 is ErrDangerousInvalidFormat. The
// version only ends at a CR directly followed by LF; a lone CR is part of
// the version. The path bytes are not decoded.
func ParseFirstLine(b []byte, cfg config.Config) (FirstLine, error) {
	var (
		n          = len(b)
		start      int
		method     []byte
		path       []byte
		methodDone bool
		pathDone   bool
	)

	for i := 0; i < n; i++ {
		c := b[i]

		switch {
		case !methodDone:
			if i >= cfg.MaxMethodSize {
				return FirstLine{}, ErrInvalidFormat
			}
			if c == ' ' {
				method = b[:i]
				methodDone = true
				if i+1 >= n {
					return FirstLine{}, ErrNeedMoreData
				}
				start = i + 1
			}

		case !pathDone:
			if i >= cfg.MaxPathSize {
				return FirstLine{}, ErrDangerousInvalidFormat
			}
			if c == ' ' {
				path = b[start:i]
				pathDone = true
				if i+1 >= n {
					return FirstLine{}, ErrNeedMoreData
				}
				start = i + 1
			}

		default:
			if i-start >= cfg.MaxVersionSize {
				return FirstLine{}, ErrDangerousInvalidFormat
			}
			if c != '\r' {
				continue
			}
			if i+1 >= n {
				return FirstLine{}, ErrNeedMoreData
			}
			if b[i+1] != '\n' {
				continue
			}

			version := b[start:i]
			if !utf8.Valid(method) || !utf8.Valid(version) {
				return FirstLine{}, ErrDangerousInvalidFormat
			}
			return FirstLine{
				Method:   bytesconv.B2S(method),
				Path:     Path(path),
				Version:  bytesconv.B2S(version),
				Consumed: i + 2,
			}, nil
		}
	}

	// Need more data
	return FirstLine{}, ErrNeedMoreData
}
