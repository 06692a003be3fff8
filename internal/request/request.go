package request

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/httpscan/internal/config"
	"github.com/Brownie44l1/httpscan/internal/headers"
)

// DefaultHeaderCapacity is the storage size used by callers that have no
// better figure.
const DefaultHeaderCapacity = 16

// parserState represents the current state of the request parser
type parserState int

const (
	stateFirstLine parserState = iota
	stateHeaders
	stateCompleted
	stateError
)

// Request is a parsed request line and header block. Every view it hands
// out aliases the buffer given to Parse, which must outlive the Request.
type Request struct {
	firstLine FirstLine
	headers   headers.Headers
}

// Parse reads a request line and header block from the start of b.
//
// storage receives the header lines; lines beyond len(storage) are scanned
// but not kept. ErrNeedMoreData asks for the whole parse to be retried
// with more bytes: nothing is carried over between calls. Header failures
// other than running out of data come back as *HeadersError.
func Parse(b []byte, cfg config.Config, storage []headers.Line) (Request, error) {
	var (
		req   Request
		state = stateFirstLine
		rest  = b
		err   error
	)

	for {
		switch state {
		case stateFirstLine:
			req.firstLine, err = ParseFirstLine(rest, cfg)
			if err != nil {
				state = stateError
				continue
			}
			rest = rest[req.firstLine.Consumed:]
			state = stateHeaders

		case stateHeaders:
			req.headers, err = headers.Parse(rest, cfg, storage)
			if err != nil {
				if errors.Is(err, headers.ErrNeedMoreData) {
					err = ErrNeedMoreData
				} else {
					err = &HeadersError{Err: err}
				}
				state = stateError
				continue
			}
			state = stateCompleted

		case stateCompleted:
			return req, nil

		case stateError:
			return Request{}, err

		default:
			return Request{}, fmt.Errorf("invalid parser state: %d", state)
		}
	}
}

// ParseFlat is Parse without the two-stage error wrapping: header failures
// are reported with the request error kinds.
func ParseFlat(b []byte, cfg config.Config, storage []headers.Line) (Request, error) {
	first, err := ParseFirstLine(b, cfg)
	if err != nil {
		return Request{}, err
	}

	h, err := headers.Parse(b[first.Consumed:], cfg, storage)
	if err != nil {
		return Request{}, Flatten(err)
	}

	return Request{firstLine: first, headers: h}, nil
}

// Method returns the request method
func (r *Request) Method() string {
	return r.firstLine.Method
}

// Version returns the protocol version
func (r *Request) Version() string {
	return r.firstLine.Version
}

// Path returns the raw request target
func (r *Request) Path() Path {
	return r.firstLine.Path
}

// FirstLine returns the parsed request line
func (r *Request) FirstLine() FirstLine {
	return r.firstLine
}

// Headers returns the parsed header block
func (r *Request) Headers() *headers.Headers {
	return &r.headers
}

// BodyOffset is the offset of the first body byte in the parsed buffer.
func (r *Request) BodyOffset() int {
	return r.firstLine.Consumed + r.headers.Consumed
}

// Body returns the part of the Content-Length body already present in b,
// the buffer the request was parsed from, and whether all of it is there.
// Without a Content-Length the body is empty and complete.
func (r *Request) Body(b []byte) ([]byte, bool) {
	off := r.BodyOffset()
	if off > len(b) {
		return nil, false
	}

	cl, ok := r.headers.ContentLength()
	if !ok {
		return b[off:off], true
	}

	avail := uint64(len(b) - off)
	if avail < cl {
		return b[off:], false
	}
	return b[off : off+int(cl)], true
}
