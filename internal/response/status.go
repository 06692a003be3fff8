package response

import (
	"errors"

	"github.com/Brownie44l1/httpscan/internal/headers"
	"github.com/Brownie44l1/httpscan/internal/request"
)

// StatusCode represents HTTP status codes
type StatusCode int

const (
	StatusOK                          StatusCode = 200
	StatusBadRequest                  StatusCode = 400
	StatusRequestTimeout              StatusCode = 408
	StatusRequestEntityTooLarge       StatusCode = 413
	StatusRequestHeaderFieldsTooLarge StatusCode = 431
	StatusInternalServerError         StatusCode = 500
)

// statusText maps status codes to reason phrases
var statusText = map[StatusCode]string{
	StatusOK:                          "OK",
	StatusBadRequest:                  "Bad Request",
	StatusRequestTimeout:              "Request Timeout",
	StatusRequestEntityTooLarge:       "Request Entity Too Large",
	StatusRequestHeaderFieldsTooLarge: "Request Header Fields Too Large",
	StatusInternalServerError:         "Internal Server Error",
}

// StatusText returns the text description for a status code
func StatusText(code StatusCode) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Unknown Status"
}

// StatusFor picks the status used to reject input that failed to parse.
func StatusFor(err error) StatusCode {
	var herr *request.HeadersError
	switch {
	case errors.As(err, &herr) && errors.Is(herr.Err, headers.ErrBlockTooLarge):
		return StatusRequestHeaderFieldsTooLarge
	case errors.Is(err, request.ErrInvalidFormat),
		errors.Is(err, request.ErrDangerousInvalidFormat),
		errors.As(err, &herr):
		return StatusBadRequest
	default:
		return StatusInternalServerError
	}
}

// IsClientError returns true for 4xx status codes
func (code StatusCode) IsClientError() bool {
	return code >= 400 && code < 500
}
