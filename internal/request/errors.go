package request

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/httpscan/internal/headers"
)

var (
	ErrInvalidFormat = errors.New("invalid request format")

	// ErrNeedMoreData means the buffer is a valid prefix of a request.
	// Retry with a larger buffer holding the same bytes plus new ones.
	ErrNeedMoreData = errors.New("incomplete request, read more")

	// ErrDangerousInvalidFormat marks oversized or undecodable input.
	ErrDangerousInvalidFormat = errors.New("dangerous request format")
)

// HeadersError reports a header block failure other than running out of
// data. Err is one of the headers package errors.
type HeadersError struct {
	Err error
}

func (e *HeadersError) Error() string {
	return fmt.Sprintf("invalid request headers: %v", e.Err)
}

func (e *HeadersError) Unwrap() error {
	return e.Err
}

// Recoverable reports whether err only asks for more input.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNeedMoreData)
}

// Flatten maps a header stage error onto the request error kinds.
func Flatten(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, headers.ErrNeedMoreData):
		return ErrNeedMoreData
	case errors.Is(err, headers.ErrInvalidFormat):
		return ErrInvalidFormat
	case errors.Is(err, headers.ErrCapacityExceeded),
		errors.Is(err, headers.ErrDangerousInvalidFormat):
		return ErrDangerousInvalidFormat
	default:
		return err
	}
}
