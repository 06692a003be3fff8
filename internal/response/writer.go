package response

import (
	"fmt"
	"io"
	"strconv"
)

// writerState tracks what's been written so far
type writerState int

const (
	stateStart writerState = iota
	stateStatusWritten
	stateHeadersWritten
	stateBodyWritten
)

// Writer writes HTTP responses to an io.Writer
type Writer struct {
	w          io.Writer
	state      writerState
	statusCode StatusCode
	hadError   bool
}

// NewWriter creates a new response writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:     w,
		state: stateStart,
	}
}

// WriteStatusLine writes the HTTP status line
func (w *Writer) WriteStatusLine(code StatusCode) error {
	if w.state != stateStart {
		return fmt.Errorf("status line already written")
	}

	statusLine := fmt.Sprintf("HTTP/1.1 %d %s\r\n", code, StatusText(code))
	if _, err := io.WriteString(w.w, statusLine); err != nil {
		w.hadError = true
		return err
	}

	w.statusCode = code
	w.state = stateStatusWritten
	return nil
}

// WriteHeaders writes name/value pairs in order and ends the header block.
func (w *Writer) WriteHeaders(pairs ...string) error {
	if w.state != stateStatusWritten {
		return fmt.Errorf("must write status line before headers")
	}
	if len(pairs)%2 != 0 {
		return fmt.Errorf("header pairs must come as name, value")
	}

	for i := 0; i < len(pairs); i += 2 {
		if _, err := fmt.Fprintf(w.w, "%s: %s\r\n", pairs[i], pairs[i+1]); err != nil {
			w.hadError = true
			return err
		}
	}

	// Write empty line to end headers
	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		w.hadError = true
		return err
	}

	w.state = stateHeadersWritten
	return nil
}

// WriteBody writes the complete response body
func (w *Writer) WriteBody(data []byte) error {
	if w.state != stateHeadersWritten {
		return fmt.Errorf("must write headers before body")
	}

	if len(data) > 0 {
		if _, err := w.w.Write(data); err != nil {
			w.hadError = true
			return err
		}
	}

	w.state = stateBodyWritten
	return nil
}

// TextResponse writes a complete plain text response
func (w *Writer) TextResponse(code StatusCode, body string, extra ...string) error {
	if err := w.WriteStatusLine(code); err != nil {
		return err
	}

	pairs := append([]string{
		"Content-Type", "text/plain; charset=utf-8",
		"Content-Length", strconv.Itoa(len(body)),
	}, extra...)
	if err := w.WriteHeaders(pairs...); err != nil {
		return err
	}

	return w.WriteBody([]byte(body))
}

// ErrorResponse writes an error response and asks the client to close
func (w *Writer) ErrorResponse(code StatusCode, message string) error {
	return w.TextResponse(code, message+"\n", "Connection", "close")
}

func (w *Writer) HadError() bool {
	return w.hadError
}

func (w *Writer) StatusCode() StatusCode {
	return w.statusCode
}
