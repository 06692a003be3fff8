package server

import (
	"golang.org/x/net/http/httpguts"

	"github.com/Brownie44l1/httpscan/internal/request"
	"github.com/Brownie44l1/httpscan/internal/response"
)

// shouldCloseConnection determines if connection should be closed after this request
func shouldCloseConnection(req *request.Request, w *response.Writer) bool {
	// If response had errors, close the connection
	if w.HadError() {
		return true
	}

	// Anything but a plain answer was a rejection
	if w.StatusCode() != response.StatusOK {
		return true
	}

	return !keepAlive(req)
}

// keepAlive applies the version default, then the Connection header.
func keepAlive(req *request.Request) bool {
	var conn []string
	if v, ok := req.Headers().GetString("Connection"); ok {
		conn = []string{v}
	}

	switch req.Version() {
	case "HTTP/1.1":
		return !httpguts.HeaderValuesContainsToken(conn, "close")
	case "HTTP/1.0":
		return httpguts.HeaderValuesContainsToken(conn, "keep-alive")
	default:
		return false
	}
}
