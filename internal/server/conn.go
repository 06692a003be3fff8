package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/Brownie44l1/httpscan/internal/headers"
	"github.com/Brownie44l1/httpscan/internal/request"
	"github.com/Brownie44l1/httpscan/internal/response"
)

var errBodyTooLarge = errors.New("request body exceeds configured maximum")

const (
	lingerTimeout = 500 * time.Millisecond
	lingerLimit   = 256 << 10
)

// serveConn handles all requests on a single connection
func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.trackConn(conn, false)
	defer conn.Close()

	s.Metrics.ActiveConnections.Add(1)
	defer s.Metrics.ActiveConnections.Add(-1)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	chunk := GetBuffer(s.opts.ReadBufferSize)
	defer PutBuffer(chunk)

	storage := make([]headers.Line, s.opts.HeaderCapacity)
	remote := conn.RemoteAddr().String()

	for {
		req, n, err := s.readRequest(conn, buf, chunk, storage)
		if err != nil {
			s.reject(conn, remote, err)
			return
		}

		w := response.NewWriter(conn)
		s.handle(w, &req, buf.B[req.BodyOffset():n], remote)

		// req views buf.B; decide before the buffer is compacted
		closeConn := shouldCloseConnection(&req, w)

		// pipelined bytes after this request stay buffered
		buf.B = append(buf.B[:0], buf.B[n:]...)

		if closeConn {
			return
		}
	}
}

// readRequest re-parses the buffered bytes from scratch after every read
// until a request and its Content-Length body are complete. It returns the
// request and the number of buffered bytes it spans.
func (s *Server) readRequest(conn net.Conn, buf *bytebufferpool.ByteBuffer, chunk []byte, storage []headers.Line) (request.Request, int, error) {
	var readErr error

	for {
		if buf.Len() > 0 {
			start := time.Now()
			req, err := request.Parse(buf.B, s.ceilings, storage)

			switch {
			case err == nil:
				if err := s.checkBodySize(&req); err != nil {
					return request.Request{}, 0, err
				}
				body, complete := req.Body(buf.B)
				if complete {
					s.Metrics.RecordParsed(req.Headers().Dropped(), time.Since(start))
					return req, req.BodyOffset() + len(body), nil
				}

			case request.Recoverable(err):
				s.Metrics.RecordRetry()
				s.Logger.Debug("need more data", Field{"buffered", buf.Len()})

			default:
				return request.Request{}, 0, err
			}
		}

		if readErr != nil {
			return request.Request{}, 0, readErr
		}

		if s.opts.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}

		n, err := conn.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			if buf.Len() == 0 {
				// idle connection went away between requests
				return request.Request{}, 0, io.EOF
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			if n == 0 {
				return request.Request{}, 0, err
			}
			readErr = err
		}
	}
}

// checkBodySize rejects a Content-Length above MaxBodySize or above the
// amount of body the connection is willing to buffer.
func (s *Server) checkBodySize(req *request.Request) error {
	cl, ok := req.Headers().ContentLength()
	if !ok {
		return nil
	}
	if limit := s.ceilings.MaxBodySize; limit != nil && cl > uint64(*limit) {
		return errBodyTooLarge
	}
	if cl > uint64(s.opts.MaxBufferedBody) {
		return errBodyTooLarge
	}
	return nil
}

// reject answers a request that could not be read and logs why
func (s *Server) reject(conn net.Conn, remote string, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		s.Logger.Debug("connection closed", Field{"remote", remote})
		return
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		s.Logger.Warn("connection closed mid-request", Field{"remote", remote})
		return
	}

	code := statusFor(err)
	s.Metrics.RecordRejected()
	s.Logger.Warn("request rejected",
		Field{"remote", remote},
		Field{"status", int(code)},
		Field{"error", err.Error()},
	)

	w := response.NewWriter(conn)
	if werr := w.ErrorResponse(code, response.StatusText(code)); werr != nil {
		s.Logger.Debug("error response not delivered", Field{"error", werr.Error()})
		return
	}
	lingerClose(conn)
}

// lingerClose half-closes conn and drains pending client bytes before the
// final close.
func lingerClose(conn net.Conn) {
	cw, ok := conn.(interface{ CloseWrite() error })
	if !ok || cw.CloseWrite() != nil {
		return
	}
	conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	io.Copy(io.Discard, io.LimitReader(conn, lingerLimit))
}

func statusFor(err error) response.StatusCode {
	var ne net.Error
	switch {
	case errors.Is(err, errBodyTooLarge):
		return response.StatusRequestEntityTooLarge
	case errors.As(err, &ne) && ne.Timeout():
		return response.StatusRequestTimeout
	default:
		return response.StatusFor(err)
	}
}

// handle answers a complete request by echoing what was parsed
func (s *Server) handle(w *response.Writer, req *request.Request, body []byte, remote string) {
	if s.opts.Strict {
		if err := req.Headers().Validate(); err != nil {
			s.Metrics.RecordRejected()
			s.Logger.Warn("request rejected", Field{"remote", remote}, Field{"error", err.Error()})
			w.ErrorResponse(response.StatusBadRequest, response.StatusText(response.StatusBadRequest))
			return
		}
	}

	path, query := req.Path().Split()
	s.Logger.Info("request parsed",
		Field{"remote", remote},
		Field{"method", req.Method()},
		Field{"path", path},
		Field{"headers", req.Headers().Len()},
		Field{"dropped", req.Headers().Dropped()},
		Field{"body", len(body)},
	)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n", req.Method(), path, req.Version())
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "query %s=%s\n", k, query[k])
	}
	fmt.Fprintf(&sb, "headers %d dropped %d\n", req.Headers().Len(), req.Headers().Dropped())
	fmt.Fprintf(&sb, "body %d\n", len(body))

	var extra []string
	if !keepAlive(req) {
		extra = append(extra, "Connection", "close")
	}
	if err := w.TextResponse(response.StatusOK, sb.String(), extra...); err != nil {
		s.Logger.Debug("response not delivered", Field{"error", err.Error()})
	}
}
