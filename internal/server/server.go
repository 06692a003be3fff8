package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Brownie44l1/httpscan/internal/config"
	"github.com/Brownie44l1/httpscan/internal/request"
)

// ErrServerClosed is returned by Serve after Close or Shutdown
var ErrServerClosed = errors.New("server closed")

// Options controls the connection layer. Parser ceilings come from the
// config.Provider handed to New.
type Options struct {
	// ReadTimeout bounds each read from a connection; zero disables it
	ReadTimeout time.Duration

	// HeaderCapacity is the number of header lines stored per request
	HeaderCapacity int

	// ReadBufferSize is the size of a single read from the socket
	ReadBufferSize int

	// MaxBufferedBody caps the Content-Length of a body; bodies are held
	// in memory until the request is answered
	MaxBufferedBody int64

	// Strict rejects requests whose header keys or values fail
	// token/field-value validation
	Strict bool
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		ReadTimeout:     30 * time.Second,
		HeaderCapacity:  request.DefaultHeaderCapacity,
		ReadBufferSize:  4096,
		MaxBufferedBody: 1 << 20,
	}
}

type Server struct {
	Logger  Logger
	Metrics *Metrics

	opts     Options
	ceilings config.Config

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	closed   atomic.Bool
}

// New creates a server. The provider is read once, here, so any setup-time
// store is frozen before the first connection is parsed.
func New(provider config.Provider, opts Options) *Server {
	if opts.HeaderCapacity < 0 {
		opts.HeaderCapacity = 0
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultOptions().ReadBufferSize
	}
	if opts.MaxBufferedBody <= 0 {
		opts.MaxBufferedBody = DefaultOptions().MaxBufferedBody
	}

	return &Server{
		Logger:   NewDefaultLogger(),
		Metrics:  NewMetrics(),
		opts:     opts,
		ceilings: provider.Ceilings(),
		conns:    make(map[net.Conn]struct{}),
	}
}

// ListenAndServe listens on addr and serves until closed
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on l until the server is closed
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	s.Logger.Info("listening", Field{"addr", l.Addr().String()})

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.Logger.Error("accept failed", Field{"error", err.Error()})
			continue
		}

		if !s.trackConn(conn, true) {
			conn.Close()
			return ErrServerClosed
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// Addr returns the listener address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the listener and closes every open connection
func (s *Server) Close() error {
	err := s.closeListener()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Shutdown stops accepting and waits for open connections to finish.
// When ctx ends first the remaining connections are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.closeListener()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		s.Close()
		return ctx.Err()
	}
}

func (s *Server) closeListener() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Swap(true) || s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) trackConn(conn net.Conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		if s.closed.Load() {
			return false
		}
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
	return true
}
