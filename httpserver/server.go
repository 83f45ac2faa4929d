// Package httpserver is a minimal HTTP/1.1 server that routes on the request
// line only. It serves header-less content for fixed GET and POST paths and
// hands every connection to a pluggable Executor, by default a threadpool.
//
// Query strings, request headers and bodies are not inspected.
package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/threadpool"
)

const (
	// DefaultPoolSize is the number of workers of the pool Serve creates when
	// no Executor is configured.
	DefaultPoolSize = 4

	// DefaultReadTimeout bounds how long a connection may take to send its request.
	DefaultReadTimeout = 5 * time.Second

	requestBufferSize = 1024
)

// Handler produces the response for a matched route.
// An error is logged and answered with a 500 and no content.
type Handler func() (Response, error)

// Server routes requests to handlers registered with Handle.
// Handle may be called concurrently with Serve.
type Server struct {
	mu      sync.RWMutex
	handles map[string]Handler

	logger      *slog.Logger
	executor    Executor
	readTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the server logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "logger must not be nil"))
		}
		s.logger = l
		return nil
	}
}

// WithExecutor sets how connections are handled. Without it Serve runs its own
// pool of DefaultPoolSize workers and shuts it down on return.
func WithExecutor(e Executor) Option {
	return func(s *Server) error {
		if e == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "executor must not be nil"))
		}
		s.executor = e
		return nil
	}
}

// WithReadTimeout bounds the wait for a request after a connection is accepted.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "read timeout must be > 0"))
		}
		s.readTimeout = d
		return nil
	}
}

// New creates a Server with no routes.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		handles:     make(map[string]Handler),
		logger:      slog.Default(),
		readTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handle registers h for requests whose request line is exactly
// "<method> <path> HTTP/1.1". An empty path means "/". Registering the same
// method and path again replaces the previous handler.
// Paths are not validated, and a request carrying a query string does not match.
func (s *Server) Handle(method Method, path string, h Handler) error {
	if !method.valid() {
		return errorc.With(ErrInvalidMethod, errorc.String("method", strconv.Itoa(int(method))))
	}
	if h == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", "handler must not be nil"))
	}

	s.mu.Lock()
	s.handles[routeKey(method, path)] = h
	s.mu.Unlock()
	return nil
}

func routeKey(method Method, path string) string {
	if path == "" {
		path = "/"
	}
	return method.String() + " " + path + " HTTP/1.1\r\n"
}

// Serve accepts connections from ln until ctx is done, then closes ln and
// returns nil. Every connection is passed to the executor. A connection the
// executor rejects is logged and closed, and Serve keeps accepting.
//
// Serve does not wait for handlers that are still running when it returns,
// except for the pool it creates itself when no Executor is configured.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	exec := s.executor
	if exec == nil {
		pool, err := threadpool.New(DefaultPoolSize,
			threadpool.WithLogger(s.logger),
			threadpool.WithName("httpserver"),
		)
		if err != nil {
			return err
		}
		defer pool.Shutdown()
		exec = PoolExecutor(pool)
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.logger.Info("http server listening", slog.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Debug("http server stopped listening")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept timed out", slog.Any("error", err))
				continue
			}
			_ = ln.Close()
			return fmt.Errorf("%w: %w", ErrListenerFailed, err)
		}

		if err := exec.Execute(func() { s.serveConn(conn) }); err != nil {
			s.logger.Error("failed to dispatch connection",
				slog.String("remote", conn.RemoteAddr().String()),
				slog.Any("error", err),
			)
			_ = conn.Close()
		}
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		s.logger.Error("failed to handle connection", slog.Any("error", err))
		return
	}
	if err := s.handleConnection(conn); err != nil {
		s.logger.Error("failed to handle connection", slog.Any("error", err))
	}
}

// handleConnection reads one request from rw and writes one response.
func (s *Server) handleConnection(rw io.ReadWriter) error {
	buf := make([]byte, requestBufferSize)
	n, err := rw.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return ErrEmptyRequest
	}
	buf = buf[:n]

	resp, herr := s.respond(buf)
	if _, err := io.WriteString(rw, resp.String()); err != nil {
		return errors.Join(herr, err)
	}
	return herr
}

func (s *Server) respond(req []byte) (Response, error) {
	line := req
	if i := bytes.Index(req, []byte("\r\n")); i >= 0 {
		line = req[:i+2]
	}

	s.mu.RLock()
	h, ok := s.handles[string(line)]
	s.mu.RUnlock()

	if !ok {
		s.logger.Debug("404 response for request", slog.String("request", string(bytes.TrimRight(line, "\r\n"))))
		return NotFound(), nil
	}

	s.logger.Debug("request matched", slog.String("request", string(bytes.TrimRight(line, "\r\n"))))
	resp, err := h()
	if err != nil {
		return NewResponse(500), fmt.Errorf("%w: %w", ErrHandlerFailed, err)
	}
	return resp, nil
}
