package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vitalvas/rawhttp/httpwire"
	"github.com/vitalvas/rawhttp/mux"
	"golang.org/x/net/netutil"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Close.
var ErrServerClosed = errors.New("server: closed")

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server dispatches each accepted connection to a handler.
type Server struct {
	cfg     Config
	handler mux.Handler
	logger  zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
	conns    sync.WaitGroup
}

// New returns a server for cfg and h. It returns an error wrapping
// ErrInvalidConfig if cfg is invalid or h is nil.
func New(cfg Config, h mux.Handler) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if h == nil {
		return nil, fmt.Errorf("%w: handler must not be nil", ErrInvalidConfig)
	}

	return &Server{
		cfg:     cfg,
		handler: h,
		logger:  cfg.Logger,
	}, nil
}

// ListenAndServe listens on Config.Addr and serves connections until Close
// is called. If the handler reports registration errors through an
// Err() error method, ListenAndServe returns them without binding.
func (s *Server) ListenAndServe() error {
	if v, ok := s.handler.(interface{ Err() error }); ok {
		if err := v.Err(); err != nil {
			return fmt.Errorf("server: route table: %w", err)
		}
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}

	return s.Serve(ln)
}

// Serve accepts connections on ln and serves each on a new goroutine.
// Serve takes ownership of ln and always returns a non-nil error; after
// Close it returns ErrServerClosed. Accept timeouts are retried with
// backoff; any other accept error stops the loop and is returned.
func (s *Server) Serve(ln net.Listener) error {
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		ln.Close()

		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Int("max_conns", s.cfg.MaxConns).Msg("listening")

	var delay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}

			var ne net.Error
			if !errors.As(err, &ne) || !ne.Timeout() {
				return fmt.Errorf("server: accept: %w", err)
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(delay*2, maxAcceptDelay)
			}

			s.logger.Error().Err(err).Dur("retry_in", delay).Msg("accept failed")
			time.Sleep(delay)

			continue
		}

		delay = 0

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.serveConn(conn)
		}()
	}
}

// Close stops the accept loop. Connections already accepted are served to
// completion; use Wait to block until they finish.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}

	if s.listener == nil {
		return nil
	}

	return s.listener.Close()
}

// Wait blocks until every accepted connection has been closed.
func (s *Server) Wait() {
	s.conns.Wait()
}

// Addr returns the listener address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// serveConn performs one read, one dispatch and one write on conn, then
// closes it.
func (s *Server) serveConn(conn net.Conn) {
	log := s.logger.With().
		Str("conn_id", uuid.NewString()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()

	defer func() {
		if v := recover(); v != nil {
			log.Error().Interface("panic", v).Bytes("stack", debug.Stack()).Msg("connection panic")
		}

		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Debug().Err(err).Msg("close failed")
		}
	}()

	buf := make([]byte, s.cfg.ReadBufferSize)

	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			log.Error().Err(err).Msg("read failed")
		}

		return
	}

	req, err := httpwire.Decode(buf[:n])
	if err != nil {
		log.Warn().Err(err).Int("bytes", n).Msg("malformed request")

		if s.cfg.RespondBadRequest {
			s.write(log, conn, httpwire.Empty(http.StatusBadRequest))
		}

		return
	}

	log.Debug().Str("method", req.Method).Msgf("-> %s", req.Path)

	res := s.handler.Serve(req)
	if res == nil {
		res = httpwire.Empty(http.StatusInternalServerError)
	}

	s.write(log, conn, res)
}

func (s *Server) write(log zerolog.Logger, conn net.Conn, res *httpwire.Response) {
	if err := httpwire.Write(conn, res); err != nil {
		log.Error().Err(err).Int("code", res.Code).Msg("write failed")
	}
}
