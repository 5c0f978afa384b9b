package server

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/rawhttp/httpwire"
	"github.com/vitalvas/rawhttp/mux"
	"github.com/vitalvas/rawhttp/muxhandlers"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newTestRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", muxhandlers.RootHandler, http.MethodGet)
	r.Handle("/echo/:?", muxhandlers.EchoHandler("/echo/"), http.MethodGet)
	r.HandleFunc("/user-agent", muxhandlers.UserAgentHandler, http.MethodGet)

	return r
}

func newTestServer(t *testing.T, cfg Config, h mux.Handler) *Server {
	t.Helper()

	s, err := New(cfg, h)
	require.NoError(t, err)

	return s
}

// pipeRoundTrip serves raw over an in-memory connection and returns
// everything written back before the server closed it.
func pipeRoundTrip(t *testing.T, s *Server, raw string) string {
	t.Helper()

	client, conn := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		s.serveConn(conn)
		close(done)
	}()

	_, err := client.Write([]byte(raw))
	require.NoError(t, err)

	out, err := io.ReadAll(client)
	require.NoError(t, err)

	<-done

	return string(out)
}

// startServer serves on a loopback listener and stops it when the test ends.
func startServer(t *testing.T, cfg Config, h mux.Handler) *Server {
	t.Helper()

	s := newTestServer(t, cfg, h)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, time.Millisecond)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
		assert.ErrorIs(t, <-errCh, ErrServerClosed)
		s.Wait()
	})

	return s
}

func dialRoundTrip(t *testing.T, addr net.Addr, raw string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)

	out, err := io.ReadAll(conn)
	require.NoError(t, err)

	return string(out)
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s, err := New(DefaultConfig(), newTestRouter())
		require.NoError(t, err)
		assert.Nil(t, s.Addr())
	})

	t.Run("nil handler", func(t *testing.T) {
		_, err := New(DefaultConfig(), nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ReadBufferSize = 0

		_, err := New(cfg, newTestRouter())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestServeConn(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), newTestRouter())

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "root",
			raw:  "GET / HTTP/1.1\r\nHost: x\r\n\r\n",
			want: "HTTP/1.1 200 OK\r\n\r\n",
		},
		{
			name: "echo",
			raw:  "GET /echo/hello HTTP/1.1\r\n\r\n",
			want: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello\r\n",
		},
		{
			name: "user agent",
			raw:  "GET /user-agent HTTP/1.1\r\nUser-Agent: curl/8.0\r\n\r\n",
			want: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 8\r\n\r\ncurl/8.0\r\n",
		},
		{
			name: "not found",
			raw:  "GET /missing HTTP/1.1\r\n\r\n",
			want: "HTTP/1.1 404  \r\n\r\n",
		},
		{
			name: "method not allowed",
			raw:  "DELETE / HTTP/1.1\r\n\r\n",
			want: "HTTP/1.1 405  \r\n\r\n",
		},
		{
			name: "malformed request closes silently",
			raw:  "GARBAGE\r\n\r\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeRoundTrip(t, s, tt.raw))
		})
	}
}

func TestServeConnBadRequest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RespondBadRequest = true

	s := newTestServer(t, cfg, newTestRouter())

	assert.Equal(t, "HTTP/1.1 400  \r\n\r\n", pipeRoundTrip(t, s, "GARBAGE\r\n\r\n"))
}

func TestServeConnEmptyRead(t *testing.T) {
	var called bool

	s := newTestServer(t, DefaultConfig(), mux.HandlerFunc(func(_ *httpwire.Request) *httpwire.Response {
		called = true
		return httpwire.Empty(http.StatusOK)
	}))

	client, conn := net.Pipe()
	require.NoError(t, client.Close())

	s.serveConn(conn)

	assert.False(t, called)
}

func TestServeConnNilResponse(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), mux.HandlerFunc(func(_ *httpwire.Request) *httpwire.Response {
		return nil
	}))

	assert.Equal(t, "HTTP/1.1 500  \r\n\r\n", pipeRoundTrip(t, s, "GET / HTTP/1.1\r\n\r\n"))
}

func TestServeConnPanic(t *testing.T) {
	var logs syncBuffer

	cfg := DefaultConfig()
	cfg.Logger = zerolog.New(&logs)

	s := newTestServer(t, cfg, mux.HandlerFunc(func(_ *httpwire.Request) *httpwire.Response {
		panic("boom")
	}))

	assert.Equal(t, "", pipeRoundTrip(t, s, "GET / HTTP/1.1\r\n\r\n"))
	assert.Contains(t, logs.String(), "connection panic")
	assert.Contains(t, logs.String(), "boom")
}

func TestServeConnBody(t *testing.T) {
	var got *httpwire.Request

	s := newTestServer(t, DefaultConfig(), mux.HandlerFunc(func(req *httpwire.Request) *httpwire.Response {
		got = req
		return httpwire.Empty(http.StatusCreated)
	}))

	out := pipeRoundTrip(t, s, "POST /files/x HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc")

	assert.Equal(t, "HTTP/1.1 201  \r\n\r\n", out)
	require.NotNil(t, got)
	assert.Equal(t, "POST", got.Method)
	assert.Equal(t, "/files/x", got.Path)
	assert.Equal(t, "abc", string(got.Body))
}

func TestServeConnLogging(t *testing.T) {
	var logs syncBuffer

	cfg := DefaultConfig()
	cfg.Logger = zerolog.New(&logs).Level(zerolog.DebugLevel)

	s := newTestServer(t, cfg, newTestRouter())

	pipeRoundTrip(t, s, "GET /echo/abc HTTP/1.1\r\n\r\n")
	pipeRoundTrip(t, s, "GARBAGE")

	out := logs.String()
	assert.Contains(t, out, `"conn_id"`)
	assert.Contains(t, out, `"remote":"pipe"`)
	assert.Contains(t, out, "-> /echo/abc")
	assert.Contains(t, out, "malformed request")
	assert.Contains(t, out, `"level":"warn"`)
}

func TestServe(t *testing.T) {
	s := startServer(t, DefaultConfig(), newTestRouter())

	out := dialRoundTrip(t, s.Addr(), "GET /echo/tcp HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 3\r\n\r\ntcp\r\n", out)
}

func TestServeConnTruncatesLargeRequests(t *testing.T) {
	var got *httpwire.Request

	cfg := DefaultConfig()
	cfg.ReadBufferSize = 64

	s := newTestServer(t, cfg, mux.HandlerFunc(func(req *httpwire.Request) *httpwire.Response {
		got = req
		return httpwire.Empty(http.StatusOK)
	}))

	head := "POST /x HTTP/1.1\r\n\r\n"
	body := strings.Repeat("a", 200)

	client, conn := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		s.serveConn(conn)
		close(done)
	}()

	// The unread tail keeps this write blocked until the server closes.
	go client.Write([]byte(head + body))

	out, err := io.ReadAll(client)
	require.NoError(t, err)

	<-done

	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", string(out))
	require.NotNil(t, got)
	assert.Len(t, got.Body, 64-len(head))
}

func TestServeConcurrentConnections(t *testing.T) {
	s := startServer(t, DefaultConfig(), newTestRouter())

	idle, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer idle.Close()

	var wg sync.WaitGroup
	results := make([]string, 8)

	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conn, err := net.Dial("tcp", s.Addr().String())
			if err != nil {
				return
			}
			defer conn.Close()

			conn.SetDeadline(time.Now().Add(5 * time.Second))
			if _, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
				return
			}

			out, _ := io.ReadAll(conn)
			results[i] = string(out)
		}()
	}

	wg.Wait()

	for _, out := range results {
		assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", out)
	}
}

func TestServeMaxConns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConns = 1

	s := startServer(t, cfg, newTestRouter())

	first, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)

	second, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	_, err = second.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	require.NoError(t, second.SetReadDeadline(time.Now().Add(200*time.Millisecond)))

	_, err = second.Read(make([]byte, 1))
	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())

	require.NoError(t, first.Close())
	require.NoError(t, second.SetReadDeadline(time.Now().Add(5*time.Second)))

	out, err := io.ReadAll(second)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", string(out))
}

func TestListenAndServe(t *testing.T) {
	t.Run("invalid routes fail before binding", func(t *testing.T) {
		r := newTestRouter()
		r.HandleFunc("/a:?/b", muxhandlers.RootHandler)

		cfg := DefaultConfig()
		cfg.Addr = "127.0.0.1:0"

		s := newTestServer(t, cfg, r)

		err := s.ListenAndServe()
		assert.ErrorIs(t, err, mux.ErrInvalidPattern)
		assert.Nil(t, s.Addr())
	})

	t.Run("listen error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Addr = "127.0.0.1:-1"

		s := newTestServer(t, cfg, newTestRouter())

		assert.Error(t, s.ListenAndServe())
	})

	t.Run("close stops serving", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Addr = "127.0.0.1:0"

		s := newTestServer(t, cfg, newTestRouter())

		errCh := make(chan error, 1)
		go func() {
			errCh <- s.ListenAndServe()
		}()

		require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, time.Millisecond)

		out := dialRoundTrip(t, s.Addr(), "GET / HTTP/1.1\r\n\r\n")
		assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", out)

		require.NoError(t, s.Close())
		assert.ErrorIs(t, <-errCh, ErrServerClosed)
		assert.NoError(t, s.Close())
	})
}

// timeoutError is a transient accept failure.
type timeoutError struct{}

func (timeoutError) Error() string   { return "accept timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// scriptedListener returns the queued errors from Accept in order, then
// net.ErrClosed.
type scriptedListener struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (l *scriptedListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if len(l.errs) == 0 {
		return nil, net.ErrClosed
	}

	err := l.errs[0]
	l.errs = l.errs[1:]

	return nil, err
}

func (l *scriptedListener) Close() error { return nil }

func (l *scriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestServeAcceptErrors(t *testing.T) {
	t.Run("listener closed by its owner", func(t *testing.T) {
		s := newTestServer(t, DefaultConfig(), newTestRouter())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Serve(ln)
		}()

		require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, time.Millisecond)
		require.NoError(t, ln.Close())

		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, net.ErrClosed)
			assert.NotErrorIs(t, err, ErrServerClosed)
		case <-time.After(5 * time.Second):
			t.Fatal("Serve did not return after the listener was closed")
		}
	})

	t.Run("timeouts are retried", func(t *testing.T) {
		var logs syncBuffer

		cfg := DefaultConfig()
		cfg.Logger = zerolog.New(&logs)

		s := newTestServer(t, cfg, newTestRouter())
		ln := &scriptedListener{errs: []error{timeoutError{}, timeoutError{}}}

		err := s.Serve(ln)

		assert.ErrorIs(t, err, net.ErrClosed)
		assert.Equal(t, 3, ln.calls)
		assert.Equal(t, 2, strings.Count(logs.String(), "accept failed"))
	})

	t.Run("permanent error is returned", func(t *testing.T) {
		permanent := errors.New("too many open files")

		s := newTestServer(t, DefaultConfig(), newTestRouter())
		ln := &scriptedListener{errs: []error{permanent}}

		err := s.Serve(ln)

		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, ln.calls)
	})
}

func TestServeAfterClose(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), newTestRouter())
	require.NoError(t, s.Close())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Serve(ln), ErrServerClosed)
}

func BenchmarkServeConn(b *testing.B) {
	s, err := New(DefaultConfig(), newTestRouter())
	if err != nil {
		b.Fatal(err)
	}

	raw := []byte("GET /echo/bench HTTP/1.1\r\nUser-Agent: bench\r\n\r\n")

	b.ResetTimer()
	for b.Loop() {
		client, conn := net.Pipe()

		go s.serveConn(conn)

		client.Write(raw)
		io.Copy(io.Discard, client)
		client.Close()
	}
}
