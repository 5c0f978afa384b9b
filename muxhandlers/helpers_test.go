package muxhandlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vitalvas/rawhttp/httpwire"
)

func newRequest(method, path string) *httpwire.Request {
	return &httpwire.Request{
		Method: method,
		Path:   path,
		Proto:  "HTTP/1.1",
		Header: httpwire.RequestHeader{},
	}
}

func okHandler(_ *httpwire.Request) *httpwire.Response {
	return httpwire.Empty(http.StatusOK)
}

func textHandler(body string) func(*httpwire.Request) *httpwire.Response {
	return func(_ *httpwire.Request) *httpwire.Response {
		return httpwire.Text(http.StatusOK, body)
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()

	n, err := strconv.Atoi(s)
	require.NoError(t, err)

	return n
}
