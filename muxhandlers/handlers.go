package muxhandlers

import (
	"net/http"
	"strings"

	"github.com/vitalvas/rawhttp/httpwire"
	"github.com/vitalvas/rawhttp/mux"
)

// RootHandler answers with an empty 200 OK.
func RootHandler(_ *httpwire.Request) *httpwire.Response {
	return httpwire.Empty(http.StatusOK)
}

// EchoHandler returns a handler that answers with the request path, minus
// prefix, as a text/plain 200 OK.
//
//	r.Handle("/echo/:?", muxhandlers.EchoHandler("/echo/"), http.MethodGet)
func EchoHandler(prefix string) mux.Handler {
	return mux.HandlerFunc(func(req *httpwire.Request) *httpwire.Response {
		return httpwire.Text(http.StatusOK, strings.TrimPrefix(req.Path, prefix))
	})
}

// UserAgentHandler answers with the User-Agent request header as a
// text/plain 200 OK, or an empty 400 Bad Request when the header is missing.
func UserAgentHandler(req *httpwire.Request) *httpwire.Response {
	ua, ok := req.Header.Get(httpwire.HeaderUserAgent)
	if !ok {
		return httpwire.Empty(http.StatusBadRequest)
	}

	return httpwire.Text(http.StatusOK, ua)
}
