package mux

import (
	"errors"

	"github.com/vitalvas/rawhttp/httpwire"
)

// Handler responds to a decoded request. Implementations must not retain
// the request after Serve returns.
type Handler interface {
	Serve(req *httpwire.Request) *httpwire.Response
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(req *httpwire.Request) *httpwire.Response

// Serve calls f(req).
func (f HandlerFunc) Serve(req *httpwire.Request) *httpwire.Response {
	return f(req)
}

// RouteMatch stores information about a matched route.
type RouteMatch struct {
	// Route is the route whose pattern matched the path, if any.
	Route *Route

	// Handler is the middleware-wrapped handler of the matched route.
	Handler Handler

	// MatchErr is ErrMethodMismatch when the path matched but the method
	// did not, and ErrNotFound when no route matched the path.
	MatchErr error
}

// MiddlewareFunc receives a Handler and returns another Handler. It can be
// used to wrap handlers with additional behavior such as logging or panic
// recovery.
type MiddlewareFunc func(Handler) Handler

// Middleware allows MiddlewareFunc to implement the Middleware interface.
func (mw MiddlewareFunc) Middleware(handler Handler) Handler {
	return mw(handler)
}

// WalkFunc is the type of the function called for each route visited by
// Walk.
type WalkFunc func(route *Route, router *Router) error

// ErrMethodMismatch is recorded when the request method is not accepted by
// the route matching the path. Answered with 405 Method Not Allowed.
var ErrMethodMismatch = errors.New("method is not allowed")

// ErrNotFound is recorded when no route matches the path. Answered with
// 404 Not Found.
var ErrNotFound = errors.New("no matching route was found")

// ErrInvalidPattern is recorded on a route whose pattern cannot be
// registered.
var ErrInvalidPattern = errors.New("invalid route pattern")

// SkipRoutes is returned from a WalkFunc to stop walking without error.
var SkipRoutes = errors.New("skip remaining routes") //nolint:revive,staticcheck // sentinel, not an error condition
