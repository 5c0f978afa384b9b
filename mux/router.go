package mux

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/vitalvas/rawhttp/httpwire"
)

// Router registers routes to be matched and dispatches a handler.
//
// It implements the Handler interface, so it can be passed to the server:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/", handler, http.MethodGet)
//	srv, err := server.New(server.DefaultConfig(), r)
type Router struct {
	// NotFoundHandler is called when no route matches the path.
	// If nil, an empty 404 response is used.
	NotFoundHandler Handler

	// MethodNotAllowedHandler is called when a route matches the path but
	// not the method. If nil, an empty 405 response is used.
	MethodNotAllowedHandler Handler

	// mu serializes registration; request-time reads go through table.
	mu          sync.Mutex
	routes      []*Route
	middlewares []MiddlewareFunc

	table atomic.Pointer[routeTable]
}

// routeTable is an immutable snapshot of the registered routes with their
// middleware-wrapped handlers, index-aligned with routes.
type routeTable struct {
	routes   []*Route
	handlers []Handler
}

// NewRouter returns a new router instance.
func NewRouter() *Router {
	r := &Router{}
	r.table.Store(&routeTable{})

	return r
}

// Serve dispatches the request to the handler of the matched route, or to
// the not found or method not allowed handler.
func (r *Router) Serve(req *httpwire.Request) *httpwire.Response {
	var match RouteMatch
	var handler Handler

	if r.Match(req, &match) {
		handler = match.Handler
		if handler == nil {
			handler = defaultNotFoundHandler
		}
	} else if errors.Is(match.MatchErr, ErrMethodMismatch) {
		handler = r.MethodNotAllowedHandler
		if handler == nil {
			handler = defaultMethodNotAllowedHandler
		}
	} else {
		handler = r.NotFoundHandler
		if handler == nil {
			handler = defaultNotFoundHandler
		}
	}

	res := handler.Serve(req)
	if res == nil {
		return httpwire.Empty(http.StatusInternalServerError)
	}

	return res
}

// Match binds the request to the first registered route whose pattern
// matches its path. If that route rejects the method, Match returns false
// with match.MatchErr set to ErrMethodMismatch; later routes are not
// consulted. Otherwise match.MatchErr is ErrNotFound on failure.
func (r *Router) Match(req *httpwire.Request, match *RouteMatch) bool {
	t := r.table.Load()

	for i, route := range t.routes {
		if !route.matchPath(req.Path) {
			continue
		}

		if !route.Match(req, match) {
			return false
		}

		match.Handler = t.handlers[i]

		return true
	}

	match.MatchErr = ErrNotFound

	return false
}

// Lookup returns the first route whose pattern matches path, ignoring
// methods.
func (r *Router) Lookup(path string) (*Route, bool) {
	for _, route := range r.table.Load().routes {
		if route.matchPath(path) {
			return route, true
		}
	}

	return nil, false
}

// --- Registration ---

// Handle registers a route for pattern accepting the given methods. With no
// methods every method is accepted.
func (r *Router) Handle(pattern string, handler Handler, methods ...string) *Route {
	route := newRoute(pattern, handler, methods)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes = append(r.routes, route)
	r.publishLocked()

	return route
}

// HandleFunc registers a route for pattern with a handler function.
func (r *Router) HandleFunc(pattern string, f func(*httpwire.Request) *httpwire.Response, methods ...string) *Route {
	return r.Handle(pattern, HandlerFunc(f), methods...)
}

// Use appends a MiddlewareFunc to the chain. Middleware is applied to
// matched handlers only, in the order added.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middlewares = append(r.middlewares, mwf...)
	r.publishLocked()
}

// publishLocked builds and stores a new routeTable. r.mu must be held.
func (r *Router) publishLocked() {
	t := &routeTable{
		routes:   make([]*Route, len(r.routes)),
		handlers: make([]Handler, len(r.routes)),
	}

	copy(t.routes, r.routes)

	for i, route := range t.routes {
		if route.handler != nil {
			t.handlers[i] = r.applyMiddleware(route.handler)
		}
	}

	r.table.Store(t)
}

// applyMiddleware wraps the handler with all registered middleware.
func (r *Router) applyMiddleware(handler Handler) Handler {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i].Middleware(handler)
	}

	return handler
}

// --- Inspection ---

// Err returns the registration errors of all routes joined together, or
// nil when every route is valid.
func (r *Router) Err() error {
	var errs []error

	for _, route := range r.table.Load().routes {
		if route.err != nil {
			errs = append(errs, route.err)
		}
	}

	return errors.Join(errs...)
}

// Get returns the first route registered with the given name.
func (r *Router) Get(name string) *Route {
	if name == "" {
		return nil
	}

	for _, route := range r.table.Load().routes {
		if route.name == name {
			return route
		}
	}

	return nil
}

// Walk calls walkFn for each route in registration order. Returning
// SkipRoutes stops the walk without error.
func (r *Router) Walk(walkFn WalkFunc) error {
	for _, route := range r.table.Load().routes {
		err := walkFn(route, r)
		if err == SkipRoutes {
			return nil
		}

		if err != nil {
			return err
		}
	}

	return nil
}
