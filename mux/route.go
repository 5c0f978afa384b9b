package mux

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vitalvas/rawhttp/httpwire"
)

// WildcardMarker turns a pattern into a prefix match when it is the final
// token of the pattern.
const WildcardMarker = ":?"

// Route binds a path pattern and a method set to a handler. A route does
// not change after it is registered.
type Route struct {
	handler  Handler
	pattern  string
	prefix   string
	wildcard bool
	methods  []string
	name     string
	err      error
}

// newRoute parses pattern and normalizes methods. A parse failure is kept
// on the route and reported through GetError and Router.Err.
func newRoute(pattern string, handler Handler, methods []string) *Route {
	r := &Route{
		handler: handler,
		pattern: pattern,
		methods: normalizeMethods(methods),
	}

	r.prefix, r.wildcard, r.err = parsePattern(pattern)

	return r
}

// Match matches this route against the request. It returns false with
// match.MatchErr set to ErrMethodMismatch when the path matches but the
// method does not.
func (r *Route) Match(req *httpwire.Request, match *RouteMatch) bool {
	if !r.matchPath(req.Path) {
		return false
	}

	if !r.matchMethod(req.Method) {
		match.MatchErr = ErrMethodMismatch
		return false
	}

	match.Route = r
	match.Handler = r.handler

	return true
}

// matchPath reports whether path is accepted by the route pattern. Routes
// that failed to register never match.
func (r *Route) matchPath(path string) bool {
	if r.err != nil {
		return false
	}

	if r.wildcard {
		return strings.HasPrefix(path, r.prefix)
	}

	return path == r.pattern
}

// matchMethod reports whether method is in the route's method set. An
// empty set accepts every method.
func (r *Route) matchMethod(method string) bool {
	if len(r.methods) == 0 {
		return true
	}

	return matchInArray(r.methods, method)
}

// Name sets the name for the route, used to look it up with Router.Get.
// Names are assigned while the router is being configured.
func (r *Route) Name(name string) *Route {
	if r.name != "" {
		r.err = errors.Join(r.err, fmt.Errorf("mux: route already has name %q, can't set %q", r.name, name))
		return r
	}

	r.name = name

	return r
}

// GetName returns the name for the route, if any.
func (r *Route) GetName() string {
	return r.name
}

// GetHandler returns the handler for the route, if any.
func (r *Route) GetHandler() Handler {
	return r.handler
}

// GetPathTemplate returns the pattern the route was registered with.
func (r *Route) GetPathTemplate() (string, error) {
	if r.err != nil {
		return "", r.err
	}

	return r.pattern, nil
}

// GetPathPrefix returns the literal prefix of a wildcard route.
func (r *Route) GetPathPrefix() (string, error) {
	if r.err != nil {
		return "", r.err
	}

	if !r.wildcard {
		return "", errors.New("mux: route is not a wildcard route")
	}

	return r.prefix, nil
}

// IsWildcard reports whether the route matches by prefix.
func (r *Route) IsWildcard() bool {
	return r.wildcard
}

// GetMethods returns the methods the route accepts.
func (r *Route) GetMethods() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}

	if len(r.methods) == 0 {
		return nil, errors.New("mux: route doesn't have methods")
	}

	return append([]string(nil), r.methods...), nil
}

// GetError returns any error that was set on the route.
func (r *Route) GetError() error {
	return r.err
}
