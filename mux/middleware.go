package mux

import (
	"strings"

	"github.com/vitalvas/rawhttp/httpwire"
)

// CORSMethodMiddleware sets the Access-Control-Allow-Methods response
// header to the methods of the route that matches the request path. Routes
// without a method set are left untouched.
func CORSMethodMiddleware(r *Router) MiddlewareFunc {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *httpwire.Request) *httpwire.Response {
			res := next.Serve(req)
			if res == nil {
				return nil
			}

			if route, ok := r.Lookup(req.Path); ok {
				if methods, err := route.GetMethods(); err == nil {
					res.Header.Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
				}
			}

			return res
		})
	}
}
