// Package mux implements an ordered route table that dispatches decoded
// requests to their handlers.
//
// # Router
//
// Create a router and register handlers with the methods they accept:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/", RootHandler, http.MethodGet)
//	r.HandleFunc("/echo/:?", EchoHandler, http.MethodGet)
//	r.HandleFunc("/files/:?", FilesHandler, http.MethodGet, http.MethodPost)
//
// Calling HandleFunc without methods accepts every method.
//
// # Matching
//
// Routes are matched in registration order and the first route whose
// pattern matches the request path wins, even when a later route is an
// exact literal match:
//
//	r.HandleFunc("/te:?", a, http.MethodGet)
//	r.HandleFunc("/test", b, http.MethodGet) // never reached for /test
//
// A pattern is either a literal, matched by equality, or ends with the
// wildcard marker ":?", in which case the rest of the pattern must be a
// prefix of the request path. A marker anywhere but at the end is a
// registration error reported by Router.Err; the server refuses to start
// while it is set.
//
// Once a route matches the path, the request method is checked against that
// route only. A mismatch answers 405 even if a later route would accept the
// method.
//
// # Error Handling
//
// NotFoundHandler is used when no route matches the path and
// MethodNotAllowedHandler when the matched route rejects the method. Both
// default to an empty response with the status code and are only evaluated
// when needed:
//
//	r.NotFoundHandler = mux.HandlerFunc(func(_ *httpwire.Request) *httpwire.Response {
//	    return httpwire.Text(http.StatusNotFound, "page not found")
//	})
//
// A handler returning nil is answered with an empty 500.
//
// # Middleware
//
// Middleware wraps matched handlers only:
//
//	r.Use(muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{}))
//
// # Concurrency
//
// Every registration publishes a new immutable snapshot of the route table.
// Serve reads the current snapshot without locking, so a router may be
// shared by any number of connection goroutines once configured.
//
// # Walking Routes
//
//	r.Walk(func(route *mux.Route, _ *mux.Router) error {
//	    tpl, _ := route.GetPathTemplate()
//	    fmt.Println(tpl)
//	    return nil
//	})
package mux
