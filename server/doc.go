// Package server accepts TCP connections and answers one HTTP/1.1 request
// per connection.
//
// Each accepted connection is served on its own goroutine: the server reads
// once into a fixed-size buffer, decodes the request, dispatches it to the
// handler, writes the encoded response and closes the connection. Requests
// larger than Config.ReadBufferSize are truncated.
//
//	r := mux.NewRouter()
//	r.HandleFunc("/", muxhandlers.RootHandler, http.MethodGet)
//
//	srv, err := server.New(server.DefaultConfig(), r)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, server.ErrServerClosed) {
//	    log.Fatal(err)
//	}
//
// Configuration can be loaded from YAML with LoadConfig:
//
//	addr: 0.0.0.0:4221
//	directory: /tmp/files
//	max_conns: 512
//	log_level: debug
package server
