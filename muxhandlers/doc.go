// Package muxhandlers provides middleware and ready-made handlers for the
// mux router.
//
// # Recovery Middleware
//
// RecoveryMiddleware turns a panic in a downstream handler into an empty
// 500 Internal Server Error. LogFunc receives the request and the recovered
// value.
//
//	r.Use(muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{
//	    LogFunc: func(req *httpwire.Request, err any) {
//	        logger.Error().Interface("panic", err).Str("path", req.Path).Msg("handler panic")
//	    },
//	}))
//
// # Compression Middleware
//
// CompressionMiddleware compresses response bodies with gzip or deflate
// according to the Accept-Encoding request header. Gzip wins a tie.
//
//	mw, err := muxhandlers.CompressionMiddleware(muxhandlers.CompressionConfig{
//	    MinLength: 256,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
//
// # Files Handler
//
// FilesHandler serves GET and accepts POST uploads for files in a single
// directory. Names are taken from the request path after Prefix and must
// stay inside the directory.
//
//	h, err := muxhandlers.FilesHandler(muxhandlers.FilesConfig{
//	    Dir:    "/tmp/files",
//	    Prefix: "/files/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Handle("/files/:?", h, http.MethodGet, http.MethodPost)
package muxhandlers
