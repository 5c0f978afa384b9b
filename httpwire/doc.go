// Package httpwire decodes HTTP/1.1 requests from raw byte buffers and
// encodes responses into the exact bytes written to a connection.
//
// The framing is deliberately minimal and is not RFC 9112 compliant:
//   - a request is decoded from a single buffer; there is no Content-Length
//     driven accumulation and no chunked transfer encoding
//   - header names are case-sensitive and the last duplicate wins
//   - the status line reason phrase is "OK" for 200 and a single space for
//     every other code
//
// # Decoding
//
//	req, err := httpwire.Decode(buf[:n])
//	if errors.Is(err, httpwire.ErrMalformedRequest) {
//	    // drop the connection
//	}
//
// # Encoding
//
//	res := httpwire.Text(http.StatusOK, "hello")
//	err := httpwire.Write(conn, res)
//
// Encoding "hi" with status 200 produces:
//
//	HTTP/1.1 200 OK\r\n
//	Content-Type: text/plain\r\n
//	Content-Length: 2\r\n
//	\r\n
//	hi\r\n
package httpwire
