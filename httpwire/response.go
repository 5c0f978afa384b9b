package httpwire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

// Response is the result of a handler. A nil Body means the response has
// no body; a non-nil empty Body is written with Content-Length: 0.
type Response struct {
	Code   int
	Body   []byte
	Header Header
}

// Empty returns a response with no body and no headers.
func Empty(code int) *Response {
	return &Response{Code: code}
}

// Bytes returns a response carrying b with the given content type.
func Bytes(code int, contentType string, b []byte) *Response {
	if b == nil {
		b = []byte{}
	}

	res := &Response{Code: code, Body: b}
	res.Header.Set(HeaderContentType, contentType)
	res.Header.Set(HeaderContentLength, strconv.Itoa(len(b)))

	return res
}

// Text returns a text/plain response with body s.
func Text(code int, s string) *Response {
	return Bytes(code, ContentTypeText, []byte(s))
}

// File returns an application/octet-stream response carrying b.
func File(code int, b []byte) *Response {
	return Bytes(code, ContentTypeOctetStream, b)
}

// JSON encodes v as JSON and returns an application/json response.
// If encoding fails, an empty 500 Internal Server Error is returned instead.
func JSON(code int, v any) *Response {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return Empty(http.StatusInternalServerError)
	}

	return Bytes(code, ContentTypeJSON, bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// WithHeader sets a header on r and returns r for chaining.
func (r *Response) WithHeader(name, value string) *Response {
	r.Header.Set(name, value)
	return r
}

// HasBody reports whether the response carries a body.
func (r *Response) HasBody() bool {
	return r.Body != nil
}
