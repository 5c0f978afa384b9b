package httpwire

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformedRequest is returned when a buffer cannot be decoded into a
// Request: the bytes are not valid UTF-8 or the request line lacks a method
// or path.
var ErrMalformedRequest = errors.New("malformed request")

const (
	crlf       = "\r\n"
	headEnd    = "\r\n\r\n"
	headerSep  = ": "
	tokenSep   = " "
	nulByte    = "\x00"
	pathPrefix = "/"
)

// Request is a decoded HTTP request. It is not modified after Decode
// returns; handlers must not retain it after they return.
type Request struct {
	// Method is the request method token, e.g. "GET".
	Method string

	// Path is the request target. It always starts with "/".
	Path string

	// Proto is the third request line token, e.g. "HTTP/1.1". Empty when
	// the request line has only two tokens.
	Proto string

	// Header holds the request headers. Duplicate names keep the last value.
	Header RequestHeader

	// Body is everything after the blank line that ends the header block.
	Body []byte
}

// Decode parses a single request from data.
//
// NUL bytes are stripped first, so a partially filled fixed-size read
// buffer decodes the same as its filled prefix. Header lines without a ": "
// separator are ignored. The body is every byte after the first blank line;
// when the buffer has no blank line the body is empty. Content-Length is not
// consulted.
func Decode(data []byte) (*Request, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid utf-8", ErrMalformedRequest)
	}

	raw := strings.ReplaceAll(string(data), nulByte, "")

	head, body, _ := strings.Cut(raw, headEnd)
	lines := strings.Split(head, crlf)

	tokens := strings.Split(lines[0], tokenSep)
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: missing path in request line %q", ErrMalformedRequest, lines[0])
	}

	req := &Request{
		Method: tokens[0],
		Path:   tokens[1],
		Header: make(RequestHeader),
		Body:   []byte(body),
	}

	if req.Method == "" {
		return nil, fmt.Errorf("%w: missing method in request line %q", ErrMalformedRequest, lines[0])
	}

	if !strings.HasPrefix(req.Path, pathPrefix) {
		return nil, fmt.Errorf("%w: path %q does not start with /", ErrMalformedRequest, req.Path)
	}

	if len(tokens) > 2 {
		req.Proto = tokens[2]
	}

	for _, line := range lines[1:] {
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, headerSep)
		if !ok {
			continue
		}

		req.Header[name] = value
	}

	return req, nil
}

// WithHeader returns a copy of r with the header name set to value.
// The receiver is left untouched.
func (r *Request) WithHeader(name, value string) *Request {
	c := *r
	c.Header = r.Header.clone()
	c.Header[name] = value

	return &c
}
