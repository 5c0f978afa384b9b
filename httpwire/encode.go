package httpwire

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

const (
	statusProto = "HTTP/1.1"
	reasonOK    = "OK"
	// reasonOther is written for every code but 200. Clients of this server
	// match on it, so it is not replaced by the registered reason phrase.
	reasonOther = " "
)

// reason returns the status line reason for code.
func reason(code int) string {
	if code == http.StatusOK {
		return reasonOK
	}

	return reasonOther
}

// Encode returns the wire bytes for res.
//
// When res has a body, Content-Type defaults to text/plain and
// Content-Length is set to the exact body length. The header block is
// followed by a blank line only when at least one header is present, and
// the message always ends with CRLF.
func Encode(res *Response) []byte {
	header := make(Header, len(res.Header))
	copy(header, res.Header)

	if res.HasBody() {
		if _, ok := header.Get(HeaderContentType); !ok {
			header.Set(HeaderContentType, ContentTypeText)
		}

		header.Set(HeaderContentLength, strconv.Itoa(len(res.Body)))
	}

	var buf bytes.Buffer
	buf.Grow(64 + len(res.Body))

	buf.WriteString(statusProto)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(res.Code))
	buf.WriteByte(' ')
	buf.WriteString(reason(res.Code))
	buf.WriteString(crlf)

	for _, f := range header {
		buf.WriteString(f.Name)
		buf.WriteString(headerSep)
		buf.WriteString(f.Value)
		buf.WriteString(crlf)
	}

	if len(header) > 0 {
		buf.WriteString(crlf)
	}

	buf.Write(res.Body)
	buf.WriteString(crlf)

	return buf.Bytes()
}

// Write encodes res and writes it to w in a single call. A short write is
// reported as io.ErrShortWrite.
func Write(w io.Writer, res *Response) error {
	b := Encode(res)

	n, err := w.Write(b)
	if err != nil {
		return err
	}

	if n != len(b) {
		return io.ErrShortWrite
	}

	return nil
}
