package httpwire

// Common header names and content types.
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderUserAgent     = "User-Agent"

	ContentTypeText        = "text/plain"
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeJSON        = "application/json"
)

// RequestHeader holds decoded request headers. Names are case-sensitive.
type RequestHeader map[string]string

// Get returns the value for name and whether it was present.
func (h RequestHeader) Get(name string) (string, bool) {
	v, ok := h[name]
	return v, ok
}

// clone returns a copy of h that is safe to modify.
func (h RequestHeader) clone() RequestHeader {
	c := make(RequestHeader, len(h)+1)
	for k, v := range h {
		c[k] = v
	}

	return c
}

// Field is a single response header line.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered list of response header fields. Fields are written
// in insertion order.
type Header []Field

// Get returns the value of the first field named name.
func (h Header) Get(name string) (string, bool) {
	for _, f := range h {
		if f.Name == name {
			return f.Value, true
		}
	}

	return "", false
}

// Set replaces the value of the field named name in place, or appends a
// new field when none exists.
func (h *Header) Set(name, value string) {
	for i := range *h {
		if (*h)[i].Name == name {
			(*h)[i].Value = value
			return
		}
	}

	*h = append(*h, Field{Name: name, Value: value})
}

// Del removes every field named name, keeping the order of the rest.
func (h *Header) Del(name string) {
	filtered := (*h)[:0]
	for _, f := range *h {
		if f.Name != name {
			filtered = append(filtered, f)
		}
	}

	*h = filtered
}

// Len returns the number of fields.
func (h Header) Len() int {
	return len(h)
}
