package mux

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vitalvas/rawhttp/httpwire"
)

// parsePattern splits a route pattern into its literal prefix and reports
// whether it ends with WildcardMarker. The marker may appear only once, as
// the final token.
func parsePattern(pattern string) (prefix string, wildcard bool, err error) {
	if pattern == "" {
		return "", false, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	idx := strings.Index(pattern, WildcardMarker)
	if idx < 0 {
		return pattern, false, nil
	}

	if idx != len(pattern)-len(WildcardMarker) {
		return "", false, fmt.Errorf("%w: wildcard %q must be at the end of %q", ErrInvalidPattern, WildcardMarker, pattern)
	}

	return pattern[:idx], true, nil
}

// normalizeMethods upper-cases methods and drops duplicates, keeping the
// registration order.
func normalizeMethods(methods []string) []string {
	if len(methods) == 0 {
		return nil
	}

	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(m)
		if !matchInArray(out, m) {
			out = append(out, m)
		}
	}

	return out
}

// matchInArray returns true if the given string value is in the array.
func matchInArray(arr []string, value string) bool {
	for _, v := range arr {
		if v == value {
			return true
		}
	}

	return false
}

// notFound replies with an empty 404 Not Found.
func notFound(_ *httpwire.Request) *httpwire.Response {
	return httpwire.Empty(http.StatusNotFound)
}

// methodNotAllowed replies with an empty 405 Method Not Allowed.
func methodNotAllowed(_ *httpwire.Request) *httpwire.Response {
	return httpwire.Empty(http.StatusMethodNotAllowed)
}

var (
	defaultNotFoundHandler         Handler = HandlerFunc(notFound)
	defaultMethodNotAllowedHandler Handler = HandlerFunc(methodNotAllowed)
)
