package muxhandlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vitalvas/rawhttp/httpwire"
	"github.com/vitalvas/rawhttp/mux"
)

// ErrNoAuthSource is returned when BasicAuthConfig has neither ValidateFunc
// nor Credentials configured.
var ErrNoAuthSource = errors.New("basic auth: at least one of ValidateFunc or Credentials must be set")

// BasicAuthConfig configures the Basic Auth middleware behaviour.
//
// Reference: https://www.rfc-editor.org/rfc/rfc7617
type BasicAuthConfig struct {
	// Realm is the authentication realm sent in the WWW-Authenticate header.
	// Defaults to "Restricted" when empty.
	Realm string

	// ValidateFunc is called to validate credentials dynamically.
	// Takes priority over Credentials when both are set.
	ValidateFunc func(username, password string) bool

	// Credentials is a static map of username -> password pairs.
	// Compared using SHA-256 hashed constant-time comparison.
	Credentials map[string]string
}

// BasicAuthMiddleware returns a middleware that implements HTTP Basic
// Authentication. It reads the Authorization request header and responds
// with an empty 401 Unauthorized when credentials are missing or invalid.
//
// It returns ErrNoAuthSource if both ValidateFunc and Credentials are nil/empty.
func BasicAuthMiddleware(cfg BasicAuthConfig) (mux.MiddlewareFunc, error) {
	if cfg.ValidateFunc == nil && len(cfg.Credentials) == 0 {
		return nil, ErrNoAuthSource
	}

	realm := cfg.Realm
	if realm == "" {
		realm = "Restricted"
	}

	wwwAuthenticate := fmt.Sprintf("Basic realm=%q", realm)

	validate := cfg.ValidateFunc
	credentials := cfg.Credentials

	return func(next mux.Handler) mux.Handler {
		return mux.HandlerFunc(func(req *httpwire.Request) *httpwire.Response {
			username, password, ok := parseBasicAuth(req.Header["Authorization"])
			if !ok {
				return unauthorized(wwwAuthenticate)
			}

			if validate != nil {
				if !validate(username, password) {
					return unauthorized(wwwAuthenticate)
				}
			} else {
				expectedPassword, exists := credentials[username]
				// Compare even for unknown users so timing does not reveal
				// which usernames exist.
				passwordMatch := constantTimeEqual(password, expectedPassword)
				if !exists || !passwordMatch {
					return unauthorized(wwwAuthenticate)
				}
			}

			return next.Serve(req)
		})
	}, nil
}

// parseBasicAuth parses an "Authorization: Basic <base64(user:pass)>"
// header value.
func parseBasicAuth(auth string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}

	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}

	return username, password, true
}

// constantTimeEqual compares two strings in constant time by first hashing
// them with SHA-256, so differing lengths take the same time as well.
func constantTimeEqual(a, b string) bool {
	aHash := sha256.Sum256([]byte(a))
	bHash := sha256.Sum256([]byte(b))

	return subtle.ConstantTimeCompare(aHash[:], bHash[:]) == 1
}

// unauthorized returns an empty 401 with the WWW-Authenticate header.
func unauthorized(wwwAuthenticate string) *httpwire.Response {
	return httpwire.Empty(http.StatusUnauthorized).WithHeader("WWW-Authenticate", wwwAuthenticate)
}
