package muxhandlers

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/vitalvas/rawhttp/httpwire"
	"github.com/vitalvas/rawhttp/mux"
)

// ErrUnsupportedDigest is returned when ContentDigestConfig.Algorithm is not
// a supported digest algorithm.
var ErrUnsupportedDigest = errors.New("content digest: unsupported algorithm")

const headerContentDigest = "Content-Digest"

// DigestAlgorithm identifies the hash algorithm for Content-Digest.
type DigestAlgorithm string

const (
	DigestSHA256 DigestAlgorithm = "sha-256"
	DigestSHA512 DigestAlgorithm = "sha-512"
)

// ContentDigestConfig configures the Content Digest middleware behaviour.
type ContentDigestConfig struct {
	// Algorithm is used for response digests. Defaults to DigestSHA256.
	Algorithm DigestAlgorithm

	// VerifyRequest rejects requests whose Content-Digest header does not
	// match the body with an empty 400 Bad Request. Requests without the
	// header are passed through.
	VerifyRequest bool
}

// ContentDigestMiddleware returns a middleware that sets the Content-Digest
// header on every response with a body and optionally verifies the header
// on requests.
//
// Reference: https://www.rfc-editor.org/rfc/rfc9530
//
// The digest covers the body as sent, so register it before
// CompressionMiddleware to digest the compressed bytes.
//
// It returns ErrUnsupportedDigest if Algorithm is not supported.
func ContentDigestMiddleware(cfg ContentDigestConfig) (mux.MiddlewareFunc, error) {
	alg := cfg.Algorithm
	if alg == "" {
		alg = DigestSHA256
	}

	if _, ok := computeDigest(nil, alg); !ok {
		return nil, ErrUnsupportedDigest
	}

	verify := cfg.VerifyRequest

	return func(next mux.Handler) mux.Handler {
		return mux.HandlerFunc(func(req *httpwire.Request) *httpwire.Response {
			if verify {
				if header, ok := req.Header[headerContentDigest]; ok && !verifyContentDigest(header, req.Body) {
					return httpwire.Empty(http.StatusBadRequest)
				}
			}

			res := next.Serve(req)
			if res == nil || !res.HasBody() {
				return res
			}

			sum, _ := computeDigest(res.Body, alg)
			res.Header.Set(headerContentDigest, formatDigest(alg, sum))

			return res
		})
	}, nil
}

func formatDigest(alg DigestAlgorithm, sum []byte) string {
	return string(alg) + "=:" + base64.StdEncoding.EncodeToString(sum) + ":"
}

// verifyContentDigest checks the first entry of header with a supported
// algorithm against body. A header without such an entry fails.
func verifyContentDigest(header string, body []byte) bool {
	for entry := range strings.SplitSeq(header, ",") {
		alg, encoded, ok := parseDigestEntry(strings.TrimSpace(entry))
		if !ok {
			continue
		}

		actual, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return false
		}

		expected, _ := computeDigest(body, alg)

		return bytes.Equal(expected, actual)
	}

	return false
}

// parseDigestEntry parses a single "alg=:base64:" entry.
func parseDigestEntry(entry string) (DigestAlgorithm, string, bool) {
	algStr, value, ok := strings.Cut(entry, "=")
	if !ok {
		return "", "", false
	}

	alg := DigestAlgorithm(strings.ToLower(strings.TrimSpace(algStr)))
	value = strings.TrimSpace(value)

	if len(value) < 2 || value[0] != ':' || value[len(value)-1] != ':' {
		return "", "", false
	}

	if _, ok := computeDigest(nil, alg); !ok {
		return "", "", false
	}

	return alg, value[1 : len(value)-1], true
}

func computeDigest(data []byte, alg DigestAlgorithm) ([]byte, bool) {
	switch alg {
	case DigestSHA256:
		h := sha256.Sum256(data)
		return h[:], true
	case DigestSHA512:
		h := sha512.Sum512(data)
		return h[:], true
	default:
		return nil, false
	}
}
