// Package api serves the AgentNote documents, ideas and chat over a chi router.
// Every response body is a JSON envelope carrying "success".
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth failure messages sent in the envelope's error field.
const (
	errMissingToken = "missing bearer token"
	errBadToken     = "invalid token"
)

// bearerToken returns the credentials of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, cred, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	cred = strings.TrimSpace(cred)
	return cred, cred != ""
}

// AuthMiddleware guards the API with a shared token when enabled. Requests
// without a token or with a different one get a 401 envelope.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r)
			switch {
			case !ok:
				writeError(w, http.StatusUnauthorized, errMissingToken)
			case subtle.ConstantTimeCompare([]byte(got), want) != 1:
				writeError(w, http.StatusUnauthorized, errBadToken)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
