package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// requireToken rejects requests that do not present token. Browsers
// cannot set headers on a websocket handshake, so /api/events may also
// pass it as the "token" query parameter.
func requireToken(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := presentedToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedToken(r *http.Request) (string, bool) {
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return v, true
	}
	if websocket.IsWebSocketUpgrade(r) {
		if v := r.URL.Query().Get("token"); v != "" {
			return v, true
		}
	}
	return "", false
}
