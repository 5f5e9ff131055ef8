package control

import (
	"crypto/subtle"
	"net/http"
)

// requireAuth wraps next with an API-key check: the token may arrive as
// the X-API-Key header or a ?token= query parameter. An empty configured
// token disables the check entirely (local/dev use). The comparison is
// constant-time for equal-length inputs, so it does not leak a matching
// prefix via timing; a length mismatch returns early. Every response, authenticated or not, is marked uncacheable
// and non-persistent: this is a localhost control plane, not a public API.
func requireAuth(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "close")

		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		presented := r.Header.Get("X-API-Key")
		if presented == "" {
			presented = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			http.Error(w, "invalid or missing api key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
