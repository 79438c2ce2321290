// Package middleware holds the HTTP middleware used by the API router.
package middleware

import (
	"net/http"
	"strings"
)

func apiKey(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// RequireAdmin permits requests presenting one of the configured admin
// keys. With no keys configured it allows everything (local dev).
func RequireAdmin(admin []string) func(http.Handler) http.Handler {
	keys := make(map[string]struct{}, len(admin))
	for _, k := range admin {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := keys[apiKey(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden"}`))
		})
	}
}
