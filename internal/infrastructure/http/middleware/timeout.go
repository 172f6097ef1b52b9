package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout bounds the request context of a route. Upstream lookups
// started by the handler observe the deadline; per-item timeouts still apply.
// A non-positive timeout leaves the context untouched.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if timeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
