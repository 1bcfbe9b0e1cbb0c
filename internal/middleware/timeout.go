package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds every request with a deadline. A request stuck waiting on
// a pooled database connection fails with context.DeadlineExceeded, which
// handlers surface as a retryable 503 instead of hanging.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
