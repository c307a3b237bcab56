// Package requesttime pins one "now" per HTTP request so every timestamp taken
// while serving it agrees.
package requesttime

import (
	"context"
	"net/http"
	"time"
)

type contextKeyRequestTime struct{}

// Middleware records the arrival time of the request in its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the request-scoped time if one was recorded.
func FromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(contextKeyRequestTime{}).(time.Time)
	return t, ok
}

// Now returns the request-scoped time, falling back to time.Now() outside HTTP
// requests.
func Now(ctx context.Context) time.Time {
	if t, ok := FromContext(ctx); ok {
		return t
	}
	return time.Now()
}

// WithTime injects t into ctx. Tests and CLI paths use it to pin the clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyRequestTime{}, t)
}
