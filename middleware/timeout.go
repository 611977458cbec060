package middleware

import (
	"context"
	"time"
)

// Timeout returns middleware that enforces a per-effect execution deadline.
// When the deadline is exceeded the context is cancelled; a well-behaved
// effect observes the cancellation and returns without a follow-up action.
// A zero or negative duration makes this a pass-through.
func Timeout[A any](d time.Duration) Middleware[A] {
	return func(ctx context.Context, _ A, next Handler) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
