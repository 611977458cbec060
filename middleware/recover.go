package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Recover returns middleware that recovers from panics in the effect chain.
// Panics are converted to errors and logged with a stack trace. The engine
// treats an effect error as "no follow-up action", so a panicking effect
// cannot take the dispatch loop down.
func Recover[A any](logger *slog.Logger) Middleware[A] {
	return func(ctx context.Context, action A, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("effect panicked",
					slog.String("action", fmt.Sprintf("%T", action)),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in effect for %T: %v", action, r)
			}
		}()
		return next(ctx)
	}
}
