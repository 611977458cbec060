package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Logging returns middleware that logs effect start and completion at
// debug level, with the action's Go type as the identifying attribute.
func Logging[A any](logger *slog.Logger) Middleware[A] {
	return func(ctx context.Context, action A, next Handler) error {
		actionType := fmt.Sprintf("%T", action)
		logger.Debug("effect started", slog.String("action", actionType))

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("effect failed",
				slog.String("action", actionType),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("effect completed",
				slog.String("action", actionType),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
