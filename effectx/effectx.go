// Package effectx provides combinators for store effects: debouncing,
// throttling, deadlines, and retries. Each combinator wraps an effect (or
// an error-returning variant) and returns a plain store.Effect, keeping
// the store's contract intact: failures and rate decisions stay inside the
// effect and never reach the dispatch loop.
package effectx

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/lambdaswift/store"
	"github.com/lambdaswift/store/backoff"
)

// Debounce returns an effect that waits d before running eff. If the
// effect's context is cancelled during the wait — typically because a
// superseding action cancelled the task it runs in — no work happens and
// no follow-up action is produced. Pair with Store.LaunchEffect and a
// pre-dispatch hook for the "new input supersedes stale in-flight work"
// pattern.
func Debounce[S, A any](d time.Duration, eff store.Effect[S, A]) store.Effect[S, A] {
	return func(ctx context.Context, action A, state S) (A, bool) {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			var zero A
			return zero, false
		}
		return eff(ctx, action, state)
	}
}

// Throttle returns an effect that runs eff only when the rate limiter
// permits; invocations over the limit are dropped (no follow-up action).
// The limiter is shared across all invocations of the returned effect.
func Throttle[S, A any](limit rate.Limit, burst int, eff store.Effect[S, A]) store.Effect[S, A] {
	limiter := rate.NewLimiter(limit, burst)
	return func(ctx context.Context, action A, state S) (A, bool) {
		if !limiter.Allow() {
			var zero A
			return zero, false
		}
		return eff(ctx, action, state)
	}
}

// Timeout returns an effect that runs eff under a deadline. A well-behaved
// effect observes the context and returns promptly once it expires.
func Timeout[S, A any](d time.Duration, eff store.Effect[S, A]) store.Effect[S, A] {
	return func(ctx context.Context, action A, state S) (A, bool) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return eff(ctx, action, state)
	}
}

// Fallible is an effect variant that may fail. ok reports whether the
// returned action is a follow-up to dispatch; err, when non-nil, marks the
// attempt as failed regardless of the other returns.
type Fallible[S, A any] func(ctx context.Context, action A, state S) (action2 A, ok bool, err error)

// Retry adapts a Fallible into a store.Effect that retries failed attempts
// with delays from the given strategy, up to maxAttempts total attempts.
// When every attempt fails, or the context is cancelled between attempts,
// the effect gives up and produces no follow-up action: per the store's
// error model, the caller who needs to surface the failure should have the
// Fallible return a failure-carrying action instead of an error on its
// final attempt.
func Retry[S, A any](maxAttempts int, strategy backoff.Strategy, f Fallible[S, A]) store.Effect[S, A] {
	if strategy == nil {
		strategy = backoff.DefaultStrategy()
	}
	return func(ctx context.Context, action A, state S) (A, bool) {
		var zero A
		for attempt := 1; ; attempt++ {
			follow, ok, err := f(ctx, action, state)
			if err == nil {
				return follow, ok
			}
			if attempt >= maxAttempts || ctx.Err() != nil {
				return zero, false
			}

			timer := time.NewTimer(strategy.Delay(attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, false
			}
			timer.Stop()
		}
	}
}
