// Package middleware provides composable middleware for effect execution.
// Middleware wraps each effect invocation synchronously and can modify
// execution (recover from panics, log, add tracing, record metrics, etc.).
//
// Middleware never sees or alters the reducer: transitions are pure and
// panics there are fatal by contract. Only effect invocations — both the
// per-dispatch pipeline and independently launched tasks — run through the
// chain.
package middleware

import "context"

// Handler is the terminal function that executes effect logic.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the action the effect was invoked with, and the next
// handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware[A any] func(ctx context.Context, action A, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → effect
func Chain[A any](mws ...Middleware[A]) Middleware[A] {
	return func(ctx context.Context, action A, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, action, prev)
			}
		}
		return h(ctx)
	}
}
