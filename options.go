package store

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/lambdaswift/store/hook"
	"github.com/lambdaswift/store/middleware"
)

// Option configures a Store.
type Option[S, A any] func(*Store[S, A]) error

// WithEffects registers the ordered effect pipeline. Effects run after
// every transition, in the order given here. May be passed multiple
// times; later calls append.
func WithEffects[S, A any](effects ...Effect[S, A]) Option[S, A] {
	return func(s *Store[S, A]) error {
		for _, eff := range effects {
			if eff == nil {
				return ErrNilEffect
			}
		}
		s.effects = append(s.effects, effects...)
		return nil
	}
}

// WithLogger sets the structured logger for the store.
func WithLogger[S, A any](l *slog.Logger) Option[S, A] {
	return func(s *Store[S, A]) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// WithConfig replaces the store's configuration wholesale.
func WithConfig[S, A any](cfg Config) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.config = cfg
		return nil
	}
}

// WithFeedBuffer sets the capacity of each subscriber feed's delivery
// channel.
func WithFeedBuffer[S, A any](n int) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.config.FeedBuffer = n
		return nil
	}
}

// WithEffectTimeout bounds each effect invocation with a deadline.
func WithEffectTimeout[S, A any](d time.Duration) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.config.EffectTimeout = d
		return nil
	}
}

// WithExtension registers a lifecycle extension with the store.
// Extensions are notified in registration order.
func WithExtension[S, A any](e hook.Extension) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.exts = append(s.exts, e)
		return nil
	}
}

// WithMiddleware appends middleware to the effect execution chain, after
// the default stack (recover, tracing, metrics, logging).
func WithMiddleware[S, A any](m middleware.Middleware[A]) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.userMws = append(s.userMws, m)
		return nil
	}
}

// WithPreDispatchHook sets the hook invoked before the reducer runs for
// each dispatched action. It runs synchronously inside the dispatch cycle,
// so any side effects (typically cancelling in-flight effect tasks that a
// new action supersedes) complete before the transition is applied.
func WithPreDispatchHook[S, A any](h func(ctx context.Context, action A)) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.preDispatch = h
		return nil
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the store.
// When set, the tracing middleware uses this provider instead of the
// global one.
func WithTracerProvider[S, A any](tp trace.TracerProvider) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.tracerProvider = tp
		return nil
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the store.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider[S, A any](mp metric.MeterProvider) Option[S, A] {
	return func(s *Store[S, A]) error {
		s.meterProvider = mp
		return nil
	}
}
