package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/lambdaswift/store/broadcast"
	"github.com/lambdaswift/store/hook"
	"github.com/lambdaswift/store/id"
	"github.com/lambdaswift/store/middleware"
	"github.com/lambdaswift/store/task"
)

// instrumentationName is the OTel instrumentation scope for the store.
const instrumentationName = "github.com/lambdaswift/store"

// Reducer is the pure transition function: it computes the next state from
// the current state and an action. The store is the only caller and never
// invokes it concurrently with itself. A panic in a reducer is a
// programmer error and is deliberately not recovered: it propagates out of
// Dispatch. The store's locks are released on the way out and the prior
// state is left intact, so a caller that recovers the panic itself still
// holds a usable store.
type Reducer[S, A any] func(state S, action A) S

// Effect is an asynchronous function run after a transition with the
// dispatched action and the post-transition state. It returns a follow-up
// action and true, or false for none. Effects own their failures: convert
// an internal error into a follow-up action describing it, or return
// false — errors never reach the store.
type Effect[S, A any] func(ctx context.Context, action A, state S) (A, bool)

// Store is a unidirectional state container: a single state value mutated
// only by the reducer, an ordered effect pipeline, cancellable background
// effect tasks, and a multicast feed of every state change.
//
// All methods are safe for concurrent use. Concurrent Dispatch calls are
// serialized: the second caller's transition is applied only after the
// first caller's entire cycle, including recursive redispatches, has
// completed.
type Store[S, A any] struct {
	id      id.StoreID
	reducer Reducer[S, A]
	effects []Effect[S, A]
	logger  *slog.Logger
	config  Config

	// preDispatch runs before the reducer for each action. Guarded by
	// dispatchMu: it is only read inside the dispatch cycle.
	preDispatch func(ctx context.Context, action A)

	// dispatchMu serializes complete dispatch cycles.
	dispatchMu sync.Mutex

	// stateMu guards state so State() never blocks on in-flight effects.
	stateMu sync.RWMutex
	state   S

	hub   *broadcast.Hub[S]
	tasks *task.Registry
	hooks *hook.Registry[S, A]
	exts  []hook.Extension

	userMws []middleware.Middleware[A]
	mw      middleware.Middleware[A]

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	closed atomic.Bool
}

// New creates a Store holding initial, transitioning through reducer, with
// the given options. The reducer and effect list are fixed for the life of
// the store.
func New[S, A any](initial S, reducer Reducer[S, A], opts ...Option[S, A]) (*Store[S, A], error) {
	if reducer == nil {
		return nil, ErrNilReducer
	}

	s := &Store[S, A]{
		id:      id.NewStoreID(),
		reducer: reducer,
		logger:  slog.Default(),
		config:  DefaultConfig(),
		state:   initial,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.hub = broadcast.NewHub(initial,
		broadcast.WithFeedBuffer(s.config.FeedBuffer),
		broadcast.WithLogger(s.logger),
	)
	s.tasks = task.NewRegistry(s.logger)
	s.hooks = hook.NewRegistry[S, A](s.logger)
	for _, e := range s.exts {
		s.hooks.Register(e)
	}
	s.mw = s.buildMiddleware()

	return s, nil
}

// buildMiddleware assembles the effect execution chain:
// recover → tracing → metrics → logging → timeout → user middleware.
func (s *Store[S, A]) buildMiddleware() middleware.Middleware[A] {
	var tracingMw middleware.Middleware[A]
	if s.tracerProvider != nil {
		tracingMw = middleware.TracingWithTracer[A](s.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = middleware.Tracing[A]()
	}

	var metricsMw middleware.Middleware[A]
	if s.meterProvider != nil {
		metricsMw = middleware.MetricsWithMeter[A](s.meterProvider.Meter(instrumentationName))
	} else {
		metricsMw = middleware.Metrics[A]()
	}

	mws := []middleware.Middleware[A]{
		middleware.Recover[A](s.logger),
		tracingMw,
		metricsMw,
		middleware.Logging[A](s.logger),
	}
	if s.config.EffectTimeout > 0 {
		mws = append(mws, middleware.Timeout[A](s.config.EffectTimeout))
	}
	mws = append(mws, s.userMws...)

	return middleware.Chain(mws...)
}

// ID returns the store's unique identifier.
func (s *Store[S, A]) ID() id.StoreID { return s.id }

// Logger returns the store's logger.
func (s *Store[S, A]) Logger() *slog.Logger { return s.logger }

// Config returns a copy of the store's configuration.
func (s *Store[S, A]) Config() Config { return s.config }

// State returns the latest committed state. Repeated calls without an
// intervening dispatch return the same value.
func (s *Store[S, A]) State() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// SetPreDispatchHook replaces the pre-dispatch hook. The swap is
// serialized with dispatch cycles, so a hook never observes a cycle it
// was installed in the middle of.
func (s *Store[S, A]) SetPreDispatchHook(h func(ctx context.Context, action A)) {
	s.dispatchMu.Lock()
	s.preDispatch = h
	s.dispatchMu.Unlock()
}

// Dispatch applies the reducer to the current state with action, publishes
// the new state to all subscriber feeds, then runs every registered effect
// in order. An action returned by an effect is recursively dispatched
// through this same cycle — and fully settled — before the next effect of
// the original action runs. Dispatch returns once the whole cycle,
// including all recursive redispatches, has completed.
//
// Concurrent callers are queued; their transitions never interleave.
func (s *Store[S, A]) Dispatch(ctx context.Context, action A) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	return s.dispatch(ctx, action)
}

// dispatch runs one full cycle. Caller holds dispatchMu.
func (s *Store[S, A]) dispatch(ctx context.Context, action A) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.preDispatch != nil {
		s.preDispatch(ctx, action)
	}

	oldState, newState := s.applyReducer(action)

	s.hub.Publish(newState)
	s.hooks.EmitStateChanged(ctx, oldState, newState)
	s.hooks.EmitActionDispatched(ctx, action, newState)

	for _, eff := range s.effects {
		follow, ok := s.runEffect(ctx, eff, action, newState)
		if !ok {
			continue
		}
		// Depth-first: the follow-up and all of its downstream effects
		// settle before the next sibling effect runs.
		if err := s.dispatch(ctx, follow); err != nil {
			return err
		}
	}
	return nil
}

// applyReducer runs one transition under the state lock. The unlock is
// deferred so a panicking reducer releases the lock on its way out and
// State() keeps serving the prior state.
func (s *Store[S, A]) applyReducer(action A) (oldState, newState S) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	oldState = s.state
	newState = s.reducer(oldState, action)
	s.state = newState
	return oldState, newState
}

// runEffect invokes one effect through the middleware chain. An error from
// the chain (a recovered panic) yields no follow-up action.
func (s *Store[S, A]) runEffect(ctx context.Context, eff Effect[S, A], action A, state S) (A, bool) {
	var (
		follow A
		ok     bool
	)
	err := s.mw(ctx, action, func(ctx context.Context) error {
		follow, ok = eff(ctx, action, state)
		return nil
	})
	if err != nil {
		var zero A
		return zero, false
	}
	return follow, ok
}

// LaunchEffect starts eff concurrently with the caller, outside the
// per-dispatch pipeline, with a snapshot of the state at launch time. If
// the effect yields a follow-up action it is dispatched through the normal
// cycle — unless the task is cancelled first. Cancellation is checked
// atomically before the follow-up dispatch is issued, so a cancelled task
// never mutates state, even when its work already produced a result.
func (s *Store[S, A]) LaunchEffect(eff Effect[S, A], action A) (*task.Handle, error) {
	if eff == nil {
		return nil, ErrNilEffect
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	snapshot := s.State()
	h := s.tasks.Launch(context.Background())
	s.hooks.EmitEffectLaunched(h.Context(), h.ID(), action)

	go func() {
		defer s.tasks.Remove(h)

		follow, ok := s.runEffect(h.Context(), eff, action, snapshot)

		if !h.TryCommit() {
			// Cancelled while the effect was in flight; suppress the
			// follow-up dispatch.
			s.hooks.EmitTaskCancelled(context.Background(), h.ID())
			return
		}
		if !ok {
			return
		}
		if err := s.Dispatch(context.Background(), follow); err != nil {
			s.logger.Debug("follow-up dispatch dropped",
				slog.String("task_id", h.ID().String()),
				slog.String("error", err.Error()),
			)
		}
	}()

	return h, nil
}

// TaskCount returns the number of in-flight effect tasks.
func (s *Store[S, A]) TaskCount() int { return s.tasks.Len() }

// CancelAllEffectTasks cancels every currently tracked effect task. Tasks
// launched after the sweep begins are unaffected; tasks mid-flight are
// signalled to stop and their follow-up dispatches are suppressed.
func (s *Store[S, A]) CancelAllEffectTasks() {
	s.tasks.CancelAll()
}

// Subscribe returns a fresh feed that yields the state current at
// subscribe time as its first value, then every subsequent state in
// transition order. The feed ends when ctx is cancelled, when its Close
// method is called, or when the store is closed. Each call creates an
// independent feed.
func (s *Store[S, A]) Subscribe(ctx context.Context) *broadcast.Feed[S] {
	f := s.hub.Subscribe()
	if ctx != nil {
		context.AfterFunc(ctx, f.Close)
	}
	return f
}

// SubscriberCount returns the number of live subscriber feeds.
func (s *Store[S, A]) SubscriberCount() int { return s.hub.SubscriberCount() }

// Close tears the store down: new dispatches and launches are rejected,
// in-flight effect tasks are cancelled and awaited, every subscriber feed
// is terminated after the final state is delivered, and the Shutdown hook
// fires. When ctx carries no deadline, Config.ShutdownTimeout applies.
// Safe to call multiple times.
func (s *Store[S, A]) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	err := s.tasks.Shutdown(ctx)
	if err != nil {
		s.logger.Warn("shutdown: effect tasks did not finish in time",
			slog.String("store_id", s.id.String()),
			slog.String("error", err.Error()),
		)
	}

	// Wait for an in-flight dispatch cycle, then end the feeds so
	// subscribers observe every committed state before termination.
	s.dispatchMu.Lock()
	s.hub.Close()
	s.dispatchMu.Unlock()

	s.hooks.EmitShutdown(ctx)
	s.logger.Info("store closed", slog.String("store_id", s.id.String()))

	if err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
