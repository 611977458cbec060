package hook

import (
	"context"
	"log/slog"

	"github.com/lambdaswift/store/id"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type actionDispatchedEntry[S, A any] struct {
	name string
	hook ActionDispatched[S, A]
}

type stateChangedEntry[S any] struct {
	name string
	hook StateChanged[S]
}

type effectLaunchedEntry[A any] struct {
	name string
	hook EffectLaunched[A]
}

type taskCancelledEntry struct {
	name string
	hook TaskCancelled
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Registration is not synchronized: register all extensions before the
// store begins dispatching.
type Registry[S, A any] struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	actionDispatched []actionDispatchedEntry[S, A]
	stateChanged     []stateChangedEntry[S]
	effectLaunched   []effectLaunchedEntry[A]
	taskCancelled    []taskCancelledEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry[S, A any](logger *slog.Logger) *Registry[S, A] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[S, A]{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry[S, A]) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(ActionDispatched[S, A]); ok {
		r.actionDispatched = append(r.actionDispatched, actionDispatchedEntry[S, A]{name, h})
	}
	if h, ok := e.(StateChanged[S]); ok {
		r.stateChanged = append(r.stateChanged, stateChangedEntry[S]{name, h})
	}
	if h, ok := e.(EffectLaunched[A]); ok {
		r.effectLaunched = append(r.effectLaunched, effectLaunchedEntry[A]{name, h})
	}
	if h, ok := e.(TaskCancelled); ok {
		r.taskCancelled = append(r.taskCancelled, taskCancelledEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry[S, A]) Extensions() []Extension { return r.extensions }

// EmitActionDispatched notifies all extensions that implement ActionDispatched.
func (r *Registry[S, A]) EmitActionDispatched(ctx context.Context, action A, state S) {
	for _, e := range r.actionDispatched {
		if err := e.hook.OnActionDispatched(ctx, action, state); err != nil {
			r.logHookError("OnActionDispatched", e.name, err)
		}
	}
}

// EmitStateChanged notifies all extensions that implement StateChanged.
func (r *Registry[S, A]) EmitStateChanged(ctx context.Context, oldState, newState S) {
	for _, e := range r.stateChanged {
		if err := e.hook.OnStateChanged(ctx, oldState, newState); err != nil {
			r.logHookError("OnStateChanged", e.name, err)
		}
	}
}

// EmitEffectLaunched notifies all extensions that implement EffectLaunched.
func (r *Registry[S, A]) EmitEffectLaunched(ctx context.Context, taskID id.TaskID, action A) {
	for _, e := range r.effectLaunched {
		if err := e.hook.OnEffectLaunched(ctx, taskID, action); err != nil {
			r.logHookError("OnEffectLaunched", e.name, err)
		}
	}
}

// EmitTaskCancelled notifies all extensions that implement TaskCancelled.
func (r *Registry[S, A]) EmitTaskCancelled(ctx context.Context, taskID id.TaskID) {
	for _, e := range r.taskCancelled {
		if err := e.hook.OnTaskCancelled(ctx, taskID); err != nil {
			r.logHookError("OnTaskCancelled", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry[S, A]) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the
// dispatch cycle.
func (r *Registry[S, A]) logHookError(hookName, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hookName),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
