// Package hook defines the lifecycle extension system for the store.
// Extensions are notified of lifecycle events (action dispatched, state
// changed, effect task launched, etc.) and can react to them — logging,
// metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about. Hooks observe the dispatch cycle; they
// can never alter it, and errors they return are logged and discarded.
package hook

import (
	"context"

	"github.com/lambdaswift/store/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Dispatch lifecycle hooks
// ──────────────────────────────────────────────────

// ActionDispatched is called after an action's transition has been applied.
// The state argument is the post-transition state.
type ActionDispatched[S, A any] interface {
	OnActionDispatched(ctx context.Context, action A, state S) error
}

// StateChanged is called after each completed transition with the states
// before and after the reducer ran.
type StateChanged[S any] interface {
	OnStateChanged(ctx context.Context, oldState, newState S) error
}

// ──────────────────────────────────────────────────
// Effect task lifecycle hooks
// ──────────────────────────────────────────────────

// EffectLaunched is called when an independently cancellable effect task
// is launched outside the per-dispatch pipeline.
type EffectLaunched[A any] interface {
	OnEffectLaunched(ctx context.Context, taskID id.TaskID, action A) error
}

// TaskCancelled is called when an effect task is cancelled before it
// could commit a follow-up dispatch.
type TaskCancelled interface {
	OnTaskCancelled(ctx context.Context, taskID id.TaskID) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during store teardown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
