package hook_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/lambdaswift/store/hook"
	"github.com/lambdaswift/store/id"
)

type counterState struct {
	Count int
}

type counterAction string

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnActionDispatched(_ context.Context, _ counterAction, _ counterState) error {
	e.calls = append(e.calls, "OnActionDispatched")
	return nil
}

func (e *allHooksExt) OnStateChanged(_ context.Context, _, _ counterState) error {
	e.calls = append(e.calls, "OnStateChanged")
	return nil
}

func (e *allHooksExt) OnEffectLaunched(_ context.Context, _ id.TaskID, _ counterAction) error {
	e.calls = append(e.calls, "OnEffectLaunched")
	return nil
}

func (e *allHooksExt) OnTaskCancelled(_ context.Context, _ id.TaskID) error {
	e.calls = append(e.calls, "OnTaskCancelled")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// stateOnlyExt only implements the StateChanged hook.
type stateOnlyExt struct {
	transitions int
}

func (e *stateOnlyExt) Name() string { return "state-only" }

func (e *stateOnlyExt) OnStateChanged(_ context.Context, _, _ counterState) error {
	e.transitions++
	return nil
}

// failingExt returns an error from every hook it implements.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnStateChanged(_ context.Context, _, _ counterState) error {
	return errors.New("hook exploded")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func newRegistry() *hook.Registry[counterState, counterAction] {
	return hook.NewRegistry[counterState, counterAction](slog.Default())
}

func TestRegistry_EmitsAllHooks(t *testing.T) {
	r := newRegistry()
	e := &allHooksExt{}
	r.Register(e)

	ctx := context.Background()
	r.EmitActionDispatched(ctx, "inc", counterState{Count: 1})
	r.EmitStateChanged(ctx, counterState{}, counterState{Count: 1})
	r.EmitEffectLaunched(ctx, id.NewTaskID(), "inc")
	r.EmitTaskCancelled(ctx, id.NewTaskID())
	r.EmitShutdown(ctx)

	want := []string{
		"OnActionDispatched",
		"OnStateChanged",
		"OnEffectLaunched",
		"OnTaskCancelled",
		"OnShutdown",
	}
	if len(e.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", e.calls, want)
	}
	for i, name := range want {
		if e.calls[i] != name {
			t.Errorf("calls[%d] = %q, want %q", i, e.calls[i], name)
		}
	}
}

func TestRegistry_PartialExtension(t *testing.T) {
	r := newRegistry()
	e := &stateOnlyExt{}
	r.Register(e)

	ctx := context.Background()

	// Hooks the extension doesn't implement must be silently skipped.
	r.EmitActionDispatched(ctx, "inc", counterState{})
	r.EmitEffectLaunched(ctx, id.NewTaskID(), "inc")
	r.EmitShutdown(ctx)
	if e.transitions != 0 {
		t.Fatalf("transitions = %d, want 0", e.transitions)
	}

	r.EmitStateChanged(ctx, counterState{}, counterState{Count: 1})
	r.EmitStateChanged(ctx, counterState{Count: 1}, counterState{Count: 2})
	if e.transitions != 2 {
		t.Errorf("transitions = %d, want 2", e.transitions)
	}
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	r := newRegistry()

	var order []string
	first := &orderExt{name: "first", order: &order}
	second := &orderExt{name: "second", order: &order}
	r.Register(first)
	r.Register(second)

	r.EmitStateChanged(context.Background(), counterState{}, counterState{Count: 1})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("notification order = %v, want [first second]", order)
	}
}

type orderExt struct {
	name  string
	order *[]string
}

func (e *orderExt) Name() string { return e.name }

func (e *orderExt) OnStateChanged(_ context.Context, _, _ counterState) error {
	*e.order = append(*e.order, e.name)
	return nil
}

func TestRegistry_HookErrorDoesNotPropagate(t *testing.T) {
	r := newRegistry()
	r.Register(&failingExt{})
	after := &stateOnlyExt{}
	r.Register(after)

	// Must not panic, and later extensions must still be notified.
	r.EmitStateChanged(context.Background(), counterState{}, counterState{Count: 1})

	if after.transitions != 1 {
		t.Errorf("transitions = %d, want 1 (failing hook must not block later hooks)", after.transitions)
	}
}

func TestRegistry_Extensions(t *testing.T) {
	r := newRegistry()
	if len(r.Extensions()) != 0 {
		t.Fatal("new registry should have no extensions")
	}
	r.Register(&allHooksExt{})
	r.Register(&stateOnlyExt{})
	if got := len(r.Extensions()); got != 2 {
		t.Errorf("len(Extensions()) = %d, want 2", got)
	}
}
