// Package task provides handles for independently launched, cancellable
// units of effect work, and a registry that tracks them for individual and
// bulk cancellation.
//
// Cancellation is cooperative: cancelling a handle cancels the context the
// effect runs under and, crucially, wins the commit race — a cancelled task
// can never issue its follow-up dispatch, even if the underlying work has
// already produced a result.
package task

import (
	"context"
	"sync/atomic"

	"github.com/lambdaswift/store/id"
)

// Status is the lifecycle state of a task.
type Status int32

const (
	// StatusRunning means the task's effect is (or may still be) executing.
	StatusRunning Status = iota

	// StatusCancelled means Cancel won the commit race; any follow-up
	// dispatch is suppressed.
	StatusCancelled

	// StatusCommitted means the task reserved the right to issue its
	// follow-up dispatch (or completed without one).
	StatusCommitted
)

// Handle identifies one launched effect task. It is safe for concurrent use.
type Handle struct {
	id     id.TaskID
	ctx    context.Context
	cancel context.CancelFunc

	status atomic.Int32
	done   chan struct{}
}

func newHandle(parent context.Context) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		id:     id.NewTaskID(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID returns the task identifier.
func (h *Handle) ID() id.TaskID { return h.id }

// Context returns the context the task's effect runs under. It is
// cancelled when Cancel is called and when the task completes.
func (h *Handle) Context() context.Context { return h.ctx }

// Status returns the task's current lifecycle state.
func (h *Handle) Status() Status { return Status(h.status.Load()) }

// Cancel signals the task to stop and suppresses its follow-up dispatch.
// It reports whether this call won the commit race; false means the task
// had already committed (or was already cancelled).
func (h *Handle) Cancel() bool {
	won := h.status.CompareAndSwap(int32(StatusRunning), int32(StatusCancelled))
	h.cancel()
	return won
}

// Cancelled reports whether the task was cancelled before committing.
func (h *Handle) Cancelled() bool { return h.Status() == StatusCancelled }

// TryCommit atomically reserves the right to issue the follow-up dispatch.
// It returns false if the task was cancelled first, in which case the
// caller must not dispatch. Called by the engine exactly once, after the
// effect returns and before any redispatch.
func (h *Handle) TryCommit() bool {
	return h.status.CompareAndSwap(int32(StatusRunning), int32(StatusCommitted))
}

// Done returns a channel closed when the task has fully completed and been
// removed from its registry.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task completes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// complete releases the task's context and closes Done. Called by the
// registry when the task is removed.
func (h *Handle) complete() {
	h.cancel()
	close(h.done)
}
