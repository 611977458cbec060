package task

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lambdaswift/store/id"
)

// Registry tracks in-flight effect tasks. All registry operations take the
// registry lock, which makes CancelAll atomic with respect to new
// launches: a task either registers before CancelAll starts (and is
// cancelled) or after it finishes (and is untouched).
type Registry struct {
	mu     sync.Mutex
	tasks  map[id.TaskID]*Handle
	logger *slog.Logger
}

// NewRegistry creates an empty task registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tasks:  make(map[id.TaskID]*Handle),
		logger: logger,
	}
}

// Launch creates and tracks a new task handle whose context descends from
// parent. The caller runs the effect and must call Remove when it
// finishes, whatever the outcome.
func (r *Registry) Launch(parent context.Context) *Handle {
	h := newHandle(parent)

	r.mu.Lock()
	r.tasks[h.id] = h
	r.mu.Unlock()

	return h
}

// Remove untracks a completed task and closes its Done channel. Safe to
// call once per handle; the registry never holds handles for finished
// tasks.
func (r *Registry) Remove(h *Handle) {
	r.mu.Lock()
	delete(r.tasks, h.id)
	r.mu.Unlock()

	h.complete()
}

// Get returns a tracked handle by ID.
func (r *Registry) Get(taskID id.TaskID) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.tasks[taskID]
	return h, ok
}

// Len returns the number of in-flight tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// CancelAll cancels every currently tracked task and returns the IDs of
// the tasks whose cancellation won the commit race. The lock is held for
// the whole sweep, so launches racing with CancelAll are either fully
// included or fully excluded.
func (r *Registry) CancelAll() []id.TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := make([]id.TaskID, 0, len(r.tasks))
	for _, h := range r.tasks {
		if h.Cancel() {
			cancelled = append(cancelled, h.id)
		}
	}

	if len(cancelled) > 0 {
		r.logger.Debug("cancelled effect tasks", slog.Int("count", len(cancelled)))
	}
	return cancelled
}

// Shutdown cancels all tasks and waits for each to complete, bounded by
// ctx.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.CancelAll()

	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.tasks))
	for _, h := range r.tasks {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, h := range handles {
		g.Go(func() error {
			return h.Wait(ctx)
		})
	}
	return g.Wait()
}
