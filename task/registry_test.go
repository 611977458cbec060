package task

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLaunchAndRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	h := r.Launch(context.Background())

	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	if h.Status() != StatusRunning {
		t.Fatalf("Status = %v, want StatusRunning", h.Status())
	}

	r.Remove(h)

	if r.Len() != 0 {
		t.Errorf("Len after Remove = %d, want 0", r.Len())
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done channel not closed after Remove")
	}
}

func TestCancelWinsCommitRace(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	h := r.Launch(context.Background())

	if !h.Cancel() {
		t.Fatal("Cancel should win against a running task")
	}
	if h.TryCommit() {
		t.Error("TryCommit must fail after Cancel")
	}
	if !h.Cancelled() {
		t.Error("Cancelled() = false after Cancel")
	}

	// The task's context must be cancelled.
	select {
	case <-h.Context().Done():
	default:
		t.Error("task context not cancelled")
	}

	r.Remove(h)
}

func TestCommitWinsCancelRace(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	h := r.Launch(context.Background())

	if !h.TryCommit() {
		t.Fatal("TryCommit should win against a running task")
	}
	if h.Cancel() {
		t.Error("Cancel must report false after commit")
	}
	if h.Cancelled() {
		t.Error("Cancelled() = true after commit won the race")
	}

	r.Remove(h)
}

func TestTryCommitOnlyOnce(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	h := r.Launch(context.Background())

	if !h.TryCommit() {
		t.Fatal("first TryCommit failed")
	}
	if h.TryCommit() {
		t.Error("second TryCommit should fail")
	}
	r.Remove(h)
}

func TestCancelAll(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	handles := make([]*Handle, 5)
	for i := range handles {
		handles[i] = r.Launch(context.Background())
	}
	// One task commits before the sweep.
	handles[2].TryCommit()

	cancelled := r.CancelAll()

	if len(cancelled) != 4 {
		t.Errorf("CancelAll cancelled %d tasks, want 4", len(cancelled))
	}
	for i, h := range handles {
		wantCancelled := i != 2
		if h.Cancelled() != wantCancelled {
			t.Errorf("handle %d Cancelled = %v, want %v", i, h.Cancelled(), wantCancelled)
		}
	}
}

func TestCancelAllConcurrentWithLaunch(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			h := r.Launch(context.Background())
			// Every launched task must end up either cancelled or
			// still running — never half-tracked.
			if !h.Cancelled() && h.Status() != StatusRunning && h.Status() != StatusCommitted {
				t.Error("task in impossible state")
				return
			}
			r.Remove(h)
		}
	}()

	for range 100 {
		r.CancelAll()
	}
	close(stop)
	wg.Wait()
}

func TestShutdownWaitsForTasks(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	h := r.Launch(context.Background())

	go func() {
		// Simulate a cooperative effect: finish when cancelled.
		<-h.Context().Done()
		time.Sleep(10 * time.Millisecond)
		r.Remove(h)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len after Shutdown = %d, want 0", r.Len())
	}
}

func TestShutdownTimesOutOnStuckTask(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	r.Launch(context.Background()) // never removed

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); err == nil {
		t.Error("Shutdown should return the context error for a stuck task")
	}
}

func TestWait(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger())
	h := r.Launch(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Remove(h)
	}()

	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
