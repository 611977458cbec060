package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	mw "github.com/lambdaswift/store/middleware"
)

type testAction struct {
	Name string
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestChain_Order(t *testing.T) {
	var order []string

	tag := func(name string) mw.Middleware[testAction] {
		return func(ctx context.Context, _ testAction, next mw.Handler) error {
			order = append(order, name+":before")
			err := next(ctx)
			order = append(order, name+":after")
			return err
		}
	}

	chain := mw.Chain(tag("outer"), tag("inner"))
	err := chain(context.Background(), testAction{}, func(_ context.Context) error {
		order = append(order, "effect")
		return nil
	})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}

	want := []string{"outer:before", "inner:before", "effect", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChain_Empty(t *testing.T) {
	chain := mw.Chain[testAction]()
	called := false
	err := chain(context.Background(), testAction{}, func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("empty chain: err=%v called=%v", err, called)
	}
}

func TestChain_ErrorPropagates(t *testing.T) {
	wantErr := errors.New("effect failed")
	chain := mw.Chain(mw.Logging[testAction](testLogger()))
	err := chain(context.Background(), testAction{Name: "x"}, func(_ context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestRecover_ConvertsPanicToError(t *testing.T) {
	rec := mw.Recover[testAction](testLogger())

	err := rec(context.Background(), testAction{Name: "boom"}, func(_ context.Context) error {
		panic("kaboom")
	})
	if err == nil {
		t.Fatal("expected error from panicking effect")
	}
}

func TestRecover_PassThrough(t *testing.T) {
	rec := mw.Recover[testAction](testLogger())

	if err := rec(context.Background(), testAction{}, func(_ context.Context) error {
		return nil
	}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTimeout_DeadlineApplied(t *testing.T) {
	to := mw.Timeout[testAction](20 * time.Millisecond)

	err := to(context.Background(), testAction{}, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestTimeout_ZeroIsPassThrough(t *testing.T) {
	to := mw.Timeout[testAction](0)

	err := to(context.Background(), testAction{}, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("unexpected deadline on context")
		}
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
