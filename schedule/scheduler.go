// Package schedule dispatches actions into a store on cron schedules.
// It supports standard 5-field cron expressions and descriptors like
// "@every 30s", making periodic actions (polling, refresh, ticking clocks)
// a store-level concern instead of ad-hoc goroutines in application code.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// Dispatcher is the subset of the store the scheduler needs. *store.Store
// satisfies it.
type Dispatcher[A any] interface {
	Dispatch(ctx context.Context, action A) error
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// entry is one named schedule bound to an action.
type entry[A any] struct {
	name     string
	schedule cronlib.Schedule
	action   A
	nextRun  time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*schedulerConfig)

type schedulerConfig struct {
	tickInterval time.Duration
	logger       *slog.Logger
}

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(c *schedulerConfig) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// WithLogger sets the structured logger for the scheduler.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(c *schedulerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Scheduler fires entries on a tick loop, dispatching each entry's action
// when its schedule comes due. Entries may be added and removed while the
// scheduler runs.
type Scheduler[A any] struct {
	dispatcher   Dispatcher[A]
	logger       *slog.Logger
	tickInterval time.Duration

	mu      sync.Mutex
	entries map[string]*entry[A]

	stopCh  chan struct{}
	wg      sync.WaitGroup
	runMu   sync.Mutex
	running bool
}

// NewScheduler creates a Scheduler dispatching into d.
func NewScheduler[A any](d Dispatcher[A], opts ...SchedulerOption) *Scheduler[A] {
	cfg := schedulerConfig{
		tickInterval: 1 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler[A]{
		dispatcher:   d,
		logger:       cfg.logger,
		tickInterval: cfg.tickInterval,
		entries:      make(map[string]*entry[A]),
	}
}

// Add registers a named entry firing action on the given cron expression.
// Adding an existing name replaces the previous entry.
func (s *Scheduler[A]) Add(name, expr string, action A) error {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return fmt.Errorf("schedule: parse %q: %w", expr, err)
	}

	s.mu.Lock()
	s.entries[name] = &entry[A]{
		name:     name,
		schedule: schedule,
		action:   action,
		nextRun:  schedule.Next(time.Now()),
	}
	s.mu.Unlock()

	s.logger.Debug("schedule entry added",
		slog.String("entry", name),
		slog.String("expr", expr),
	)
	return nil
}

// Remove deletes a named entry. Removing an unknown name is a no-op.
func (s *Scheduler[A]) Remove(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

// Len returns the number of registered entries.
func (s *Scheduler[A]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start launches the tick loop. It returns immediately. A stopped
// scheduler may be started again; its entries survive the stop.
func (s *Scheduler[A]) Start(_ context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return nil
	}
	s.running = true

	// Fresh per run: the previous run's channel is already closed.
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.tickLoop(s.stopCh)

	s.logger.Info("scheduler started", slog.Duration("tick_interval", s.tickInterval))
	return nil
}

// Stop signals the tick loop to stop and waits for it to finish.
func (s *Scheduler[A]) Stop(_ context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	close(s.stopCh)
	s.wg.Wait()

	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler[A]) tickLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.fireDue(now)
		}
	}
}

// fireDue dispatches every entry whose next run time has passed and
// advances it to the following occurrence.
func (s *Scheduler[A]) fireDue(now time.Time) {
	s.mu.Lock()
	due := make([]*entry[A], 0)
	for _, e := range s.entries {
		if !e.nextRun.After(now) {
			due = append(due, e)
			e.nextRun = e.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		if err := s.dispatcher.Dispatch(context.Background(), e.action); err != nil {
			s.logger.Warn("scheduled dispatch failed",
				slog.String("entry", e.name),
				slog.String("error", err.Error()),
			)
		}
	}
}
