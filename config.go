package store

import "time"

// Config holds configuration for a Store.
type Config struct {
	// FeedBuffer is the capacity of each subscriber feed's delivery
	// channel. Overflow accumulates in the feed's local queue, never in
	// the dispatch loop.
	FeedBuffer int

	// EffectTimeout is the maximum time a single effect invocation may
	// run. Zero disables the deadline.
	EffectTimeout time.Duration

	// ShutdownTimeout bounds Close when the caller's context carries no
	// deadline of its own.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FeedBuffer:      64,
		EffectTimeout:   0,
		ShutdownTimeout: 30 * time.Second,
	}
}
