// Package backoff provides retry delay strategies for effect execution.
// A strategy maps a retry attempt number to a wait duration; effectx.Retry
// consumes one between failed attempts. All strategies returned by this
// package are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// Func adapts an ordinary function into a Strategy.
type Func func(attempt int) time.Duration

// Delay calls f.
func (f Func) Delay(attempt int) time.Duration { return f(attempt) }

// NewConstant returns a strategy with the same delay for every attempt.
func NewConstant(interval time.Duration) Strategy {
	return Func(func(int) time.Duration { return interval })
}

// NewLinear returns a strategy whose delay grows linearly with the attempt
// number: initial, 2*initial, 3*initial, ... capped at maxDelay. A
// maxDelay of zero means no cap.
func NewLinear(initial, maxDelay time.Duration) Strategy {
	return Func(func(attempt int) time.Duration {
		return clamp(initial*time.Duration(attempt), maxDelay)
	})
}

// NewExponential returns a strategy whose delay doubles each attempt:
// initial, 2*initial, 4*initial, ... capped at maxDelay. A maxDelay of
// zero means no cap; overflow saturates at the cap, or at MaxInt64
// without one.
func NewExponential(initial, maxDelay time.Duration) Strategy {
	return Func(func(attempt int) time.Duration {
		d := initial
		for i := 1; i < attempt; i++ {
			next := d * 2
			if next/2 != d { // overflow
				d = time.Duration(math.MaxInt64)
				break
			}
			d = next
			if maxDelay > 0 && d >= maxDelay {
				return maxDelay
			}
		}
		return clamp(d, maxDelay)
	})
}

// WithJitter wraps a strategy with full jitter: each delay is drawn
// uniformly from [0, base.Delay(attempt)]. Full jitter spreads out herds
// of retries that would otherwise fire in lockstep.
func WithJitter(base Strategy) Strategy {
	return Func(func(attempt int) time.Duration {
		d := base.Delay(attempt)
		if d <= 0 {
			return 0
		}
		if d < math.MaxInt64 {
			d++ // make the bound inclusive
		}
		return rand.N(d) //nolint:gosec // jitter intentionally uses non-crypto rand
	})
}

// DefaultStrategy returns the default backoff used by effectx.Retry:
// full-jitter exponential with 100ms initial and 10s max.
func DefaultStrategy() Strategy {
	return WithJitter(NewExponential(100*time.Millisecond, 10*time.Second))
}

// clamp caps d at maxDelay when a cap is set.
func clamp(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
