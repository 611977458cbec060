package broadcast

import (
	"sync"

	"github.com/lambdaswift/store/id"
)

// Feed is one subscriber's view of the hub: an ordered sequence of state
// values delivered on C. Values accumulate in an unbounded local queue and
// are pumped into the delivery channel by a dedicated goroutine, so one
// slow reader never slows the publisher or other feeds down.
//
// A feed ends (C is closed) when the subscriber calls Close or when the
// hub is torn down. Subscribers must call Close when they stop reading,
// otherwise the pump goroutine lives for as long as the hub does.
type Feed[S any] struct {
	id id.SubscriberID

	mu      sync.Mutex
	queue   []S
	done    bool // no more pushes; pump drains the queue then ends
	stopped bool // hard stop; pump ends without draining

	wake chan struct{}
	stop chan struct{}
	out  chan S

	stopOnce sync.Once

	// onStop deregisters the feed from its hub. Set by Hub.Subscribe.
	onStop func()
}

func newFeed[S any](buffer int) *Feed[S] {
	f := &Feed[S]{
		id:   id.NewSubscriberID(),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		out:  make(chan S, buffer),
	}
	go f.pump()
	return f
}

// ID returns the feed's subscriber identifier.
func (f *Feed[S]) ID() id.SubscriberID { return f.id }

// C returns the channel state values are delivered on. It is closed when
// the feed ends.
func (f *Feed[S]) C() <-chan S { return f.out }

// Close terminates the feed and deregisters it from the hub. Values queued
// but not yet consumed are discarded. Safe to call multiple times and
// concurrently with delivery.
func (f *Feed[S]) Close() {
	f.stopOnce.Do(func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
		close(f.stop)

		if f.onStop != nil {
			f.onStop()
		}
	})
}

// push appends a value to the local queue. Called by the hub with its lock
// held; only the feed's own lock is taken here.
func (f *Feed[S]) push(v S) {
	f.mu.Lock()
	if f.done || f.stopped {
		f.mu.Unlock()
		return
	}
	f.queue = append(f.queue, v)
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// finish stops accepting new values but lets the pump drain what is
// already queued. Used for hub teardown so the final state still reaches
// consumers that are reading.
func (f *Feed[S]) finish() {
	f.mu.Lock()
	f.done = true
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// pump moves values from the queue to the delivery channel.
func (f *Feed[S]) pump() {
	for {
		f.mu.Lock()
		for len(f.queue) == 0 && !f.done && !f.stopped {
			f.mu.Unlock()
			select {
			case <-f.wake:
			case <-f.stop:
			}
			f.mu.Lock()
		}
		if f.stopped || (f.done && len(f.queue) == 0) {
			f.mu.Unlock()
			close(f.out)
			return
		}
		v := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()

		select {
		case f.out <- v:
		case <-f.stop:
			close(f.out)
			return
		}
	}
}
