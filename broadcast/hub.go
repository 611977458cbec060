// Package broadcast provides the multicast state feed for the store.
// A Hub fans every published state value out to any number of independent
// subscriber feeds. Each feed starts with the value current at subscribe
// time and then receives every subsequent value in publish order, no gaps,
// no duplicates, regardless of how fast other subscribers consume.
package broadcast

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lambdaswift/store/id"
)

// DefaultFeedBuffer is the default capacity of a feed's delivery channel.
// The channel only smooths bursts; overflow accumulates in the feed's
// unbounded subscriber-local queue, never in the publisher.
const DefaultFeedBuffer = 64

// Hub multicasts state values to subscriber feeds. It retains the most
// recently published value so a late subscriber's feed can be seeded with
// the current state atomically with its registration.
type Hub[S any] struct {
	mu     sync.Mutex
	feeds  map[id.SubscriberID]*Feed[S]
	last   S
	closed bool

	logger     *slog.Logger
	feedBuffer int

	totalPublished atomic.Int64
}

// HubOption configures a Hub.
type HubOption func(*hubConfig)

type hubConfig struct {
	feedBuffer int
	logger     *slog.Logger
}

// WithFeedBuffer sets the capacity of each feed's delivery channel.
func WithFeedBuffer(n int) HubOption {
	return func(c *hubConfig) {
		if n > 0 {
			c.feedBuffer = n
		}
	}
}

// WithLogger sets the structured logger for the hub.
func WithLogger(l *slog.Logger) HubOption {
	return func(c *hubConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewHub creates a hub whose first subscribers will be seeded with initial.
func NewHub[S any](initial S, opts ...HubOption) *Hub[S] {
	cfg := hubConfig{
		feedBuffer: DefaultFeedBuffer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Hub[S]{
		feeds:      make(map[id.SubscriberID]*Feed[S]),
		last:       initial,
		logger:     cfg.logger,
		feedBuffer: cfg.feedBuffer,
	}
}

// Publish delivers v to every live feed and records it as the current
// value for future subscribers. Publish never blocks on slow consumers:
// it only appends to each feed's local queue. After Close, Publish is a
// no-op.
func (h *Hub[S]) Publish(v S) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last = v
	for _, f := range h.feeds {
		f.push(v)
	}
	h.mu.Unlock()

	h.totalPublished.Add(1)
}

// Subscribe creates a new feed seeded with the current value. The seed and
// the registration happen under the hub lock, so the feed observes the
// current value followed by exactly the publishes that come after it.
//
// On a closed hub the returned feed yields the final value and then ends.
func (h *Hub[S]) Subscribe() *Feed[S] {
	h.mu.Lock()
	defer h.mu.Unlock()

	f := newFeed[S](h.feedBuffer)
	f.push(h.last)

	if h.closed {
		f.finish()
		return f
	}

	f.onStop = func() { h.remove(f.id) }
	h.feeds[f.id] = f

	h.logger.Debug("subscriber attached", slog.String("subscriber_id", f.id.String()))
	return f
}

// remove deregisters a feed. Called from Feed.Close.
func (h *Hub[S]) remove(sid id.SubscriberID) {
	h.mu.Lock()
	delete(h.feeds, sid)
	h.mu.Unlock()

	h.logger.Debug("subscriber detached", slog.String("subscriber_id", sid.String()))
}

// Close terminates every feed and rejects future publishes. Feeds created
// after Close yield only the final value. Safe to call multiple times.
func (h *Hub[S]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	feeds := make([]*Feed[S], 0, len(h.feeds))
	for _, f := range h.feeds {
		feeds = append(feeds, f)
	}
	h.feeds = make(map[id.SubscriberID]*Feed[S])
	h.mu.Unlock()

	// Finish feeds outside the lock: Feed.Close re-enters the hub via
	// onStop to deregister itself.
	for _, f := range feeds {
		f.finish()
	}
}

// SubscriberCount returns the number of live feeds.
func (h *Hub[S]) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.feeds)
}

// TotalPublished returns the number of values published so far.
func (h *Hub[S]) TotalPublished() int64 {
	return h.totalPublished.Load()
}
