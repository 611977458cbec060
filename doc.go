// Package store provides a concurrency-safe, unidirectional state
// container for Go. A single state value changes only through a pure
// reducer, asynchronous effects observe every transition and may feed
// further actions back in, and any number of independent subscribers
// receive a live, ordered feed of every state change.
//
// Store is designed as a library, not a framework. Supply a state type, a
// reducer, and effect functions as ordinary Go functions; the store owns
// the dispatch loop, effect cancellation, and the multicast state feed.
//
// # Quick Start
//
//	type counter struct{ Count int }
//
//	s, err := store.New(counter{},
//	    func(st counter, a string) counter {
//	        if a == "inc" {
//	            st.Count++
//	        }
//	        return st
//	    },
//	)
//	_ = s.Dispatch(ctx, "inc")
//
// # Architecture
//
// Every Dispatch runs a strict cycle: apply the reducer, publish the new
// state to every subscriber feed, then run each registered effect in
// order, recursively dispatching any follow-up action an effect returns
// before the next effect runs. Concurrent dispatchers are serialized, so
// transitions form a single total order and state access is never racy.
//
// Long-running or speculative work runs through LaunchEffect, which
// returns an individually cancellable task handle; cancellation always
// wins the race against the task's follow-up dispatch.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package store
