// Package reloadbus implements the fan-out broadcast from the dev loop to
// every connected browser WebSocket.
//
// Grounded on erlorenz-go-toolbox/pubsub.InMemory: subscribers register a
// channel, the publisher fans out without blocking on slow receivers. Unlike
// pubsub.InMemory (arbitrary []byte payloads, per-topic handlers run in their
// own goroutine), the reload bus has exactly one topic and a unit payload,
// so subscription is a plain buffered channel the consumer selects on
// directly — no handler indirection is needed.
package reloadbus

import "sync"

// Capacity is the fixed buffer size of every subscriber channel, per spec.
const Capacity = 10

// Bus is a lossy broadcast channel of reload signals. Producers call
// Publish after a successful rebuild. Consumers call Subscribe and then
// range (or select) over the returned channel until it closes.
type Bus struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a new consumer and returns its channel plus an
// unsubscribe function. The bus tolerates late subscribers: they receive
// only events published after Subscribe returns.
func (b *Bus) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, Capacity)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish broadcasts a reload signal to every current subscriber. A
// subscriber whose channel is full has its oldest queued signal dropped and
// the new one enqueued in its place, so a slow consumer always eventually
// sees "a reload happened" without ever blocking the producer.
func (b *Bus) Publish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
			// Full: drop the oldest queued event to make room, per the
			// bus's coalescing-lossy contract.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Close closes every subscriber channel and clears the subscriber set.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		close(ch)
	}
	b.subs = make(map[chan struct{}]struct{})
}
