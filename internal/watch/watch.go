// Package watch provides the current-value broadcast primitive backing the
// language manager's observable state.
package watch

import (
	"context"
	"sync"
)

// Cell holds one latest value, replays it to every new subscriber and fans
// later updates out to all of them in publish order. A publish never blocks
// on a slow subscriber: each subscription buffers a single value and
// coalesces to the newest one, so every subscriber always converges on the
// latest published value even if it skips intermediates.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]chan T
	next   int
	done   chan struct{}
	closed bool
}

// NewCell creates a cell seeded with the supplied value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]chan T),
		done:  make(chan struct{}),
	}
}

// Get returns the latest published value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.value
}

// Set publishes a new value to the cell and notifies every subscriber.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
	for _, ch := range c.subs {
		select {
		case ch <- value:
		default:
			// Subscriber has not drained the previous value, replace it.
			// Only Set sends on subscriber channels and Set holds the lock,
			// so after the drain the send cannot block.
			select {
			case <-ch:
			default:
			}
			ch <- value
		}
	}
}

// Subscribe registers a new observer. The returned channel first yields the
// value current at subscription time, then every later update. The channel
// is closed when the supplied context is done or the cell is closed, never
// before.
func (c *Cell[T]) Subscribe(ctx context.Context) <-chan T {
	c.mu.Lock()

	ch := make(chan T, 1)
	ch <- c.value

	if c.closed {
		close(ch)
		c.mu.Unlock()
		return ch
	}

	id := c.next
	c.next++
	c.subs[id] = ch
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
		}
		c.unsubscribe(id)
	}()

	return ch
}

// Close ends every subscription and releases their goroutines. Further
// publishes are still stored but reach no subscribers; new subscriptions
// yield the latest value and immediately close.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.done)
}

func (c *Cell[T]) unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.subs[id]
	if !ok {
		return
	}

	delete(c.subs, id)
	close(ch)
}
