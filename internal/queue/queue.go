// Package queue implements the bounded, blocking FIFO of order ids awaiting
// assignment: a single-producer-group/single-consumer channel with no
// priority discipline — priority affects scoring, never dequeue order.
package queue

import (
	"context"

	"github.com/google/uuid"
)

// OrderQueue is a bounded channel of order ids. Enqueue suspends the caller
// when full; Dequeue suspends when empty. Both accept a context so callers
// (ingress adapters, the engine's shutdown path) can bound the wait.
type OrderQueue struct {
	ch chan uuid.UUID
}

// New returns an OrderQueue with the given bounded capacity.
func New(capacity int) *OrderQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &OrderQueue{ch: make(chan uuid.UUID, capacity)}
}

// Enqueue blocks until there is room in the queue or ctx is done.
func (q *OrderQueue) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	select {
	case q.ch <- orderID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until an order id is available, the queue is closed (ok
// is false), or ctx is done.
func (q *OrderQueue) Dequeue(ctx context.Context) (id uuid.UUID, ok bool) {
	select {
	case id, ok = <-q.ch:
		return id, ok
	case <-ctx.Done():
		return uuid.Nil, false
	}
}

// Len reports the current queue depth, for gauge sampling.
func (q *OrderQueue) Len() int {
	return len(q.ch)
}

// Cap reports the queue's configured capacity.
func (q *OrderQueue) Cap() int {
	return cap(q.ch)
}

// Close closes the underlying channel. Only the owner of the single
// consumer (the engine's shutdown path) should call this, once, after all
// producers have stopped.
func (q *OrderQueue) Close() {
	close(q.ch)
}
