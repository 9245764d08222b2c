// Package queue provides a generic thread-safe FIFO used as the view-event
// journal between the engine goroutine and its consumers.
package queue

import "sync"

// Queue is a generic thread-safe queue. A bounded queue discards its
// oldest entries on overflow, so a stalled consumer costs memory, not
// correctness: view events are refreshed every cycle anyway.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	max   int // 0 means unbounded
}

// New creates a new empty unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// NewBounded creates a queue that holds at most max items, dropping the
// oldest on overflow. max <= 0 means unbounded.
func NewBounded[T any](max int) *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
		max:   max,
	}
}

// Push appends items to the queue, evicting the oldest entries if a bound
// is set.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	if q.max > 0 && len(q.items) > q.max {
		q.items = q.items[len(q.items)-q.max:]
	}
}

// Pop removes and returns the first item. Returns zero value if empty.
func (q *Queue[T]) Pop() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear removes all items from the queue.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}

// GetAndEmpty returns all items and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}
