package utils

import (
	"context"
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("queue closed")

// ConcurrentQueue is an unbounded FIFO. Enqueue never blocks; Dequeue waits for an item,
// the queue being closed or the context being done.
type ConcurrentQueue[T any] struct {
	// array of items
	items []T
	// Mutual exclusion lock
	lock   sync.Mutex
	closed bool
	// signal wakes up a waiting consumer, capacity 1
	signal chan struct{}
}

func NewConcurrentQueue[T any]() *ConcurrentQueue[T] {
	return &ConcurrentQueue[T]{
		signal: make(chan struct{}, 1),
	}
}

// Put the item in the queue
func (q *ConcurrentQueue[T]) Enqueue(item T) error {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, item)
	q.lock.Unlock()

	q.notify()
	return nil
}

// Dequeue returns false when the queue was closed or ctx is done before an item arrived.
// Items still queued at close time are dropped.
func (q *ConcurrentQueue[T]) Dequeue(ctx context.Context) (T, bool) {
	var zero T
	for {
		q.lock.Lock()
		if q.closed {
			q.lock.Unlock()
			return zero, false
		}
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			q.lock.Unlock()
			return item, true
		}
		q.lock.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// Close is idempotent, it reports whether this call closed the queue
func (q *ConcurrentQueue[T]) Close() bool {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return false
	}
	q.closed = true
	q.items = nil
	q.lock.Unlock()

	q.notify()
	return true
}

func (q *ConcurrentQueue[T]) IsClosed() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.closed
}

func (q *ConcurrentQueue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

func (q *ConcurrentQueue[T]) IsEmpty() bool {
	return q.Len() == 0
}

func (q *ConcurrentQueue[T]) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
