package orchestrator

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Pop once the queue is closed and drained.
var ErrQueueClosed = errors.New("action queue closed")

// ActionQueue is an unbounded multi-producer, single-consumer queue of
// actions. Push never blocks, so process monitors and the UI can always
// hand work to the controller.
type ActionQueue struct {
	mu     sync.Mutex
	items  []Action
	wake   chan struct{}
	closed bool
}

// NewActionQueue creates an empty queue.
func NewActionQueue() *ActionQueue {
	return &ActionQueue{wake: make(chan struct{}, 1)}
}

// Push enqueues an action. Pushes after Close are dropped.
func (q *ActionQueue) Push(a Action) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, a)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop blocks until an action is available, the context is cancelled, or
// the queue is closed and empty.
func (q *ActionQueue) Pop(ctx context.Context) (Action, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			a := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return a, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// Close stops accepting new actions. Queued actions can still be popped.
func (q *ActionQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued actions.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
