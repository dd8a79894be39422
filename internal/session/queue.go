package session

import (
	"sync"

	"github.com/roach88/marginalia/internal/engine"
)

// actionQueue is a thread-safe FIFO of actions waiting for the Run loop.
//
// The queue is unbounded: editor keystrokes and transport replies must
// never block on the writer.
//
// The signal channel lets Run wait for work and for context cancellation
// in the same select.
type actionQueue struct {
	mu      sync.Mutex
	actions []engine.Action
	closed  bool
	signal  chan struct{} // buffered, size 1
}

func newActionQueue() *actionQueue {
	return &actionQueue{
		actions: make([]engine.Action, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a to the back of the queue.
// Returns false if the queue is closed.
func (q *actionQueue) Enqueue(a engine.Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.actions = append(q.actions, a)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front action without blocking.
func (q *actionQueue) TryDequeue() (engine.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 {
		return nil, false
	}
	a := q.actions[0]
	// Clear the slot so batches and mappings can be collected.
	q.actions[0] = nil
	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}
	return a, true
}

// Wait returns a channel that fires when actions may be available.
// It is closed by Close.
func (q *actionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued actions.
func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Closed reports whether Close has been called.
func (q *actionQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting actions and wakes any waiter.
func (q *actionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
