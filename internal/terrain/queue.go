package terrain

import "sync"

// ResultQueue collects completion callbacks from worker goroutines so the consumer
// can run them on its own goroutine. Safe for concurrent use.
type ResultQueue struct {
	mu    sync.Mutex
	items []func()
}

// Push enqueues a callback.
func (q *ResultQueue) Push(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()
}

// Len returns the number of callbacks waiting to run.
func (q *ResultQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain runs every queued callback in FIFO order on the calling goroutine and returns
// how many ran. Callbacks pushed while draining wait for the next call.
func (q *ResultQueue) Drain() int {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, fn := range items {
		fn()
	}
	return len(items)
}
