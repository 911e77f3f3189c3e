package habits

import (
	"context"
	"slices"
	"sync"
)

// keyedQueue runs callers holding the same key one at a time, in arrival
// order. The head waiter's channel is always closed.
type keyedQueue struct {
	mu      sync.Mutex
	waiters map[string][]chan struct{}
}

func newKeyedQueue() *keyedQueue {
	return &keyedQueue{waiters: make(map[string][]chan struct{})}
}

// acquire blocks until every earlier holder of key has released it. The
// returned func must be called exactly once. If ctx ends first the caller
// leaves the queue and gets ctx.Err().
func (q *keyedQueue) acquire(ctx context.Context, key string) (func(), error) {
	ch := make(chan struct{})

	q.mu.Lock()
	queued := q.waiters[key]
	q.waiters[key] = append(queued, ch)
	if len(queued) == 0 {
		close(ch)
	}
	q.mu.Unlock()

	select {
	case <-ch:
		return func() { q.release(key, ch) }, nil
	case <-ctx.Done():
	}

	q.mu.Lock()
	select {
	case <-ch:
		// Became head while giving up; pass the turn on.
		q.mu.Unlock()
		q.release(key, ch)
		return nil, ctx.Err()
	default:
	}
	list := q.waiters[key]
	if i := slices.Index(list, ch); i >= 0 {
		q.waiters[key] = slices.Delete(list, i, i+1)
	}
	q.mu.Unlock()
	return nil, ctx.Err()
}

func (q *keyedQueue) release(key string, ch chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.waiters[key]
	i := slices.Index(list, ch)
	if i < 0 {
		return
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(q.waiters, key)
		return
	}
	q.waiters[key] = list
	if i == 0 {
		close(list[0])
	}
}

// pending reports how many callers hold or wait for key.
func (q *keyedQueue) pending(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters[key])
}
