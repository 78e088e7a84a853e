// Package queue implements ConcurrentTaskQueue: a FIFO queue of Task
// handles guarded by one mutex and one condition variable.
package queue

import (
	"sync"
	"time"

	"github.com/alexisbeaulieu97/dagflow/internal/id"
	"github.com/alexisbeaulieu97/dagflow/internal/task"
)

// Queue is a FIFO, mapping-preserving queue of owned *task.Task handles.
//
// Ordering guarantee: if Push(a) happens-before Push(b) in the same
// goroutine, a is popped before b by any single consumer. With multiple
// consumers, a later pusher can race ahead of an earlier waiter — the
// queue guarantees FIFO on items, not on consumer fairness.
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []*task.Task
}

// New constructs an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends t and notifies one waiter.
func (q *Queue) Push(t *task.Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
	q.cond.Signal()
}

// TryPop is non-blocking; it returns the head task and true iff one was
// extracted.
func (q *Queue) TryPop() (*task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// WaitAndPop blocks until the queue is non-empty, then pops the head.
//
// Documented caveat: the caller loses the ability to cancel the wait
// externally — prefer WaitForAndPop with a timeout. Kept for API
// completeness; no internal caller uses it.
func (q *Queue) WaitAndPop() *task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	t, _ := q.popLocked()
	return t
}

// WaitForAndPop blocks up to duration for a task to become available. It
// checks the empty predicate in a loop against an absolute deadline rather
// than trusting a single wakeup, avoiding the lost-wakeup hazard a plain
// wait would have under spurious signals.
func (q *Queue) WaitForAndPop(duration time.Duration) (*task.Task, bool) {
	deadline := time.Now().Add(duration)

	q.mu.Lock()
	defer q.mu.Unlock()

	timer := time.AfterFunc(duration, q.cond.Broadcast)
	defer timer.Stop()

	for len(q.items) == 0 {
		if !time.Now().Before(deadline) {
			return nil, false
		}
		q.cond.Wait()
	}
	return q.popLocked()
}

// RemoveByID scans the queue; if a task with the given id is found it is
// removed and returned.
func (q *Queue) RemoveByID(target id.Identifier) (*task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.items {
		if t.ID().Equal(target) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return t, true
		}
	}
	return nil, false
}

// Size reports the queue's length. Advisory under concurrent mutation.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Empty reports whether the queue is currently empty. Advisory under
// concurrent mutation.
func (q *Queue) Empty() bool {
	return q.Size() == 0
}

// Clear drops every queued task.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.cond.Broadcast()
}

func (q *Queue) popLocked() (*task.Task, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}
