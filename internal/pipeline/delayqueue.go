package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DelayQueue runs each scheduled task once after a fixed delay. Tasks run on
// their own goroutines, independent of whoever scheduled them.
type DelayQueue struct {
	clock clockwork.Clock
	delay time.Duration

	mu     sync.Mutex
	timers map[uint64]clockwork.Timer
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

// NewDelayQueue creates a queue whose tasks fire delay after scheduling.
func NewDelayQueue(clock clockwork.Clock, delay time.Duration) *DelayQueue {
	return &DelayQueue{
		clock:  clock,
		delay:  delay,
		timers: make(map[uint64]clockwork.Timer),
	}
}

// Schedule queues task. It returns false once the queue has been shut down.
func (q *DelayQueue) Schedule(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	id := q.nextID
	q.nextID++
	q.wg.Add(1)
	// The callback hops to a new goroutine so a timer that fires inside
	// AfterFunc cannot contend for q.mu held here.
	q.timers[id] = q.clock.AfterFunc(q.delay, func() { go q.fire(id, task) })
	return true
}

func (q *DelayQueue) fire(id uint64, task func()) {
	defer q.wg.Done()
	q.mu.Lock()
	delete(q.timers, id)
	q.mu.Unlock()
	task()
}

// Pending returns the number of tasks whose delay has not elapsed.
func (q *DelayQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// Shutdown drops tasks that have not fired and waits for running tasks to
// finish or ctx to end. It returns the number of dropped tasks.
func (q *DelayQueue) Shutdown(ctx context.Context) (int, error) {
	q.mu.Lock()
	q.closed = true
	dropped := 0
	for id, t := range q.timers {
		if t.Stop() {
			dropped++
			delete(q.timers, id)
			q.wg.Done()
		}
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return dropped, nil
	case <-ctx.Done():
		return dropped, ctx.Err()
	}
}
