package eventloop

import (
	"runtime"
	"sync/atomic"
)

// node represents a single element in the queue
type node struct {
	task Task
	next atomic.Pointer[node]
}

// taskQueue is a lock-free multi-producer single-consumer queue of tasks.
// Items pushed by the same producer are popped in push order.
type taskQueue struct {
	head   atomic.Pointer[node] // only touched by the consumer
	tail   atomic.Pointer[node]
	wake   chan struct{}
	closed atomic.Bool
	size   atomic.Int64

	// producers counts pushes in progress, pop must not report drained while one is linking
	producers atomic.Int64
}

func newTaskQueue() *taskQueue {
	// sentinel node, head always points to the last consumed node
	sentinel := &node{}
	q := &taskQueue{
		wake: make(chan struct{}, 1),
	}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// push appends a task. Returns false if the queue is closed.
func (q *taskQueue) push(task Task) bool {
	if task == nil {
		return false
	}

	q.producers.Add(1)
	defer q.producers.Add(-1)

	if q.closed.Load() {
		return false
	}

	newNode := &node{task: task}
	var backoff uint8

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already moved the tail forward
				q.tail.CompareAndSwap(tailNode, newNode)
				q.size.Add(1)
				q.signal()
				return true
			}
		} else {
			// help a producer that appended but did not move the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// spin a little at low contention, yield afterwards
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// pop removes the next task, blocking while the queue is empty.
// Returns false once the queue is closed and fully drained.
// Must only be called from the consumer goroutine.
func (q *taskQueue) pop() (Task, bool) {
	for {
		head := q.head.Load()
		if next := head.next.Load(); next != nil {
			task := next.task
			next.task = nil // help gc, next becomes the new sentinel
			q.head.Store(next)
			q.size.Add(-1)
			return task, true
		}

		if q.closed.Load() {
			// a push that passed the closed check may still be linking its node
			if q.producers.Load() == 0 && head.next.Load() == nil {
				return nil, false
			}
			runtime.Gosched()
			continue
		}

		<-q.wake
	}
}

// close stops accepting new tasks; queued tasks are still returned by pop
func (q *taskQueue) close() {
	q.closed.Store(true)
	q.signal()
}

// len returns the approximate number of queued tasks
func (q *taskQueue) len() int {
	return int(q.size.Load())
}

func (q *taskQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
