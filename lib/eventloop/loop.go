package eventloop

import (
	"fmt"
	"runtime/debug"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("eventloop")

// Task is a unit of work executed on a loop
type Task func()

// Loop is a single goroutine executing submitted tasks sequentially
type Loop struct {
	name  string
	queue *taskQueue
	done  chan struct{}
}

func newLoop(name string) *Loop {
	return &Loop{
		name:  name,
		queue: newTaskQueue(),
		done:  make(chan struct{}),
	}
}

// Name returns the name of the loop (e.g. "dmux-channel-3")
func (l *Loop) Name() string {
	return l.name
}

// Submit schedules task for execution on the loop.
// Returns false if the loop no longer accepts tasks.
func (l *Loop) Submit(task Task) bool {
	return l.queue.push(task)
}

// Pending returns the approximate number of tasks waiting to run
func (l *Loop) Pending() int {
	return l.queue.len()
}

// Done is closed after the loop has terminated
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// run executes tasks until the queue is closed and drained
func (l *Loop) run() {
	defer close(l.done)
	for {
		task, ok := l.queue.pop()
		if !ok {
			Logger.Debugf("Loop %s terminated", l.name)
			return
		}
		l.execute(task)
	}
}

// execute runs a single task, a panic must not take the loop down with it
func (l *Loop) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Task on loop %s panicked: %v\n%s", l.name, r, debug.Stack())
		}
	}()
	task()
}

// shutdown stops accepting tasks; already queued tasks still run
func (l *Loop) shutdown() {
	l.queue.close()
}

func (l *Loop) String() string {
	return fmt.Sprintf("%s (%d pending)", l.name, l.Pending())
}
