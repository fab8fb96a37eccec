package eventloop

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestQueueBasicOperations tests basic push and pop functionality
func TestQueueBasicOperations(t *testing.T) {
	q := newTaskQueue()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if !q.push(func() { got = append(got, i) }) {
			t.Fatalf("Failed to push task %d", i)
		}
	}
	if q.len() != 10 {
		t.Errorf("Expected 10 queued tasks, got %d", q.len())
	}

	for i := 0; i < 10; i++ {
		task, ok := q.pop()
		if !ok {
			t.Fatalf("Queue reported closed at task %d", i)
		}
		task()
	}

	for i, v := range got {
		if v != i {
			t.Errorf("Expected %d at position %d, got %d", i, i, v)
		}
	}
	if q.len() != 0 {
		t.Errorf("Queue should be empty, got %d", q.len())
	}
}

// TestQueueRejectsNil verifies that a nil task is not accepted
func TestQueueRejectsNil(t *testing.T) {
	q := newTaskQueue()
	if q.push(nil) {
		t.Error("Nil task should be rejected")
	}
}

// TestQueuePopBlocksUntilPush verifies that pop parks on an empty queue and wakes on push
func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := newTaskQueue()
	popped := make(chan struct{})

	go func() {
		defer close(popped)
		if _, ok := q.pop(); !ok {
			t.Errorf("Expected a task")
		}
	}()

	select {
	case <-popped:
		t.Fatal("Pop returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	q.push(func() {})

	select {
	case <-popped:
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after push")
	}
}

// TestQueueCloseDrains verifies that queued tasks survive close and new ones are rejected
func TestQueueCloseDrains(t *testing.T) {
	q := newTaskQueue()
	for i := 0; i < 5; i++ {
		q.push(func() {})
	}
	q.close()

	if q.push(func() {}) {
		t.Error("Push after close should fail")
	}

	for i := 0; i < 5; i++ {
		if _, ok := q.pop(); !ok {
			t.Fatalf("Task %d lost on close", i)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("Drained queue should report closed")
	}
}

// TestQueueConcurrentProducers verifies per-producer ordering with many producers
func TestQueueConcurrentProducers(t *testing.T) {
	const numProducers = 10
	const itemsPerProducer = 1000

	q := newTaskQueue()
	last := make([]int, numProducers)
	for i := range last {
		last[i] = -1
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < numProducers*itemsPerProducer; i++ {
			task, ok := q.pop()
			if !ok {
				t.Errorf("Queue closed early after %d tasks", i)
				return
			}
			task()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				i := i
				q.push(func() {
					// runs on the consumer goroutine only
					if last[p] != i-1 {
						t.Errorf("Producer %d: task %d ran after %d", p, i, last[p])
					}
					last[p] = i
				})
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for consumer")
	}
}
