package callbacks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func awaitQuick[T any](t *testing.T, p *Promise[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	value, err := p.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Promise %d was not fulfilled", p.ID())
	}
	return value, err
}

// TestRegisterAndComplete verifies the basic round trip through the table
func TestRegisterAndComplete(t *testing.T) {
	table := NewTable[string](0)
	p := NewPromise[string](1)

	if err := table.Register(1, p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !table.Contains(1) || table.Len() != 1 {
		t.Fatalf("Table should contain id 1, len=%d", table.Len())
	}

	completed, err := table.Complete(1, "pong")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed != p {
		t.Error("Complete returned the wrong promise")
	}

	value, err := awaitQuick(t, p)
	if err != nil || value != "pong" {
		t.Errorf("Unexpected result: %q, %v", value, err)
	}
	if table.Contains(1) || table.Len() != 0 {
		t.Errorf("Entry should be removed after completion, len=%d", table.Len())
	}
}

// TestRegisterDuplicateID verifies that a duplicate ID is rejected and the first entry survives
func TestRegisterDuplicateID(t *testing.T) {
	table := NewTable[string](0)
	first := NewPromise[string](5)
	second := NewPromise[string](5)

	if err := table.Register(5, first); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := table.Register(5, second); !errors.Is(err, ErrCallbackIDInUse) {
		t.Fatalf("Expected ErrCallbackIDInUse, got %v", err)
	}
	if err := table.Register(ConnectionID, second); !errors.Is(err, ErrCallbackIDInUse) {
		t.Fatalf("Expected reserved id to be rejected, got %v", err)
	}

	if _, err := table.Complete(5, "value"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !first.IsDone() {
		t.Error("Original promise should have been completed")
	}
	if second.IsDone() {
		t.Error("Rejected promise must not be touched by the table")
	}
}

// TestCompleteTwice verifies at-most-once completion when a response is delivered twice
func TestCompleteTwice(t *testing.T) {
	table := NewTable[string](0)
	p := NewPromise[string](9)
	_ = table.Register(9, p)

	if _, err := table.Complete(9, "first"); err != nil {
		t.Fatalf("First complete failed: %v", err)
	}
	if _, err := table.Complete(9, "second"); !errors.Is(err, ErrUnmatchedResponse) {
		t.Fatalf("Expected ErrUnmatchedResponse, got %v", err)
	}

	value, _ := awaitQuick(t, p)
	if value != "first" {
		t.Errorf("Expected first value to win, got %q", value)
	}
}

// TestUnmatchedResponse verifies that an unknown ID is reported and leaves other entries alone
func TestUnmatchedResponse(t *testing.T) {
	table := NewTable[string](0)
	p := NewPromise[string](1)
	_ = table.Register(1, p)

	if _, err := table.Complete(42, "stray"); !errors.Is(err, ErrUnmatchedResponse) {
		t.Fatalf("Expected ErrUnmatchedResponse, got %v", err)
	}
	if _, err := table.Complete(ConnectionID, "stray"); !errors.Is(err, ErrUnmatchedResponse) {
		t.Fatalf("Expected ErrUnmatchedResponse for empty connection queue, got %v", err)
	}
	if p.IsDone() || !table.Contains(1) {
		t.Error("Unrelated pending entry was affected")
	}
}

// TestConnectionFIFO verifies that reserved-ID responses are matched in registration order
func TestConnectionFIFO(t *testing.T) {
	table := NewTable[string](0)
	c1 := NewPromise[string](ConnectionID)
	c2 := NewPromise[string](ConnectionID)

	if err := table.RegisterConnection(c1); err != nil {
		t.Fatalf("RegisterConnection failed: %v", err)
	}
	if err := table.RegisterConnection(c2); err != nil {
		t.Fatalf("RegisterConnection failed: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Expected len 2, got %d", table.Len())
	}

	// response content is irrelevant for matching
	_, _ = table.Complete(ConnectionID, "R1")
	_, _ = table.Complete(ConnectionID, "R2")

	if v, _ := awaitQuick(t, c1); v != "R1" {
		t.Errorf("C1 expected R1, got %q", v)
	}
	if v, _ := awaitQuick(t, c2); v != "R2" {
		t.Errorf("C2 expected R2, got %q", v)
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d", table.Len())
	}
}

// TestConnectionSkipsFailed verifies that a connection promise failed while queued
// does not swallow the next connection response
func TestConnectionSkipsFailed(t *testing.T) {
	table := NewTable[string](0)
	c1 := NewPromise[string](ConnectionID)
	c2 := NewPromise[string](ConnectionID)
	_ = table.RegisterConnection(c1)
	_ = table.RegisterConnection(c2)

	c1.Fail(errors.New("write failed"))

	if p, err := table.Complete(ConnectionID, "R"); err != nil || p != c2 {
		t.Fatalf("Expected c2 to be completed, got %v, %v", p, err)
	}
}

// TestConnectionQueueFull verifies the bound of the connection queue
func TestConnectionQueueFull(t *testing.T) {
	table := NewTable[int](2)
	_ = table.RegisterConnection(NewPromise[int](ConnectionID))
	_ = table.RegisterConnection(NewPromise[int](ConnectionID))

	if err := table.RegisterConnection(NewPromise[int](ConnectionID)); !errors.Is(err, ErrConnectionQueueFull) {
		t.Fatalf("Expected ErrConnectionQueueFull, got %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Expected len 2, got %d", table.Len())
	}
}

// TestFailAndCancel verifies that failing an entry removes it
func TestFailAndCancel(t *testing.T) {
	table := NewTable[int](0)
	p1 := NewPromise[int](1)
	p2 := NewPromise[int](2)
	_ = table.Register(1, p1)
	_ = table.Register(2, p2)

	writeErr := errors.New("broken pipe")
	if !table.Fail(1, writeErr) {
		t.Fatal("Fail should report success")
	}
	if !table.Cancel(2) {
		t.Fatal("Cancel should report success")
	}
	if table.Fail(1, writeErr) || table.Cancel(2) {
		t.Error("Second fail/cancel should be a no-op")
	}

	if _, err := awaitQuick(t, p1); !errors.Is(err, writeErr) {
		t.Errorf("Expected write error, got %v", err)
	}
	if _, err := awaitQuick(t, p2); !errors.Is(err, ErrRequestCancelled) {
		t.Errorf("Expected ErrRequestCancelled, got %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d", table.Len())
	}
}

// TestShutdownDrains verifies that Shutdown fails K requests and M connections and empties the table
func TestShutdownDrains(t *testing.T) {
	const k, m = 10, 3
	table := NewTable[int](0)

	var promises []*Promise[int]
	for id := uint32(1); id <= k; id++ {
		p := NewPromise[int](id)
		_ = table.Register(id, p)
		promises = append(promises, p)
	}
	for i := 0; i < m; i++ {
		p := NewPromise[int](ConnectionID)
		_ = table.RegisterConnection(p)
		promises = append(promises, p)
	}

	cause := errors.New("channel closed")
	table.Shutdown(cause)

	for _, p := range promises {
		if !p.IsDone() {
			t.Fatalf("Promise %d still pending after shutdown", p.ID())
		}
		_, err, _ := p.Result()
		if !errors.Is(err, ErrRequestCancelled) || !errors.Is(err, cause) {
			t.Errorf("Unexpected shutdown error: %v", err)
		}
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d", table.Len())
	}

	// idempotent and closed for business
	table.Shutdown(nil)
	if err := table.Register(100, NewPromise[int](100)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := table.RegisterConnection(NewPromise[int](ConnectionID)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

// TestShutdownEmpty verifies that shutting down an empty table is harmless
func TestShutdownEmpty(t *testing.T) {
	table := NewTable[int](0)
	table.Shutdown(nil)
	table.Shutdown(nil)
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d", table.Len())
	}
}

// TestReverseOrderCompletion allocates three IDs, completes them in reverse
// order and checks that every caller receives its own payload
func TestReverseOrderCompletion(t *testing.T) {
	table := NewTable[string](0)
	ids := NewIDAllocator()

	promises := make(map[uint32]*Promise[string])
	for i := 0; i < 3; i++ {
		id := ids.Next()
		p := NewPromise[string](id)
		if err := table.Register(id, p); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		promises[id] = p
	}
	for _, id := range []uint32{1, 2, 3} {
		if _, ok := promises[id]; !ok {
			t.Fatalf("Expected id %d to be allocated", id)
		}
	}

	for _, id := range []uint32{3, 2, 1} {
		if _, err := table.Complete(id, "payload-"+string(rune('0'+id))); err != nil {
			t.Fatalf("Complete %d failed: %v", id, err)
		}
	}

	for id, p := range promises {
		v, _ := awaitQuick(t, p)
		if want := "payload-" + string(rune('0'+id)); v != want {
			t.Errorf("Caller %d expected %q, got %q", id, want, v)
		}
	}
}

// TestConcurrentRegisterComplete hammers the table from many goroutines
func TestConcurrentRegisterComplete(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 1000

	table := NewTable[uint32](0)
	ids := NewIDAllocator()

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id := ids.Next()
				p := NewPromise[uint32](id)
				if err := table.Register(id, p); err != nil {
					t.Errorf("Register %d failed: %v", id, err)
					return
				}
				if _, err := table.Complete(id, id); err != nil {
					t.Errorf("Complete %d failed: %v", id, err)
					return
				}
				if v, _, _ := p.Result(); v != id {
					t.Errorf("Promise %d got %d", id, v)
					return
				}
			}
		}()
	}
	wg.Wait()

	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d", table.Len())
	}
}
