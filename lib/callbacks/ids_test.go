package callbacks

import (
	"math"
	"sync"
	"testing"
)

// TestIDAllocatorSequence verifies that IDs start at 1 and increase by one
func TestIDAllocatorSequence(t *testing.T) {
	a := NewIDAllocator()
	for want := uint32(1); want <= 100; want++ {
		if got := a.Next(); got != want {
			t.Fatalf("Expected id %d, got %d", want, got)
		}
	}
}

// TestIDAllocatorWrapSkipsConnectionID verifies that the counter wraps past the maximum
// without ever returning the reserved connection ID
func TestIDAllocatorWrapSkipsConnectionID(t *testing.T) {
	a := NewIDAllocator()
	a.last.Store(math.MaxUint32 - 1)

	expected := []uint32{math.MaxUint32, 1, 2}
	for i, want := range expected {
		got := a.Next()
		if got == ConnectionID {
			t.Fatalf("Allocator returned reserved id at step %d", i)
		}
		if got != want {
			t.Errorf("Step %d: expected %d, got %d", i, want, got)
		}
	}
}

// TestIDAllocatorConcurrentUniqueness verifies that concurrent callers never receive the same ID
func TestIDAllocatorConcurrentUniqueness(t *testing.T) {
	const goroutines = 16
	const perGoroutine = 5000

	a := NewIDAllocator()
	results := make([][]uint32, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			ids := make([]uint32, perGoroutine)
			for i := range ids {
				ids[i] = a.Next()
			}
			results[g] = ids
		}(g)
	}
	wg.Wait()

	seen := make(map[uint32]struct{}, goroutines*perGoroutine)
	for _, ids := range results {
		prev := uint32(0)
		for _, id := range ids {
			if id <= prev {
				t.Fatalf("IDs not increasing within a goroutine: %d after %d", id, prev)
			}
			prev = id
			if _, dup := seen[id]; dup {
				t.Fatalf("Duplicate id %d", id)
			}
			seen[id] = struct{}{}
		}
	}
	if len(seen) != goroutines*perGoroutine {
		t.Errorf("Expected %d ids, got %d", goroutines*perGoroutine, len(seen))
	}
}
