package callbacks

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultConnectionQueueSize bounds the number of handshakes pending at the same time
const DefaultConnectionQueueSize = 64

// Table implements ICallbackTable with a concurrent map for regular requests
// and a bounded FIFO queue for connection requests
type Table[T any] struct {
	requests    *xsync.MapOf[uint32, *Promise[T]]
	connections *xsync.MPMCQueueOf[*Promise[T]]
	connCount   atomic.Int64

	// mu orders registrations against Shutdown; Complete never takes it
	mu     sync.RWMutex
	closed bool
}

// NewTable creates an empty table.
// connectionQueueSize <= 0 selects DefaultConnectionQueueSize.
func NewTable[T any](connectionQueueSize int) *Table[T] {
	if connectionQueueSize <= 0 {
		connectionQueueSize = DefaultConnectionQueueSize
	}
	return &Table[T]{
		requests:    xsync.NewMapOf[uint32, *Promise[T]](),
		connections: xsync.NewMPMCQueueOf[*Promise[T]](connectionQueueSize),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see callbacks.ICallbackTable)
// --------------------------------------------------------------------------

func (t *Table[T]) Register(id uint32, p *Promise[T]) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrClosed
	}
	if id == ConnectionID {
		return fmt.Errorf("%w: %d is reserved for connection responses", ErrCallbackIDInUse, id)
	}
	if _, loaded := t.requests.LoadOrStore(id, p); loaded {
		return fmt.Errorf("%w: %d", ErrCallbackIDInUse, id)
	}
	return nil
}

func (t *Table[T]) RegisterConnection(p *Promise[T]) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrClosed
	}

	// count first so Len never underflows while Complete races with us
	t.connCount.Add(1)
	if !t.connections.TryEnqueue(p) {
		t.connCount.Add(-1)
		return ErrConnectionQueueFull
	}
	return nil
}

func (t *Table[T]) Complete(id uint32, value T) (*Promise[T], error) {
	if id == ConnectionID {
		return t.completeConnection(value)
	}

	p, ok := t.requests.LoadAndDelete(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnmatchedResponse, id)
	}
	if !p.Complete(value) {
		// already failed through another path
		return nil, fmt.Errorf("%w: %d (already completed)", ErrUnmatchedResponse, id)
	}
	return p, nil
}

func (t *Table[T]) Fail(id uint32, err error) bool {
	if id == ConnectionID {
		return false
	}
	p, ok := t.requests.LoadAndDelete(id)
	if !ok {
		return false
	}
	return p.Fail(err)
}

func (t *Table[T]) Cancel(id uint32) bool {
	return t.Fail(id, ErrRequestCancelled)
}

func (t *Table[T]) Shutdown(cause error) {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	err := ErrRequestCancelled
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrRequestCancelled, cause)
	}

	// connection queue
	for {
		p, ok := t.connections.TryDequeue()
		if !ok {
			break
		}
		t.connCount.Add(-1)
		p.Fail(err)
	}

	// id keyed requests; LoadAndDelete keeps us exclusive with concurrent Complete calls
	t.requests.Range(func(id uint32, _ *Promise[T]) bool {
		if p, ok := t.requests.LoadAndDelete(id); ok {
			p.Fail(err)
		}
		return true
	})
}

func (t *Table[T]) Contains(id uint32) bool {
	_, ok := t.requests.Load(id)
	return ok
}

func (t *Table[T]) Len() int {
	return t.requests.Size() + int(t.connCount.Load())
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// completeConnection pops connection promises in registration order until one accepts the value.
// Promises that were failed while queued are dropped on the way.
func (t *Table[T]) completeConnection(value T) (*Promise[T], error) {
	for {
		p, ok := t.connections.TryDequeue()
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnmatchedResponse, ConnectionID)
		}
		t.connCount.Add(-1)
		if p.Complete(value) {
			return p, nil
		}
	}
}
