package callbacks

// ICallbackTable is the pending request table of one channel
type ICallbackTable[T any] interface {
	// Register adds a pending promise for id.
	// Returns ErrCallbackIDInUse if id is already pending and ErrClosed after Shutdown.
	Register(id uint32, p *Promise[T]) error

	// RegisterConnection appends p to the ordered queue of pending connection requests
	RegisterConnection(p *Promise[T]) error

	// Complete fulfills the promise registered for id with value and removes it.
	// id == ConnectionID completes the oldest pending connection promise.
	// Returns the completed promise, or ErrUnmatchedResponse if nothing was pending.
	Complete(id uint32, value T) (*Promise[T], error)

	// Fail fails and removes the promise registered for id.
	// Returns false if nothing was pending.
	Fail(id uint32, err error) bool

	// Cancel fails the promise registered for id with ErrRequestCancelled and removes it
	Cancel(id uint32) bool

	// Shutdown fails every pending promise (IDs and connections) and rejects
	// later registrations. Calling it more than once is a no-op.
	Shutdown(cause error)

	// Contains reports whether a promise is pending for id
	Contains(id uint32) bool

	// Len returns the number of pending promises, connections included
	Len() int
}
