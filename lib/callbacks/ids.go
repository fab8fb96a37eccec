package callbacks

import "sync/atomic"

// ConnectionID is the reserved correlation ID of connection responses.
// The handshake message has no ID field, so the remote side always answers it with 0.
const ConnectionID uint32 = 0

// IDAllocator produces correlation IDs for one channel
type IDAllocator struct {
	last atomic.Uint32
}

// NewIDAllocator creates an allocator whose first ID is 1
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next correlation ID.
// IDs increase monotonically and wrap around on overflow, skipping ConnectionID.
// Uniqueness among pending requests holds as long as fewer than 2^32-1 requests are in flight.
func (a *IDAllocator) Next() uint32 {
	for {
		if id := a.last.Add(1); id != ConnectionID {
			return id
		}
	}
}
