// Package callbacks provides the bookkeeping needed to multiplex many concurrent requests
// over a single ordered byte stream and route every response back to its caller.
//
// The package focuses on:
//   - Allocation of unique correlation IDs for in-flight requests
//   - A thread-safe table mapping correlation IDs to pending promises
//   - A strictly ordered queue for connection handshakes, which carry no ID on the wire
//   - Draining all outstanding promises when the underlying stream goes away
//
// Key Components:
//
//   - IDAllocator: Hands out uint32 correlation IDs starting at 1. The counter wraps on
//     overflow and never returns the reserved ConnectionID (0).
//
//   - Promise: A completion handle that is fulfilled exactly once, either with a value or
//     with an error. Callers block on Await (context aware) or select on Done.
//
//   - ICallbackTable / Table: The pending request table. Register and RegisterConnection are
//     called from caller goroutines, Complete from the stream reader. Shutdown fails every
//     pending promise and rejects later registrations.
//
// Connection Responses:
//
//	Responses carrying the reserved ID 0 are matched to connection promises strictly in the
//	order the promises were registered. If the remote side ever answered handshakes out of
//	order this would go undetected. Promises that were already failed while waiting in the
//	queue (e.g. because their write failed) are skipped when matching.
//
// Thread Safety:
//
//	All exported methods are safe for concurrent use. The ID map and the connection queue are
//	independent structures and never require a lock spanning both.
package callbacks
