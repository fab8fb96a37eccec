package transport

import (
	"net"

	"github.com/ValentinKolb/dMux/lib/callbacks"
	"github.com/ValentinKolb/dMux/rpc/common"
)

// ResponsePromise is the completion handle returned for every request
type ResponsePromise = callbacks.Promise[*common.Response]

// --------------------------------------------------------------------------
// Channel
// --------------------------------------------------------------------------

// IChannel is a framed full duplex byte stream.
// Write, WriteAndFlush and Flush are called from one goroutine at a time,
// ReadFrame from another. Close may be called from anywhere.
type IChannel interface {
	// Write buffers a single length prefixed frame holding payload
	Write(payload []byte) error
	// WriteAndFlush writes a frame and flushes all buffered frames
	WriteAndFlush(payload []byte) error
	// Flush sends all buffered frames
	Flush() error
	// ReadFrame blocks until the next complete frame arrives and returns its payload
	ReadFrame() ([]byte, error)
	// Close closes the underlying stream, a blocked ReadFrame returns an error
	Close() error
	// RemoteAddr describes the peer for logging
	RemoteAddr() string
}

// --------------------------------------------------------------------------
// Client side
// --------------------------------------------------------------------------

// IChannelHandler multiplexes concurrent requests over a single IChannel
type IChannelHandler interface {
	// Send stamps req with a fresh callback index, registers it and schedules
	// the write. With flush == false the frame stays buffered until the next
	// flushing write or Flush. Send never waits for the response.
	Send(req *common.Request, flush bool) *ResponsePromise

	// Connect writes the connection request. Its response carries the reserved
	// callback index 0 and is matched in the order the handshakes were sent.
	Connect(req *common.ConnectionRequest) *ResponsePromise

	// Flush sends all buffered requests
	Flush()

	// Cancel fails and forgets the pending request id. Returns false if it was not pending.
	Cancel(id uint32) bool

	// Close closes the channel and fails every pending request. It is idempotent.
	Close() error

	// Closed is closed once the handler shut down, for whatever reason
	Closed() <-chan struct{}

	// Err returns the reason the handler shut down, nil while it is open
	Err() error

	// Pending returns the number of requests waiting for a response
	Pending() int
}

// --------------------------------------------------------------------------
// Server side
// --------------------------------------------------------------------------

// IServerHandler executes decoded requests on behalf of a server transport
type IServerHandler interface {
	// HandleConnection answers a connection request. Connection requests of a
	// single connection are handled one after another in arrival order.
	HandleConnection(req *common.ConnectionRequest) *common.Response
	// Handle executes a command request. Calls may run concurrently and
	// complete in any order.
	Handle(req *common.Request) *common.Response
}

// IRPCServerTransport accepts connections and serves them with an IServerHandler
type IRPCServerTransport interface {
	// Listen binds the endpoint and serves connections until Close is called.
	// It returns nil after Close.
	Listen(config common.ServerConfig, handler IServerHandler) error
	// Close stops accepting and closes all active connections
	Close() error
	// Addr returns the bound address once Listen is serving, nil before
	Addr() net.Addr
}
