package client

import (
	"context"

	"github.com/ValentinKolb/dMux/rpc/common"
)

// IClient executes commands against the engine over a single multiplexed connection.
// All methods are safe for concurrent use.
type IClient interface {
	// Execute sends one command and waits for its result.
	// A value response yields its bytes, OK yields "OK" and a none response yields nil.
	// The configured request timeout applies on top of ctx.
	Execute(ctx context.Context, requestType common.RequestType, args ...[]byte) ([]byte, error)

	// ExecuteAsync sends one command and returns immediately. The write is flushed right away.
	ExecuteAsync(requestType common.RequestType, args ...[]byte) *Call

	// ExecuteBatch writes all commands, flushes once and waits for every result.
	// The results are in the order of cmds, regardless of the order the engine answered in.
	ExecuteBatch(ctx context.Context, cmds []Command) []Result

	// Pending returns the number of requests still waiting for a response
	Pending() int

	// Close fails every pending request and closes the connection
	Close() error
}

// Command is a single command of a batch
type Command struct {
	Type common.RequestType
	Args [][]byte
}

// Result is the outcome of a single command of a batch
type Result struct {
	Value []byte
	Err   error
}

// Args converts string arguments into the byte form used on the wire
func Args(args ...string) [][]byte {
	out := make([][]byte, len(args))
	for i, arg := range args {
		out[i] = []byte(arg)
	}
	return out
}
