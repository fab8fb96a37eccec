package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/serializer"
	"github.com/ValentinKolb/dMux/rpc/transport"
	"github.com/ValentinKolb/dMux/rpc/transport/resources"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc/client")

var okValue = []byte("OK")

// Dial opens a connection through the pool and performs the connection handshake.
// The handshake is bounded by the configured connect timeout and by ctx.
//
// Usage:
//
//	pool := allocator.GetOrCreate(config.ThreadPoolSize)
//	c, err := client.Dial(ctx, pool, config, serializer.NewProtoSerializer())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	value, err := c.Execute(ctx, common.ReqTGet, []byte("key"))
func Dial(
	ctx context.Context,
	pool *resources.ResourcePool,
	config common.ClientConfig,
	s serializer.IRPCSerializer,
) (IClient, error) {
	handler, err := pool.Open(ctx, config, s)
	if err != nil {
		return nil, &DisconnectError{Msg: fmt.Sprintf("failed to open connection: %v", err), Err: err}
	}

	if err := handshake(ctx, handler, config); err != nil {
		handler.Close()
		return nil, err
	}

	Logger.Infof("Client connected to %s", config.Endpoint)
	return &rpcClient{
		config:  config,
		handler: handler,
		timeout: config.RequestTimeout(),
	}, nil
}

type rpcClient struct {
	config  common.ClientConfig
	handler transport.IChannelHandler
	timeout time.Duration
	closed  atomic.Bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IClient)
// --------------------------------------------------------------------------

func (c *rpcClient) Execute(ctx context.Context, requestType common.RequestType, args ...[]byte) ([]byte, error) {
	return c.ExecuteAsync(requestType, args...).Wait(ctx)
}

func (c *rpcClient) ExecuteAsync(requestType common.RequestType, args ...[]byte) *Call {
	return c.send(requestType, args, true)
}

func (c *rpcClient) ExecuteBatch(ctx context.Context, cmds []Command) []Result {
	calls := make([]*Call, len(cmds))
	for i, cmd := range cmds {
		calls[i] = c.send(cmd.Type, cmd.Args, false)
	}
	c.handler.Flush()

	results := make([]Result, len(cmds))
	for i, call := range calls {
		results[i].Value, results[i].Err = call.Wait(ctx)
	}
	return results
}

func (c *rpcClient) Pending() int {
	return c.handler.Pending()
}

func (c *rpcClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	Logger.Infof("Closing client for %s", c.config.Endpoint)
	return c.handler.Close()
}

// --------------------------------------------------------------------------
// Call
// --------------------------------------------------------------------------

// Call is a command in flight
type Call struct {
	client   *rpcClient
	promise  *transport.ResponsePromise
	deadline time.Time
}

// ID returns the callback ID the command was sent with
func (c *Call) ID() uint32 {
	return c.promise.ID()
}

// Done is closed once the response (or a failure) arrived
func (c *Call) Done() <-chan struct{} {
	return c.promise.Done()
}

// Wait blocks until the result is available, the request timeout expired or ctx is done.
// On timeout or cancellation the request is cancelled so a late response is dropped.
func (c *Call) Wait(ctx context.Context) ([]byte, error) {
	if !c.deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, c.deadline)
		defer cancel()
	}

	resp, err := c.promise.Await(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// a response delivered at the same time wins over the deadline
			if resp, err, ok := c.promise.Result(); ok {
				return c.mapResult(resp, err)
			}
			if !c.client.handler.Cancel(c.promise.ID()) {
				if resp, err, ok := c.promise.Result(); ok {
					return c.mapResult(resp, err)
				}
			}
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				Logger.Debugf("Request %d timed out", c.promise.ID())
				return nil, &TimeoutError{Msg: fmt.Sprintf("request %d timed out", c.promise.ID())}
			}
			return nil, ctxErr
		}
		return nil, fromTransportError(err)
	}
	return c.client.mapResponse(resp)
}

func (c *Call) mapResult(resp *common.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, fromTransportError(err)
	}
	return c.client.mapResponse(resp)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (c *rpcClient) send(requestType common.RequestType, args [][]byte, flush bool) *Call {
	call := &Call{
		client: c,
		promise: c.handler.Send(&common.Request{
			RequestType: requestType,
			Args:        args,
		}, flush),
	}
	if c.timeout > 0 {
		call.deadline = time.Now().Add(c.timeout)
	}
	return call
}

func (c *rpcClient) mapResponse(resp *common.Response) ([]byte, error) {
	switch resp.Kind {
	case common.ResultValue:
		return resp.Value, nil
	case common.ResultOK:
		return okValue, nil
	case common.ResultNone:
		return nil, nil
	case common.ResultRequestError:
		return nil, fromRequestError(resp.RequestError)
	case common.ResultClosingError:
		Logger.Warningf("Engine %s is closing: %s", c.config.Endpoint, resp.ClosingError)
		c.Close()
		return nil, &ClosingError{Msg: resp.ClosingError}
	default:
		return nil, fmt.Errorf("unexpected response kind %s", resp.Kind)
	}
}

// handshake sends the connection request and maps its response
func handshake(ctx context.Context, handler transport.IChannelHandler, config common.ClientConfig) error {
	if timeout := config.ConnectTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := handler.Connect(config.ToConnectionRequest()).Await(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Msg: fmt.Sprintf("connection handshake with %s timed out", config.Endpoint)}
	case err != nil:
		return fromTransportError(err)
	}

	switch resp.Kind {
	case common.ResultOK:
		return nil
	case common.ResultRequestError:
		msg := "connection refused"
		if resp.RequestError != nil {
			msg = resp.RequestError.Message
		}
		return &ClosingError{Msg: fmt.Sprintf("connection handshake failed: %s", msg)}
	case common.ResultClosingError:
		return &ClosingError{Msg: fmt.Sprintf("connection handshake failed: %s", resp.ClosingError)}
	default:
		return &ClosingError{Msg: fmt.Sprintf("unexpected connection response %s", resp.Kind)}
	}
}
