package base

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dMux/lib/callbacks"
	"github.com/ValentinKolb/dMux/lib/eventloop"
	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/serializer"
	"github.com/ValentinKolb/dMux/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/channel")

// channelHandler implements transport.IChannelHandler.
// Writes run on the bound event loop, reads on a dedicated dispatcher goroutine.
type channelHandler struct {
	channel    transport.IChannel
	serializer serializer.IRPCSerializer
	loop       *eventloop.Loop
	table      *callbacks.Table[*common.Response]
	ids        *callbacks.IDAllocator

	connMu     sync.Mutex // orders connection registration with its write
	closing    atomic.Bool
	closeOnce  sync.Once
	closeErr   error // set before closed is closed
	closed     chan struct{}
	readerDone chan struct{}
}

// -----------------------------------------------------------
// Handler Factory Method
// -----------------------------------------------------------

// NewChannelHandler creates a handler for channel whose writes execute on loop
// and starts its dispatcher
func NewChannelHandler(channel transport.IChannel, s serializer.IRPCSerializer, loop *eventloop.Loop) transport.IChannelHandler {
	h := &channelHandler{
		channel:    channel,
		serializer: s,
		loop:       loop,
		table:      callbacks.NewTable[*common.Response](callbacks.DefaultConnectionQueueSize),
		ids:        callbacks.NewIDAllocator(),
		closed:     make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	Logger.Debugf("Channel %s bound to loop %s", channel.RemoteAddr(), loop.Name())
	go h.readLoop()
	return h
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IChannelHandler)
// --------------------------------------------------------------------------

func (h *channelHandler) Send(req *common.Request, flush bool) *transport.ResponsePromise {
	if h.closing.Load() {
		return callbacks.FailedPromise[*common.Response](0, h.closedError())
	}

	id := h.ids.Next()
	req.CallbackIdx = id

	promise := callbacks.NewPromise[*common.Response](id)
	if err := h.table.Register(id, promise); err != nil {
		if errors.Is(err, callbacks.ErrClosed) {
			return callbacks.FailedPromise[*common.Response](id, h.closedError())
		}
		idCollisions.Inc()
		Logger.Errorf("Callback table of %s rejected request %d: %v", h.channel.RemoteAddr(), id, err)
		return callbacks.FailedPromise[*common.Response](id, err)
	}

	payload, err := h.serializer.SerializeRequest(req)
	if err != nil {
		h.table.Fail(id, fmt.Errorf("failed to serialize request %d: %w", id, err))
		return promise
	}

	if !h.loop.Submit(func() { h.write(id, payload, flush) }) {
		h.table.Fail(id, h.closedError())
		return promise
	}

	requestsSent.Inc()
	Logger.Debugf("Scheduled %s request %d on %s", req.RequestType, id, h.channel.RemoteAddr())
	return promise
}

func (h *channelHandler) Connect(req *common.ConnectionRequest) *transport.ResponsePromise {
	if h.closing.Load() {
		return callbacks.FailedPromise[*common.Response](callbacks.ConnectionID, h.closedError())
	}

	payload, err := h.serializer.SerializeConnectionRequest(req)
	if err != nil {
		return callbacks.FailedPromise[*common.Response](callbacks.ConnectionID, fmt.Errorf("failed to serialize connection request: %w", err))
	}

	promise := callbacks.NewPromise[*common.Response](callbacks.ConnectionID)

	// registered before the write is queued, queue order equals write order
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if err := h.table.RegisterConnection(promise); err != nil {
		if errors.Is(err, callbacks.ErrClosed) {
			err = h.closedError()
		}
		promise.Fail(err)
		return promise
	}

	ok := h.loop.Submit(func() {
		if h.closing.Load() {
			return // already failed by shutdown
		}
		if err := h.channel.WriteAndFlush(payload); err != nil {
			writeErr := &common.WriteError{CallbackIdx: callbacks.ConnectionID, Err: err}
			promise.Fail(writeErr)
			h.writeFailed(writeErr)
		}
	})
	if !ok {
		// the loop is gone, nothing queued on this handler will be written
		h.shutdown(common.ErrChannelClosed)
		return promise
	}

	connectionRequestsSent.Inc()
	return promise
}

func (h *channelHandler) Flush() {
	h.loop.Submit(func() {
		if h.closing.Load() {
			return
		}
		if err := h.channel.Flush(); err != nil {
			h.writeFailed(&common.WriteError{Err: err})
		}
	})
}

func (h *channelHandler) Cancel(id uint32) bool {
	return h.table.Cancel(id)
}

func (h *channelHandler) Close() error {
	h.shutdown(common.ErrChannelClosed)
	<-h.readerDone
	return nil
}

func (h *channelHandler) Closed() <-chan struct{} {
	return h.closed
}

func (h *channelHandler) Err() error {
	select {
	case <-h.closed:
		return h.closeErr
	default:
		return nil
	}
}

func (h *channelHandler) Pending() int {
	return h.table.Len()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// write runs on the loop
func (h *channelHandler) write(id uint32, payload []byte, flush bool) {
	if h.closing.Load() {
		return // already failed by shutdown
	}

	var err error
	if flush {
		err = h.channel.WriteAndFlush(payload)
	} else {
		err = h.channel.Write(payload)
	}
	if err == nil {
		return
	}

	writeErr := &common.WriteError{CallbackIdx: id, Err: err}
	h.table.Fail(id, writeErr)
	h.writeFailed(writeErr)
}

// writeFailed shuts the handler down after a failed write or flush.
// Frames buffered before the failing one are lost with it and the buffered
// writer keeps returning the same error, so nothing pending can complete.
func (h *channelHandler) writeFailed(err *common.WriteError) {
	if h.closing.Load() {
		return
	}
	writeFailures.Inc()
	if err.CallbackIdx != 0 {
		Logger.Warningf("Failed to write request %d to %s: %v", err.CallbackIdx, h.channel.RemoteAddr(), err.Err)
	} else {
		Logger.Warningf("Failed to write to %s: %v", h.channel.RemoteAddr(), err.Err)
	}
	h.shutdown(err)
}

// shutdown closes the channel, then fails everything pending with cause.
// Only the first call has an effect.
func (h *channelHandler) shutdown(cause error) {
	h.closeOnce.Do(func() {
		h.closing.Store(true)
		h.closeErr = cause

		if err := h.channel.Close(); err != nil {
			Logger.Debugf("Closing %s: %v", h.channel.RemoteAddr(), err)
		}
		h.table.Shutdown(cause)

		channelsClosed.Inc()
		if errors.Is(cause, common.ErrChannelClosed) {
			Logger.Debugf("Channel %s closed", h.channel.RemoteAddr())
		} else {
			Logger.Infof("Channel %s closed: %v", h.channel.RemoteAddr(), cause)
		}
		close(h.closed)
	})
}

// closedError is the error for requests issued after shutdown started
func (h *channelHandler) closedError() error {
	select {
	case <-h.closed:
		if h.closeErr != nil && !errors.Is(h.closeErr, common.ErrChannelClosed) {
			return fmt.Errorf("%w: %w", common.ErrChannelClosed, h.closeErr)
		}
	default:
	}
	return common.ErrChannelClosed
}
