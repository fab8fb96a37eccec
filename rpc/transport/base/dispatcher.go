package base

import (
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/dMux/rpc/common"
)

// readLoop receives frames until the channel fails or is closed.
// Every frame is decoded and dispatched before the next one is read.
func (h *channelHandler) readLoop() {
	defer close(h.readerDone)

	for {
		frame, err := h.channel.ReadFrame()
		if err != nil {
			h.readFailed(err)
			return
		}

		if err := h.dispatch(frame); err != nil {
			malformedFrames.Inc()
			Logger.Errorf("Dropping channel %s: %v", h.channel.RemoteAddr(), err)
			h.shutdown(err)
			return
		}
	}
}

// dispatch decodes one frame and completes the matching promise.
// Only decode failures are returned; the stream can't be trusted after those.
func (h *channelHandler) dispatch(frame []byte) error {
	resp := &common.Response{}
	if err := h.serializer.DeserializeResponse(frame, resp); err != nil {
		return fmt.Errorf("%w: %w", common.ErrMalformedFrame, err)
	}

	promise, err := h.table.Complete(resp.CallbackIdx, resp)
	if err != nil {
		// the caller may have given up on the request already
		unmatchedResponses.Inc()
		Logger.Warningf("Dropping response %s from %s: %v", resp, h.channel.RemoteAddr(), err)
	} else {
		responsesDispatched.Inc()
		requestDuration.Update(promise.Age().Seconds())
	}

	if resp.Kind == common.ResultClosingError {
		h.shutdown(fmt.Errorf("%w: engine is closing: %s", common.ErrConnectionLost, resp.ClosingError))
	}
	return nil
}

// readFailed classifies a read error and shuts the handler down
func (h *channelHandler) readFailed(err error) {
	if h.closing.Load() {
		return
	}

	switch {
	case errors.Is(err, common.ErrMalformedFrame):
		malformedFrames.Inc()
		Logger.Errorf("Dropping channel %s: %v", h.channel.RemoteAddr(), err)
		h.shutdown(err)
	case errors.Is(err, io.EOF):
		h.shutdown(fmt.Errorf("%w: closed by peer", common.ErrConnectionLost))
	default:
		h.shutdown(fmt.Errorf("%w: %w", common.ErrConnectionLost, err))
	}
}
