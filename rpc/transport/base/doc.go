// Package base implements the transport core independent of the concrete
// socket type (TCP, Unix sockets). Socket specific behaviour is injected
// through the IClientConnector / IServerConnector interfaces.
//
// Key Components:
//
//   - Frame codec: every message is a varint length prefix followed by exactly
//     that many payload bytes. Oversized or overflowing prefixes are reported
//     as common.ErrMalformedFrame.
//
//   - netChannel: buffered transport.IChannel on top of a net.Conn.
//
//   - channelHandler: client side multiplexer. Send allocates a callback index,
//     registers a promise in the callback table and schedules the write on the
//     handler's event loop; the dispatcher goroutine decodes responses and
//     completes the matching promise. Connection requests are registered on
//     the loop right before their write, which keeps the FIFO queue in write order.
//
//   - serverTransport: accepts connections and serves them with a
//     transport.IServerHandler. Connection requests are answered inline in
//     arrival order, command requests by a bounded worker pool per connection.
//
// Failure handling:
//
//   - Write failures fail the request whose write failed and remove it from the table.
//   - Unmatched responses are logged and dropped.
//   - Malformed frames, read errors and closing error responses shut the handler
//     down; every pending request fails with callbacks.ErrRequestCancelled
//     wrapping the cause.
//
// Metrics (VictoriaMetrics): dmux_transport_requests_sent_total,
// dmux_transport_responses_dispatched_total, dmux_transport_unmatched_responses_total,
// dmux_transport_malformed_frames_total, dmux_transport_request_duration_seconds and more.
package base
