// Package transport defines the contracts of the multiplexed transport.
//
// Key Components:
//
//   - IChannel: framed duplex byte stream (varint length prefix + payload).
//
//   - IChannelHandler: client side multiplexer. Many goroutines send requests
//     over one channel; responses are matched back by callback index, in any
//     order. Connection requests use the reserved index 0 and are matched FIFO.
//
//   - IRPCServerTransport / IServerHandler: engine side counterpart used by
//     the in-memory engine.
package transport
