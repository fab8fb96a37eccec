// Package resources owns the process wide transport resources: the event
// loop group every channel handler is bound to and the platform specific
// choice of connection strategy.
//
// Key Components:
//
//   - Capabilities: result of a capability query for the running platform,
//     with SelectConnector as the strategy selection (unix or tcp connector).
//
//   - ResourcePool: event loops plus capabilities; Open dials an endpoint and
//     returns a running transport.IChannelHandler.
//
//   - Allocator: explicitly owned get-or-create entry point for the pool with
//     explicit teardown. There is no package level pool.
package resources
