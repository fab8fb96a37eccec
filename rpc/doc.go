// Package rpc provides the multiplexed request/response layer between dMux
// clients and the engine. Many concurrent requests share one connection and
// are matched to their responses by callback ID.
//
// The package is organized into several subpackages:
//
//   - common: Request and response structures, configuration and logging.
//
//   - serializer: Payload serialization with multiple format options (proto, JSON, GOB).
//
//   - transport: The channel handler, framing, unix and tcp connectors, the server
//     transport and the shared resource pool of event loops.
//
//   - client: The client API with timeouts, cancellation and typed errors.
//
//   - server: A small in-memory engine used by tests, benchmarks and `dmux engine`.
package rpc
