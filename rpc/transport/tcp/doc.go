// Package tcp implements the TCP flavour of the transport. It provides the
// connectors plugged into the base package: a client connection strategy that
// dials "host:port" (optionally "tcp://host:port") endpoints and applies
// TCPConf / SocketConf options, and a listener for the engine.
package tcp
