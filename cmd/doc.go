// Package cmd implements the command-line interface of dMux. It provides
// commands for running the in-memory engine and for talking to it as a client.
//
// The package is organized into several subpackages:
//
//   - engine: Starts the in-memory engine on a unix socket or tcp address
//   - exec: Executes a single command and prints the result
//   - bench: Concurrent load generator reporting throughput and latency
//   - util: Shared flag, configuration and connection helpers (internal use)
//
// See dmux -help for a list of all commands.
package cmd
