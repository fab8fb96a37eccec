package server

import (
	"fmt"
	"net"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/serializer"
	"github.com/ValentinKolb/dMux/rpc/transport"
	"github.com/ValentinKolb/dMux/rpc/transport/tcp"
	"github.com/ValentinKolb/dMux/rpc/transport/unix"
)

// evictionInterval is how often the engine drops expired keys in the background
const evictionInterval = 100 * time.Millisecond

// NewServerTransport creates the tcp or unix server transport matching the
// configured endpoint
func NewServerTransport(config common.ServerConfig, s serializer.IRPCSerializer) (transport.IRPCServerTransport, error) {
	switch kind := config.Transport.Resolve(config.Endpoint); kind {
	case common.TransportUnix:
		return unix.NewUnixServerTransport(s), nil
	case common.TransportTCP:
		return tcp.NewTCPServerTransport(s), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", kind)
	}
}

// NewRPCServer creates a new engine server
// It takes a config and the transport to listen on
//
// Usage:
//
//	t, _ := server.NewServerTransport(config, serializer.NewProtoSerializer())
//	s := server.NewRPCServer(config, t)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:    config,
		transport: transport,
		engine:    NewEngine(config),
		done:      make(chan struct{}),
	}
}

type RPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	engine    *Engine

	closeOnce sync.Once
	done      chan struct{}
}

// Engine returns the command engine behind the server
func (s *RPCServer) Engine() *Engine {
	return s.engine
}

// Serve starts the background eviction and blocks in the transport until Close is called
func (s *RPCServer) Serve() error {
	go s.evictLoop()
	return s.transport.Listen(s.config, s.engine)
}

// Addr returns the listening address, nil before Serve
func (s *RPCServer) Addr() net.Addr {
	return s.transport.Addr()
}

// Close stops accepting connections and drops all open ones
func (s *RPCServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.engine.BeginShutdown()
		close(s.done)
		err = s.transport.Close()
		Logger.Infof("RPC Server stopped")
	})
	return err
}

func (s *RPCServer) evictLoop() {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.engine.data.evictExpired()
		}
	}
}
