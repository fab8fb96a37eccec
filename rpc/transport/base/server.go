package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/serializer"
	"github.com/ValentinKolb/dMux/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var ServerLogger = logger.GetLogger("transport/server")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	serializer serializer.IRPCSerializer
	handler    transport.IServerHandler
	config     common.ServerConfig

	listener atomic.Pointer[net.Listener]
	conns    *xsync.MapOf[net.Conn, struct{}]
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with per-connection worker pool
func NewBaseServerTransport(connector IServerConnector, s serializer.IRPCSerializer) transport.IRPCServerTransport {
	return &serverTransport{
		connector:  connector,
		serializer: s,
		conns:      xsync.NewMapOf[net.Conn, struct{}](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) Listen(config common.ServerConfig, handler transport.IServerHandler) error {
	t.config = config
	t.handler = handler

	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	t.listener.Store(&listener)
	if t.closed.Load() {
		listener.Close()
		return nil
	}

	ServerLogger.Infof("Starting %s server on %s with %d workers per connection",
		t.connector.GetName(), listener.Addr(), t.workersPerConn())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				t.wg.Wait()
				return nil
			}
			ServerLogger.Errorf("Accept error: %v", err)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			ServerLogger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		t.conns.Store(conn, struct{}{})
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			defer t.conns.Delete(conn)
			t.handleConnection(conn)
		}()
	}
}

func (t *serverTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if l := t.listener.Load(); l != nil {
		err = (*l).Close()
	}
	t.conns.Range(func(conn net.Conn, _ struct{}) bool {
		conn.Close()
		return true
	})
	return err
}

func (t *serverTransport) Addr() net.Addr {
	if l := t.listener.Load(); l != nil {
		return (*l).Addr()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) workersPerConn() int {
	return max(t.config.WorkersPerConn, 1)
}

// handleConnection serves one connection. Connection requests run inline in
// arrival order, command requests on a bounded set of workers.
func (t *serverTransport) handleConnection(conn net.Conn) {
	channel := NewNetChannel(conn, ChannelOptions{
		MaxFrameSize: t.config.SocketConf.MaxFrameSize,
		ReadTimeout:  time.Duration(t.config.TimeoutSecond) * time.Second,
		WriteTimeout: time.Duration(t.config.TimeoutSecond) * time.Second,
	})
	defer channel.Close()

	// counting semaphore limiting concurrent workers of this connection
	workerSemaphore := make(chan struct{}, t.workersPerConn())
	var wg sync.WaitGroup

	// responses of concurrent workers share the channel
	var writeMu sync.Mutex
	respond := func(resp *common.Response) {
		payload, err := t.serializer.SerializeResponse(resp)
		if err != nil {
			ServerLogger.Errorf("Failed to serialize response %s: %v", resp, err)
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := channel.WriteAndFlush(payload); err != nil {
			ServerLogger.Debugf("Failed to write response %s: %v", resp, err)
		}
	}

	for {
		frame, err := channel.ReadFrame()
		if errors.Is(err, io.EOF) {
			ServerLogger.Debugf("Connection closed by client")
			break
		}
		if err != nil {
			if !t.closed.Load() {
				ServerLogger.Warningf("Error reading from %s: %v", channel.RemoteAddr(), err)
			}
			break
		}

		req, connReq, err := serializer.DecodeInbound(t.serializer, frame)
		if err != nil {
			ServerLogger.Errorf("Malformed request from %s: %v", channel.RemoteAddr(), err)
			respond(common.NewClosingErrorResponse(common.ConnectionIdx, "malformed request"))
			break
		}

		if connReq != nil {
			respond(t.handler.HandleConnection(connReq))
			continue
		}

		workerSemaphore <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-workerSemaphore
				wg.Done()
			}()
			start := time.Now()
			resp := t.handler.Handle(req)
			ServerLogger.Debugf("Processed %s request %d in %s", req.RequestType, req.CallbackIdx, time.Since(start))
			respond(resp)
		}()
	}

	// finish in-flight work before the connection is closed
	wg.Wait()
}
