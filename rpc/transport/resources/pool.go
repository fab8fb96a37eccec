package resources

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dMux/lib/eventloop"
	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/serializer"
	"github.com/ValentinKolb/dMux/rpc/transport"
	"github.com/ValentinKolb/dMux/rpc/transport/base"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("resources")

// --------------------------------------------------------------------------
// Resource Pool
// --------------------------------------------------------------------------

// ResourcePool bundles the event loops shared by all channels and the
// platform capabilities used to pick a connection strategy
type ResourcePool struct {
	group        *eventloop.Group
	capabilities Capabilities
}

// NewResourcePool creates a pool with threads event loops (0 means one per CPU)
func NewResourcePool(threads int) *ResourcePool {
	caps := DetectCapabilities()
	group := eventloop.NewGroup("dmux-channel", threads)
	Logger.Infof("Resource pool with %d event loops on %s", group.Size(), caps)
	return &ResourcePool{group: group, capabilities: caps}
}

// Group returns the event loop group
func (p *ResourcePool) Group() *eventloop.Group {
	return p.group
}

// Capabilities returns the detected platform capabilities
func (p *ResourcePool) Capabilities() Capabilities {
	return p.capabilities
}

// Open dials the configured endpoint and returns a running channel handler
// bound to the next event loop of the pool
func (p *ResourcePool) Open(ctx context.Context, config common.ClientConfig, s serializer.IRPCSerializer) (transport.IChannelHandler, error) {
	connector, err := p.capabilities.SelectConnector(config.Transport, config.Endpoint)
	if err != nil {
		return nil, err
	}

	if timeout := config.ConnectTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := connector.Connect(ctx, config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Endpoint, err)
	}

	if err := connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", config.Endpoint, err)
	}

	channel := base.NewNetChannel(conn, base.ChannelOptions{
		MaxFrameSize: config.SocketConf.MaxFrameSize,
		WriteTimeout: config.RequestTimeout(),
	})

	Logger.Infof("Connected to %s using %s transport", config.Endpoint, connector.GetName())
	return base.NewChannelHandler(channel, s, p.group.Next()), nil
}

// Shutdown drains and terminates all event loops
func (p *ResourcePool) Shutdown(ctx context.Context) error {
	return p.group.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Allocator
// --------------------------------------------------------------------------

// Allocator hands out a single lazily created ResourcePool
type Allocator struct {
	mu   sync.Mutex
	pool atomic.Pointer[ResourcePool]
}

// NewAllocator creates an allocator without a pool
func NewAllocator() *Allocator {
	return &Allocator{}
}

// GetOrCreate returns the shared pool, creating it with threads event loops on first use.
// Concurrent first calls converge on the same pool; threads of later calls is ignored.
func (a *Allocator) GetOrCreate(threads int) *ResourcePool {
	if p := a.pool.Load(); p != nil {
		return p
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if p := a.pool.Load(); p != nil {
		return p
	}
	p := NewResourcePool(threads)
	a.pool.Store(p)
	return p
}

// Shutdown drains the pool if one was created. A later GetOrCreate creates a new one.
func (a *Allocator) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	p := a.pool.Swap(nil)
	a.mu.Unlock()

	if p == nil {
		return nil
	}
	Logger.Infof("Shutting down resource pool")
	return p.Shutdown(ctx)
}
