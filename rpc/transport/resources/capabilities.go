package resources

import (
	"fmt"
	"runtime"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/transport/base"
	"github.com/ValentinKolb/dMux/rpc/transport/tcp"
	"github.com/ValentinKolb/dMux/rpc/transport/unix"
)

// Capabilities describes the I/O facilities of the host
type Capabilities struct {
	OS          string
	Poller      string // readiness backend the Go runtime uses on this OS
	UnixSockets bool
	TCP         bool
}

// pollers maps OS families to the readiness backend of the runtime netpoller
var pollers = map[string]string{
	"linux":     "epoll",
	"android":   "epoll",
	"darwin":    "kqueue",
	"ios":       "kqueue",
	"freebsd":   "kqueue",
	"netbsd":    "kqueue",
	"openbsd":   "kqueue",
	"dragonfly": "kqueue",
	"windows":   "iocp",
	"solaris":   "event ports",
	"illumos":   "event ports",
	"aix":       "pollset",
}

// DetectCapabilities queries the capabilities of the running platform
func DetectCapabilities() Capabilities {
	return capabilitiesFor(runtime.GOOS)
}

func capabilitiesFor(goos string) Capabilities {
	poller, ok := pollers[goos]
	if !ok {
		poller = "poll"
	}
	return Capabilities{
		OS:     goos,
		Poller: poller,
		// AF_UNIX is missing on plan9, js and wasip1
		UnixSockets: goos != "plan9" && goos != "js" && goos != "wasip1",
		TCP:         goos != "js" && goos != "wasip1",
	}
}

// SelectConnector picks the connection strategy for endpoint.
// With common.TransportAuto the strategy is derived from the endpoint form.
func (c Capabilities) SelectConnector(kind common.TransportKind, endpoint string) (base.IClientConnector, error) {
	switch kind.Resolve(endpoint) {
	case common.TransportUnix:
		if !c.UnixSockets {
			return nil, fmt.Errorf("unix sockets are not supported on %s", c.OS)
		}
		return unix.NewClientConnector(), nil
	case common.TransportTCP:
		if !c.TCP {
			return nil, fmt.Errorf("tcp is not supported on %s", c.OS)
		}
		return tcp.NewClientConnector(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q, must be one of auto, unix, tcp", kind)
	}
}

func (c Capabilities) String() string {
	return fmt.Sprintf("%s/%s (unix sockets: %t, tcp: %t)", c.OS, c.Poller, c.UnixSockets, c.TCP)
}
