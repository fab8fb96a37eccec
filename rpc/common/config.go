package common

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// --------------------------------------------------------------------------
// Shared transport settings
// --------------------------------------------------------------------------

// TransportKind names the connection strategy of a client or server
type TransportKind string

const (
	TransportAuto TransportKind = "auto" // derive from the endpoint form
	TransportUnix TransportKind = "unix"
	TransportTCP  TransportKind = "tcp"
)

// Resolve replaces TransportAuto (or an empty kind) with the transport derived
// from the endpoint form: unix:// and file paths select unix sockets, everything else tcp
func (k TransportKind) Resolve(endpoint string) TransportKind {
	if k != "" && k != TransportAuto {
		return k
	}
	switch {
	case strings.HasPrefix(endpoint, "unix://"):
		return TransportUnix
	case strings.HasPrefix(endpoint, "tcp://"):
		return TransportTCP
	case filepath.IsAbs(endpoint), strings.HasPrefix(endpoint, "."), strings.HasSuffix(endpoint, ".sock"):
		return TransportUnix
	default:
		return TransportTCP
	}
}

const (
	// DefaultMaxFrameSize bounds a single inbound frame (16 MiB)
	DefaultMaxFrameSize = 16 * 1024 * 1024
	// DefaultBufferSize is the size of the buffered reader/writer of a channel
	DefaultBufferSize = 64 * 1024
)

// SocketConf holds options valid for every stream socket
type SocketConf struct {
	WriteBufferSize int `yaml:"write_buffer_size"`
	ReadBufferSize  int `yaml:"read_buffer_size"`
	MaxFrameSize    int `yaml:"max_frame_size"`
}

// TCPConf holds options applied to TCP connections only
type TCPConf struct {
	TCPNoDelay      bool `yaml:"no_delay"`
	TCPKeepAliveSec int  `yaml:"keep_alive_sec"`
	TCPLingerSec    int  `yaml:"linger_sec"`
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig configures a client connection to the engine
type ClientConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Transport TransportKind `yaml:"transport"`

	// TimeoutSecond is the per-request response timeout, 0 disables it
	TimeoutSecond int `yaml:"timeout_sec"`
	// ConnectTimeoutSecond bounds dialing and the connection handshake
	ConnectTimeoutSecond int `yaml:"connect_timeout_sec"`
	// ThreadPoolSize is the number of event loops, 0 means one per CPU
	ThreadPoolSize int `yaml:"thread_pool_size"`

	SocketConf SocketConf `yaml:"socket"`
	TCPConf    TCPConf    `yaml:"tcp"`

	// connection request settings
	Username        string `yaml:"username,omitempty"`
	Password        string `yaml:"password,omitempty"`
	DatabaseID      uint32 `yaml:"database_id"`
	ClientName      string `yaml:"client_name,omitempty"`
	ReadFromReplica bool   `yaml:"read_from_replica"`

	LogLevel string `yaml:"log_level"`
}

// DefaultClientConfig returns a configuration for a local engine socket
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:             "/tmp/dmux.sock",
		Transport:            TransportAuto,
		TimeoutSecond:        5,
		ConnectTimeoutSecond: 5,
		SocketConf: SocketConf{
			WriteBufferSize: DefaultBufferSize,
			ReadBufferSize:  DefaultBufferSize,
			MaxFrameSize:    DefaultMaxFrameSize,
		},
		TCPConf: TCPConf{
			TCPNoDelay:      true,
			TCPKeepAliveSec: 30,
			TCPLingerSec:    -1,
		},
		LogLevel: "info",
	}
}

// RequestTimeout returns the per-request timeout, 0 if disabled
func (c *ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// ConnectTimeout returns the timeout for dialing and handshake, 0 if disabled
func (c *ClientConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSecond) * time.Second
}

// ToConnectionRequest builds the handshake payload announced to the engine
func (c *ClientConfig) ToConnectionRequest() *ConnectionRequest {
	req := &ConnectionRequest{
		Addresses:             []AddressInfo{endpointAddress(c.Endpoint)},
		TLSMode:               TLSModeNone,
		ResponseTimeout:       uint32(c.RequestTimeout().Milliseconds()),
		ClientCreationTimeout: uint32(c.ConnectTimeout().Milliseconds()),
		ReadFrom:              ReadFromPrimary,
		Username:              c.Username,
		Password:              c.Password,
		DatabaseID:            c.DatabaseID,
		ClientName:            c.ClientName,
	}
	if c.ReadFromReplica {
		req.ReadFrom = ReadFromPreferReplica
	}
	return req
}

// YAML renders the configuration as a yaml document
func (c *ClientConfig) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// LoadClientConfig reads a yaml config file on top of DefaultClientConfig
func LoadClientConfig(path string) (ClientConfig, error) {
	config := DefaultClientConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Transport", string(c.Transport))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Connect Timeout", fmt.Sprintf("%d sec", c.ConnectTimeoutSecond))
	addField("Thread Pool Size", threadPoolString(c.ThreadPoolSize))

	addSection("Socket")
	addField("Write Buffer", strconv.Itoa(c.SocketConf.WriteBufferSize))
	addField("Read Buffer", strconv.Itoa(c.SocketConf.ReadBufferSize))
	addField("Max Frame Size", strconv.Itoa(c.SocketConf.MaxFrameSize))
	addField("TCP No Delay", strconv.FormatBool(c.TCPConf.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.TCPConf.TCPKeepAliveSec))

	addSection("Connection")
	addField("Client Name", c.ClientName)
	addField("Username", c.Username)
	addField("Password", maskSecret(c.Password))
	addField("Database", strconv.FormatUint(uint64(c.DatabaseID), 10))
	addField("Read From Replica", strconv.FormatBool(c.ReadFromReplica))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Engine (server) configuration struct
// --------------------------------------------------------------------------

// ServerConfig configures the in-memory engine
type ServerConfig struct {
	Endpoint  string
	Transport TransportKind

	// TimeoutSecond is the idle read timeout per connection, 0 disables it
	TimeoutSecond int
	// WorkersPerConn bounds the concurrently executing commands of one connection
	WorkersPerConn int

	SocketConf SocketConf
	TCPConf    TCPConf

	// Password required in connection requests, empty accepts every client
	Password string

	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Engine")
	addField("Endpoint", c.Endpoint)
	addField("Transport", string(c.Transport))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.WorkersPerConn))
	addField("Max Frame Size", strconv.Itoa(c.SocketConf.MaxFrameSize))
	addField("Password", maskSecret(c.Password))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// endpointAddress turns an endpoint into the address announced in the handshake.
// Socket paths are announced as host with port 0.
func endpointAddress(endpoint string) AddressInfo {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(endpoint, "tcp://"), "unix://")
	host, port, err := net.SplitHostPort(trimmed)
	if err != nil {
		return AddressInfo{Host: trimmed}
	}
	p, err := strconv.ParseUint(port, 10, 32)
	if err != nil {
		return AddressInfo{Host: trimmed}
	}
	return AddressInfo{Host: host, Port: uint32(p)}
}

func threadPoolString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func maskSecret(s string) string {
	if s == "" {
		return "-"
	}
	return "****"
}
