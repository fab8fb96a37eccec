package base

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/transport"
)

// ChannelOptions configure a net backed channel
type ChannelOptions struct {
	// MaxFrameSize bounds inbound frames, 0 selects common.DefaultMaxFrameSize
	MaxFrameSize int
	// BufferSize of the buffered reader and writer, 0 selects common.DefaultBufferSize
	BufferSize int
	// ReadTimeout is the maximum idle time between two frames, 0 disables it
	ReadTimeout time.Duration
	// WriteTimeout bounds a single write or flush, 0 disables it
	WriteTimeout time.Duration
}

// netChannel implements transport.IChannel on top of a net.Conn
type netChannel struct {
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	options ChannelOptions

	closeOnce sync.Once
	closeErr  error
}

// NewNetChannel wraps conn into a framed channel
func NewNetChannel(conn net.Conn, options ChannelOptions) transport.IChannel {
	if options.MaxFrameSize <= 0 {
		options.MaxFrameSize = common.DefaultMaxFrameSize
	}
	if options.BufferSize <= 0 {
		options.BufferSize = common.DefaultBufferSize
	}
	return &netChannel{
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, options.BufferSize),
		writer:  bufio.NewWriterSize(conn, options.BufferSize),
		options: options,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IChannel)
// --------------------------------------------------------------------------

func (c *netChannel) Write(payload []byte) error {
	if err := c.setWriteDeadline(); err != nil {
		return err
	}
	return writeFrame(c.writer, payload)
}

func (c *netChannel) WriteAndFlush(payload []byte) error {
	if err := c.Write(payload); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *netChannel) Flush() error {
	if err := c.setWriteDeadline(); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *netChannel) ReadFrame() ([]byte, error) {
	if c.options.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout)); err != nil {
			return nil, err
		}
	}
	return readFrame(c.reader, c.options.MaxFrameSize)
}

func (c *netChannel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *netChannel) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	if addr := c.conn.LocalAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (c *netChannel) setWriteDeadline() error {
	if c.options.WriteTimeout <= 0 {
		return nil
	}
	return c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
}
