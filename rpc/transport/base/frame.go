package base

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/ValentinKolb/dMux/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// maxVarintLen is the longest valid varint encoding of a uint64
const maxVarintLen = 10

// writeFrame writes a frame with the format:
// - varint: payload length
// - N bytes: payload
func writeFrame(w io.Writer, payload []byte) error {
	header := protowire.AppendVarint(make([]byte, 0, maxVarintLen), uint64(len(payload)))

	b := net.Buffers{header, payload}
	_, err := b.WriteTo(w)
	return err
}

// readFrame reads a single frame. A clean EOF before the first byte is
// returned as io.EOF, a truncated frame as io.ErrUnexpectedEOF.
// Length prefixes that overflow or exceed maxSize wrap common.ErrMalformedFrame.
func readFrame(r *bufio.Reader, maxSize int) ([]byte, error) {
	var header [maxVarintLen]byte
	n := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		header[n] = b
		n++
		if b < 0x80 {
			break
		}
		if n == maxVarintLen {
			return nil, fmt.Errorf("%w: length prefix longer than %d bytes", common.ErrMalformedFrame, maxVarintLen)
		}
	}

	size, m := protowire.ConsumeVarint(header[:n])
	if m < 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedFrame, protowire.ParseError(m))
	}
	if maxSize > 0 && size > uint64(maxSize) {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds limit of %d", common.ErrMalformedFrame, size, maxSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
