package signer

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Transport moves one request frame to a signing device and returns its
// response frame. The device is an exclusive resource: implementations
// serialize concurrent exchanges.
type Transport interface {
	Exchange(ctx context.Context, payload []byte) ([]byte, error)
	Close() error
}

const maxFrameLen = 1 << 16

// TCPTransport frames exchanges over a device bridge socket with a 4-byte
// big-endian length prefix in each direction.
type TCPTransport struct {
	mu   sync.Mutex
	addr string
	conn net.Conn
}

// NewTCPTransport creates a transport for the bridge at addr. The
// connection is dialed lazily on first exchange.
func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{addr: addr}
}

// Exchange writes one frame and reads one frame. Any transport fault closes
// the connection so the next exchange redials.
func (t *TCPTransport) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", t.addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to device bridge at %s: %w", t.addr, err)
		}
		t.conn = conn
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
	} else {
		// The device may sit waiting for user confirmation; leave room.
		if err := t.conn.SetDeadline(time.Now().Add(5 * time.Minute)); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)

	if _, err := t.conn.Write(frame); err != nil {
		t.reset()
		return nil, fmt.Errorf("failed to write to device: %w", err)
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(t.conn, lenBuf[:]); err != nil {
		t.reset()
		return nil, fmt.Errorf("failed to read from device: %w", err)
	}
	respLen := binary.BigEndian.Uint32(lenBuf[:])
	if respLen > maxFrameLen {
		t.reset()
		return nil, fmt.Errorf("device response too large: %d bytes", respLen)
	}

	resp := make([]byte, respLen)
	if _, err := io.ReadFull(t.conn, resp); err != nil {
		t.reset()
		return nil, fmt.Errorf("failed to read from device: %w", err)
	}
	return resp, nil
}

// Close drops the bridge connection.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCPTransport) reset() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
