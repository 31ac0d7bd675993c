// internal/bus/daliserver/client.go
package daliserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/tamzrod/emcon/internal/dali"
)

// daliserver wire protocol v2.
//
// Request (4 bytes):
//   0  Version (0x02)
//   1  Type (0x00 = send frame)
//   2  Frame high byte (address)
//   3  Frame low byte (opcode / data)
//
// Response (4 bytes):
//   0  Version
//   1  Status
//   2  Backward frame value
//   3  Padding
const (
	protoVersion byte = 0x02
	typeSend     byte = 0x00

	statusNoReply byte = 0x00
	statusReply   byte = 0x01
	statusFraming byte = 0xFF
)

// Client is one TCP session to a daliserver.
// Frames are sent one at a time; the caller serializes.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Dial connects to a daliserver.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("daliserver: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("daliserver: dial: %w", err)
	}

	return &Client{conn: conn, timeout: cfg.Timeout}, nil
}

// NewClient wraps an existing connection.
func NewClient(conn net.Conn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{conn: conn, timeout: timeout}
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Send transmits one forward frame and waits for the server's verdict.
func (c *Client) Send(ctx context.Context, cmd dali.Command) (dali.Response, error) {
	if c == nil || c.conn == nil {
		return dali.NoReply, errors.New("daliserver: not connected")
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)

	req := [4]byte{protoVersion, typeSend, byte(cmd.Frame >> 8), byte(cmd.Frame)}
	if _, err := c.conn.Write(req[:]); err != nil {
		return dali.NoReply, fmt.Errorf("daliserver: write: %w", err)
	}

	var resp [4]byte
	if _, err := io.ReadFull(c.conn, resp[:]); err != nil {
		return dali.NoReply, fmt.Errorf("daliserver: read: %w", err)
	}

	if !cmd.Answer {
		return dali.NoReply, nil
	}

	switch resp[1] {
	case statusNoReply:
		return dali.NoReply, nil
	case statusReply:
		return dali.Reply(resp[2]), nil
	case statusFraming:
		return dali.Response{Framing: true}, nil
	default:
		return dali.NoReply, fmt.Errorf("daliserver: status 0x%02x", resp[1])
	}
}
