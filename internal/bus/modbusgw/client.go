// internal/bus/modbusgw/client.go
package modbusgw

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/emcon/internal/dali"
)

// DALI gateway register map (defaults).
//
// Holding registers at Forward:
//   +0  forward frame
//   +1  flags (bit0 = backward frame expected)
//   +2  sequence number; writing it starts transmission
//
// Input registers at Reply:
//   +0  sequence number of the last completed transmission
//   +1  status (0 = no reply, 1 = reply, 2 = framing error, other = bus fault)
//   +2  backward frame value
const (
	DefaultForward uint16 = 0
	DefaultReply   uint16 = 0

	forwardQty uint16 = 3
	replyQty   uint16 = 3

	flagAnswer uint16 = 0x0001

	statusNoReply uint16 = 0
	statusReply   uint16 = 1
	statusFraming uint16 = 2

	pollEvery = 5 * time.Millisecond
)

// registers is the subset of modbus.Client the gateway needs.
type registers interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// handlerWithConn exposes Connect/Close used for lifecycle.
type handlerWithConn interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

type Config struct {
	// TCP
	Endpoint string

	// RTU
	SerialPort string
	BaudRate   int
	DataBits   int
	StopBits   int
	Parity     string

	UnitID  uint8
	Timeout time.Duration

	Forward uint16
	Reply   uint16
}

// Client drives one DALI gateway over Modbus.
type Client struct {
	handler handlerWithConn
	regs    registers
	cfg     Config
	seq     uint16
}

// Dial connects to the gateway over TCP, or RTU when SerialPort is set.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	h, err := newHandler(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("dali gateway: connect: %w", err)
	}

	c, err := newSession(modbus.NewClient(h), cfg)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	c.handler = h
	return c, nil
}

func newHandler(cfg Config) (handlerWithConn, error) {
	if strings.TrimSpace(cfg.SerialPort) != "" {
		h := modbus.NewRTUClientHandler(cfg.SerialPort)
		if cfg.BaudRate > 0 {
			h.BaudRate = cfg.BaudRate
		}
		if cfg.DataBits > 0 {
			h.DataBits = cfg.DataBits
		}
		if cfg.StopBits > 0 {
			h.StopBits = cfg.StopBits
		}
		if p := strings.ToUpper(strings.TrimSpace(cfg.Parity)); p != "" {
			h.Parity = p
		}
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		return h, nil
	}

	if cfg.Endpoint == "" {
		return nil, errors.New("dali gateway: endpoint or serial port required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID
	return h, nil
}

func newClient(regs registers, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Client{regs: regs, cfg: cfg}
}

// newSession builds a client whose numbering continues after the last
// transmission the gateway saw. The gateway keeps its registers between
// connections, so restarting at 1 could match a stale acknowledgement.
func newSession(regs registers, cfg Config) (*Client, error) {
	c := newClient(regs, cfg)
	if err := c.resync(); err != nil {
		return nil, err
	}
	return c, nil
}

// resync takes the sequence number from the forward block, which holds the
// last one requested even if it never completed. Gateways that do not
// expose it for reading fall back to the last acknowledged one.
func (c *Client) resync() error {
	if raw, err := c.regs.ReadHoldingRegisters(c.cfg.Forward, forwardQty); err == nil {
		if regs := unpackRegisters(raw); len(regs) >= int(forwardQty) {
			c.seq = regs[2]
			return nil
		}
	}

	raw, err := c.regs.ReadInputRegisters(c.cfg.Reply, replyQty)
	if err != nil {
		return fmt.Errorf("dali gateway: read reply: %w", err)
	}
	regs := unpackRegisters(raw)
	if len(regs) < int(replyQty) {
		return errors.New("dali gateway: short reply block")
	}
	c.seq = regs[0]
	return nil
}

// Close closes the Modbus connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// Send hands one forward frame to the gateway and waits for completion.
func (c *Client) Send(ctx context.Context, cmd dali.Command) (dali.Response, error) {
	c.seq++
	if c.seq == 0 {
		c.seq = 1
	}

	var flags uint16
	if cmd.Answer {
		flags |= flagAnswer
	}

	payload := packRegisters([]uint16{cmd.Frame, flags, c.seq})
	if _, err := c.regs.WriteMultipleRegisters(c.cfg.Forward, forwardQty, payload); err != nil {
		return dali.NoReply, fmt.Errorf("dali gateway: write forward frame: %w", err)
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	for {
		raw, err := c.regs.ReadInputRegisters(c.cfg.Reply, replyQty)
		if err != nil {
			return dali.NoReply, fmt.Errorf("dali gateway: read reply: %w", err)
		}
		regs := unpackRegisters(raw)
		if len(regs) < int(replyQty) {
			return dali.NoReply, errors.New("dali gateway: short reply block")
		}

		if regs[0] == c.seq {
			return decodeReply(cmd, regs[1], regs[2])
		}

		if time.Now().After(deadline) {
			return dali.NoReply, fmt.Errorf("dali gateway: no completion for seq %d", c.seq)
		}

		select {
		case <-ctx.Done():
			return dali.NoReply, ctx.Err()
		case <-time.After(pollEvery):
		}
	}
}

func decodeReply(cmd dali.Command, status, value uint16) (dali.Response, error) {
	if !cmd.Answer {
		return dali.NoReply, nil
	}
	switch status {
	case statusNoReply:
		return dali.NoReply, nil
	case statusReply:
		return dali.Reply(byte(value)), nil
	case statusFraming:
		return dali.Response{Framing: true}, nil
	default:
		return dali.NoReply, fmt.Errorf("dali gateway: bus fault status %d", status)
	}
}

// ---- helpers ----

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return out
}
