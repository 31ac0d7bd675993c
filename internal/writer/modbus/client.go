// internal/writer/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// MaxWriteQuantity is the FC16 limit on registers per request.
const MaxWriteQuantity = 123

// registerWriter is the part of modbus.Client the status memory uses.
type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// EndpointClient writes status blocks into one status memory endpoint.
//
// The TCP session is opened lazily and dropped after any failed write,
// so a long-running watch recovers once the endpoint comes back.
// Requests are serialized because SlaveId is set per write.
type EndpointClient struct {
	mu      sync.Mutex
	cfg     Config
	handler *modbus.TCPClientHandler
	regs    registerWriter
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("status memory: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &EndpointClient{cfg: cfg}, nil
}

func (c *EndpointClient) connect() error {
	if c.handler != nil {
		return nil
	}

	h := modbus.NewTCPClientHandler(c.cfg.Endpoint)
	h.Timeout = c.cfg.Timeout
	if err := h.Connect(); err != nil {
		return fmt.Errorf("status memory %s: connect: %w", c.cfg.Endpoint, err)
	}

	c.handler = h
	c.regs = modbus.NewClient(h)
	return nil
}

func (c *EndpointClient) drop() {
	if c.handler != nil {
		_ = c.handler.Close()
	}
	c.handler = nil
	c.regs = nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
	return nil
}

// WriteRegisters writes holding registers starting at addr on one unit id.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(); err != nil {
		return err
	}
	c.handler.SlaveId = unitID

	if err := writeChunked(c.regs, addr, regs); err != nil {
		c.drop()
		return fmt.Errorf("status memory %s: %w", c.cfg.Endpoint, err)
	}
	return nil
}

// writeChunked splits regs into FC16-sized requests.
func writeChunked(w registerWriter, addr uint16, regs []uint16) error {
	for off := 0; off < len(regs); off += MaxWriteQuantity {
		end := off + MaxWriteQuantity
		if end > len(regs) {
			end = len(regs)
		}

		chunk := regs[off:end]
		payload := make([]byte, 2*len(chunk))
		for i, r := range chunk {
			binary.BigEndian.PutUint16(payload[2*i:], r)
		}

		start := addr + uint16(off)
		if _, err := w.WriteMultipleRegisters(start, uint16(len(chunk)), payload); err != nil {
			return fmt.Errorf("write %d registers at %d: %w", len(chunk), start, err)
		}
	}
	return nil
}
