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

// MaxWriteRegisters is the FC16 quantity limit of one request.
const MaxWriteRegisters = 123

// Config addresses the Modbus TCP server holding the status mirror.
type Config struct {
	Endpoint string // host:port
	Timeout  time.Duration
}

// EndpointClient writes slave status blocks into the mirror server.
// One connection per bus; the unit id is set per request, so requests
// are serialized.
type EndpointClient struct {
	endpoint string

	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// NewEndpointClient dials the mirror server. A server that is down at
// startup is an error; later outages surface per write.
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("writer modbus: connect %s: %w", cfg.Endpoint, err)
	}

	return &EndpointClient{
		endpoint: cfg.Endpoint,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters stores regs at addr of unit unitID with one FC16
// request. A status block or a single changed slot fits one request.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if err := checkQuantity(addr, len(regs)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID
	if _, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), PackRegisters(regs)); err != nil {
		return fmt.Errorf("writer modbus: %s unit=%d addr=%d qty=%d: %w", c.endpoint, unitID, addr, len(regs), err)
	}
	return nil
}

func checkQuantity(addr uint16, n int) error {
	switch {
	case n == 0:
		return errors.New("writer modbus: empty register write")
	case n > MaxWriteRegisters:
		return fmt.Errorf("writer modbus: %d registers exceed FC16 limit %d", n, MaxWriteRegisters)
	case int(addr)+n > 0x10000:
		return fmt.Errorf("writer modbus: write at %d of %d registers leaves the address space", addr, n)
	}
	return nil
}

// PackRegisters lays registers out big-endian, as FC16 carries them.
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}
