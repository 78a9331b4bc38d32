// internal/transport/bugst.go
package transport

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// BugstPort is a go.bug.st/serial port. Besides the byte stream it
// exposes the RTS modem line, usable as driver-enable output.
type BugstPort struct {
	port serial.Port
	name string
}

func openBugst(cfg Config) (*BugstPort, error) {
	mode, err := bugstMode(cfg)
	if err != nil {
		return nil, err
	}

	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, err
	}

	if cfg.ReadTimeout > 0 {
		if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}

	return &BugstPort{port: p, name: cfg.Port}, nil
}

func bugstMode(cfg Config) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}

	switch strings.ToUpper(cfg.Parity) {
	case "", "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", cfg.Parity)
	}

	switch cfg.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", cfg.StopBits)
	}

	return mode, nil
}

// Read returns 0, nil when the read timeout expires.
func (p *BugstPort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *BugstPort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *BugstPort) Close() error                { return p.port.Close() }

// Drain blocks until the output buffer is on the wire.
func (p *BugstPort) Drain() error { return p.port.Drain() }

// ResetInputBuffer discards stale bytes before a new exchange.
func (p *BugstPort) ResetInputBuffer() error { return p.port.ResetInputBuffer() }

// SetRTS drives the RTS modem line.
func (p *BugstPort) SetRTS(high bool) error { return p.port.SetRTS(high) }

func (p *BugstPort) String() string { return p.name }
