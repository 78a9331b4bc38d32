// internal/transport/goburrow.go
package transport

import (
	"fmt"
	"strings"

	gserial "github.com/goburrow/serial"
)

// GoburrowPort is a github.com/goburrow/serial port. With RS485 set the
// kernel toggles RTS around each transmission.
type GoburrowPort struct {
	port gserial.Port
}

func openGoburrow(cfg Config) (*GoburrowPort, error) {
	c, err := goburrowConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := gserial.Open(c)
	if err != nil {
		return nil, err
	}
	return &GoburrowPort{port: p}, nil
}

func goburrowConfig(cfg Config) (*gserial.Config, error) {
	c := &gserial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Timeout:  cfg.ReadTimeout,
	}
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	if c.StopBits == 0 {
		c.StopBits = 1
	}

	switch p := strings.ToUpper(cfg.Parity); p {
	case "":
		c.Parity = "N"
	case "N", "E", "O":
		c.Parity = p
	default:
		return nil, fmt.Errorf("unsupported parity %q", cfg.Parity)
	}

	if cfg.RS485 {
		c.RS485 = gserial.RS485Config{
			Enabled:           true,
			RtsHighDuringSend: true,
			RtsHighAfterSend:  false,
		}
	}

	return c, nil
}

// Read returns an error once the read timeout expires.
func (p *GoburrowPort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *GoburrowPort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *GoburrowPort) Close() error                { return p.port.Close() }
