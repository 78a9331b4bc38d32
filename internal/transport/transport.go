// internal/transport/transport.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Backend names.
const (
	BackendBugst    = "bugst"
	BackendGoburrow = "goburrow"
)

// Config describes the serial link of one bus.
type Config struct {
	Backend  string
	Port     string
	BaudRate int
	DataBits int
	Parity   string // N, E, O
	StopBits int

	// ReadTimeout bounds a single read call.
	ReadTimeout time.Duration

	// RS485 enables kernel RS-485 direction control (goburrow backend only).
	RS485 bool
}

// Port is an open serial link.
type Port interface {
	io.ReadWriteCloser
}

// Open opens the serial link with the configured backend.
func Open(cfg Config, log *zap.Logger) (Port, error) {
	if cfg.Port == "" {
		return nil, errors.New("transport: port required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		p   Port
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case "", BackendBugst:
		p, err = openBugst(cfg)
	case BackendGoburrow:
		p, err = openGoburrow(cfg)
	default:
		return nil, fmt.Errorf("transport: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		log.Error("serial port open failed",
			zap.String("port", cfg.Port),
			zap.String("backend", cfg.Backend),
			zap.Error(err),
		)
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Port, err)
	}

	log.Info("serial port opened",
		zap.String("port", cfg.Port),
		zap.String("backend", cfg.Backend),
		zap.Int("baud_rate", cfg.BaudRate),
		zap.String("parity", cfg.Parity),
	)
	return p, nil
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}
	return ports, nil
}
