// internal/gpio/gpio.go
package gpio

import (
	"errors"
	"fmt"
	"strings"
)

// Line kinds.
const (
	KindCdev = "cdev"
	KindRTS  = "rts"
	KindNone = "none"
)

// Config selects the driver-enable line of an RS-485 transceiver.
type Config struct {
	Kind      string
	Pin       int
	ActiveLow bool

	// Chip is the GPIO character device for KindCdev, default gpiochip0.
	// Pin is the line offset on that chip.
	Chip string
}

// Line is a single digital output.
type Line interface {
	SetOutput() error
	Write(high bool) error
	Close() error
}

// RTSSetter is a serial port exposing its RTS modem line.
type RTSSetter interface {
	SetRTS(high bool) error
}

// Open builds the configured line. port is consulted only for KindRTS.
func Open(cfg Config, port interface{}) (Line, error) {
	switch strings.ToLower(cfg.Kind) {
	case KindCdev:
		return NewCdev(cfg.Chip, cfg.Pin, cfg.ActiveLow)
	case KindRTS:
		s, ok := port.(RTSSetter)
		if !ok {
			return nil, errors.New("gpio: rts line requires a port with RTS control")
		}
		return &RTSLine{port: s, activeLow: cfg.ActiveLow}, nil
	case "", KindNone:
		return None{}, nil
	}
	return nil, fmt.Errorf("gpio: unknown line kind %q", cfg.Kind)
}

// ---- RTS ----

// RTSLine drives the transceiver from the serial port's RTS pin.
type RTSLine struct {
	port      RTSSetter
	activeLow bool
}

func (l *RTSLine) SetOutput() error { return nil }

func (l *RTSLine) Write(high bool) error {
	if err := l.port.SetRTS(high != l.activeLow); err != nil {
		return fmt.Errorf("gpio: rts: %w", err)
	}
	return nil
}

func (l *RTSLine) Close() error { return nil }

// ---- none ----

// None is for transceivers with automatic direction control.
type None struct{}

func (None) SetOutput() error { return nil }
func (None) Write(bool) error { return nil }
func (None) Close() error     { return nil }
