// internal/gpio/cdev.go
package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const (
	defaultChip = "gpiochip0"
	consumer    = "uss-master"
)

// valueLine is the part of a requested gpiocdev line used here.
type valueLine interface {
	SetValue(value int) error
	Close() error
}

type lineRequest struct {
	chip      string
	offset    int
	activeLow bool
}

// requestLine claims one line as an output, initially inactive.
var requestLine = func(r lineRequest) (valueLine, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsOutput(0),
	}
	if r.activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	l, err := gpiocdev.RequestLine(r.chip, r.offset, opts...)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Cdev is a line driven through the GPIO character device.
// Offset is the line offset on the chip, as listed by gpioinfo.
type Cdev struct {
	req  lineRequest
	line valueLine
}

// NewCdev prepares a line. It is not requested until SetOutput.
func NewCdev(chip string, offset int, activeLow bool) (*Cdev, error) {
	if offset < 0 {
		return nil, fmt.Errorf("gpio: invalid line offset %d", offset)
	}
	if chip == "" {
		chip = defaultChip
	}
	return &Cdev{req: lineRequest{chip: chip, offset: offset, activeLow: activeLow}}, nil
}

// SetOutput requests the line as an output. The kernel applies
// active-low, so Write works in logical levels.
func (c *Cdev) SetOutput() error {
	if c.line != nil {
		return nil
	}
	l, err := requestLine(c.req)
	if err != nil {
		return fmt.Errorf("gpio: %s line %d: %w", c.req.chip, c.req.offset, err)
	}
	c.line = l
	return nil
}

func (c *Cdev) Write(high bool) error {
	if c.line == nil {
		return fmt.Errorf("gpio: %s line %d not configured as output", c.req.chip, c.req.offset)
	}
	v := 0
	if high {
		v = 1
	}
	if err := c.line.SetValue(v); err != nil {
		return fmt.Errorf("gpio: %s line %d write: %w", c.req.chip, c.req.offset, err)
	}
	return nil
}

// Close releases the line back to the kernel.
func (c *Cdev) Close() error {
	if c.line == nil {
		return nil
	}
	err := c.line.Close()
	c.line = nil
	return err
}
