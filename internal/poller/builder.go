// internal/poller/builder.go
package poller

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/uss-master/internal/config"
	"github.com/tamzrod/uss-master/internal/gpio"
	"github.com/tamzrod/uss-master/internal/transport"
	"github.com/tamzrod/uss-master/internal/uss"
)

// Build opens the serial link and driver-enable line of the configured
// bus and constructs a Poller over a new uss.Master.
// No retries: a dead link fails fast at startup.
func Build(cfg *config.Config, log *zap.Logger) (*Poller, func() error, error) {
	b := cfg.Bus

	port, err := transport.Open(transport.Config{
		Backend:     b.Backend,
		Port:        b.Port,
		BaudRate:    b.BaudRate,
		DataBits:    b.DataBits,
		Parity:      b.Parity,
		StopBits:    b.StopBits,
		ReadTimeout: ms(b.ReadTimeoutMs),
		RS485:       b.RS485,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	de, err := gpio.Open(gpio.Config{
		Kind:      b.DriverEnable.Kind,
		Pin:       b.DriverEnable.Pin,
		ActiveLow: b.DriverEnable.ActiveLow,
		Chip:      b.DriverEnable.Chip,
	}, port)
	if err != nil {
		port.Close()
		return nil, nil, err
	}

	closer := func() error {
		return errors.Join(de.Close(), port.Close())
	}

	m, err := uss.New(MasterConfig(cfg), port, de, uss.WithLogger(log))
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("poller: bus %q: %w", b.ID, err)
	}

	p, err := New(b.ID, m, log)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return p, closer, nil
}

// MasterConfig derives the uss.Master configuration of the bus.
func MasterConfig(cfg *config.Config) uss.Config {
	b := cfg.Bus

	addrs := make([]byte, 0, len(cfg.Slaves))
	for _, s := range cfg.Slaves {
		addrs = append(addrs, s.Address)
	}

	var layout uss.Layout
	if b.PZDWords != 0 {
		layout = uss.Layout{PKWWords: uss.DefaultLayout.PKWWords, PZDWords: b.PZDWords}
	}

	return uss.Config{
		Addresses: addrs,
		BaudRate:  b.BaudRate,
		MaxSlaves: b.MaxSlaves,
		Layout:    layout,
		Timing: uss.Timing{
			MaxResponseDelay:   ms(b.Timing.MaxResponseDelayMs),
			MasterComputeDelay: ms(b.Timing.MasterComputeDelayMs),
			StartDelayChars:    b.Timing.StartDelayChars,
			AnomalyBound:       ms(b.Timing.AnomalyBoundMs),
		},
		ParameterScanLimit: b.ParamScanLimit,
	}
}

// Setups derives the commissioning list from slave config.
// Config must be validated.
func Setups(cfg *config.Config) ([]SlaveSetup, error) {
	out := make([]SlaveSetup, 0, len(cfg.Slaves))

	for i, s := range cfg.Slaves {
		setup := SlaveSetup{
			Slave:    i,
			Control:  s.ControlWord(),
			Setpoint: s.Setpoint,
		}
		for _, pc := range s.Parameters {
			kind, err := ParseParamKind(pc.Type)
			if err != nil {
				return nil, err
			}
			setup.Parameters = append(setup.Parameters, ParamRequest{
				Slave:  i,
				Number: pc.Number,
				Kind:   kind,
				Value:  pc.Value,
			})
		}
		out = append(out, setup)
	}
	return out, nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
