// internal/poller/commission.go
package poller

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SlaveSetup is the startup state of one slave.
type SlaveSetup struct {
	Slave      int
	Control    uint16
	Setpoint   uint16
	Parameters []ParamRequest
}

// Commission applies control flags and setpoints, then writes startup
// parameters one by one. It runs before Run. Failed writes are
// collected; the remaining writes still run.
func (p *Poller) Commission(setups []SlaveSetup) error {
	var errs []error

	for _, s := range setups {
		if s.Control != 0 {
			p.bus.SetCtlFlag(s.Control, s.Slave)
		}
		p.bus.SetMainsetpoint(s.Setpoint, s.Slave)

		for _, req := range s.Parameters {
			req.Slave = s.Slave
			res := p.Execute(req)
			if err := res.Failure(); err != nil {
				errs = append(errs, fmt.Errorf("slave %d param %d: %w", s.Slave, req.Number, err))
			}
		}
	}

	p.log.Info("commissioning done",
		zap.Int("slaves", len(setups)),
		zap.Int("failures", len(errs)),
	)
	return errors.Join(errs...)
}
