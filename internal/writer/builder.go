// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/uss-master/internal/config"
	wmodbus "github.com/tamzrod/uss-master/internal/writer/modbus"
)

// BuildMirrorPlan converts the mirror config into a plan.
// Assumes config has already passed validation.
func BuildMirrorPlan(c *cfg.Config) (MirrorPlan, error) {
	if c.Mirror == nil {
		return MirrorPlan{}, errors.New("writer: mirror not configured")
	}

	plan := MirrorPlan{
		BusID:    c.Bus.ID,
		Endpoint: c.Mirror.Endpoint,
		UnitID:   c.Mirror.UnitID,
		BaseSlot: c.Mirror.BaseSlot,
	}
	for _, s := range c.Slaves {
		plan.Names = append(plan.Names, s.Name)
	}

	return plan, nil
}

// BuildMirror connects the mirror endpoint. Returns a nil Mirror when
// the mirror is not configured.
func BuildMirror(c *cfg.Config) (*Mirror, func() error, error) {
	if c.Mirror == nil {
		return nil, func() error { return nil }, nil
	}

	plan, err := BuildMirrorPlan(c)
	if err != nil {
		return nil, nil, err
	}

	cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  time.Duration(c.Mirror.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	return NewMirror(plan, cli), cli.Close, nil
}
