// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/uss-master/internal/status"
)

// endpointClient is the exact contract the mirror uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Mirror keeps one status block per slave in Modbus memory.
type Mirror struct {
	plan    MirrorPlan
	writers []*slaveStatusWriter
}

// NewMirror lays out one block per slave starting at plan.BaseSlot.
func NewMirror(plan MirrorPlan, cli endpointClient) *Mirror {
	m := &Mirror{plan: plan}

	for i, name := range plan.Names {
		base := (plan.BaseSlot + uint16(i)) * status.SlotsPerDevice
		m.writers = append(m.writers, newSlaveStatusWriter(cli, plan.UnitID, base, name))
	}
	return m
}

func (m *Mirror) WriteStatus(slave int, s status.Snapshot) error {
	if slave < 0 || slave >= len(m.writers) {
		return fmt.Errorf("writer: bus %s slave %d has no status block", m.plan.BusID, slave)
	}
	if err := m.writers[slave].WriteStatus(s); err != nil {
		return fmt.Errorf("writer: ep=%s unit=%d slave=%d: %w", m.plan.Endpoint, m.plan.UnitID, slave, err)
	}
	return nil
}

// Fanout delivers every snapshot to all writers.
type Fanout []StatusWriter

func (f Fanout) WriteStatus(slave int, s status.Snapshot) error {
	var errs []string
	for _, w := range f {
		if err := w.WriteStatus(slave, s); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
