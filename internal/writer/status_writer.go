// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/uss-master/internal/status"
)

// slaveStatusWriter owns the status block of one slave.
type slaveStatusWriter struct {
	cli      endpointClient
	unitID   uint8
	baseAddr uint16

	needFull bool
	last     []uint16 // status slots as last written
	nameRegs []uint16
}

func newSlaveStatusWriter(cli endpointClient, unitID uint8, baseAddr uint16, name string) *slaveStatusWriter {
	return &slaveStatusWriter{
		cli:      cli,
		unitID:   unitID,
		baseAddr: baseAddr,
		needFull: true, // full re-assert on first write
		nameRegs: status.EncodeName(name),
	}
}

// WriteStatus delivers a snapshot into the slave's block. Only changed
// slots are written; on any write failure the next call re-asserts the
// full block.
func (sw *slaveStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return errors.New("status writer: missing client")
	}

	regs := status.Encode(s)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.unitID, sw.baseAddr, sw.fullBlockRegs(regs)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	var errs []string

	for slot, v := range regs {
		if sw.last[slot] == v {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.unitID, sw.baseAddr+uint16(slot), []uint16{v}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
			continue
		}
		sw.last[slot] = v
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next call.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *slaveStatusWriter) fullBlockRegs(statusRegs []uint16) []uint16 {
	regs := make([]uint16, status.SlotsPerDevice)
	copy(regs, statusRegs)

	// Name always lives at the end of the block
	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], sw.nameRegs)

	return regs
}
