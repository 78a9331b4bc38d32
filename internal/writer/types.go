// internal/writer/types.go
package writer

import "github.com/tamzrod/uss-master/internal/status"

// MirrorPlan is the fully-built status mirror layout of one bus.
type MirrorPlan struct {
	BusID    string
	Endpoint string
	UnitID   uint8
	BaseSlot uint16   // block index of slave 0
	Names    []string // per slave index
}

// StatusWriter delivers slave snapshots.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(slave int, s status.Snapshot) error
}
