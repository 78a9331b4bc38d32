// internal/writer/writer_test.go
package writer

import (
	"errors"
	"strings"
	"testing"

	"github.com/tamzrod/uss-master/internal/config"
	"github.com/tamzrod/uss-master/internal/status"
)

// ---- fake endpoint client ----

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

type fakeEndpointClient struct {
	writes  []writeCall
	failing bool

	lastRegs     []uint16
	lastRegsAddr uint16
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.failing {
		return errors.New("connection refused")
	}
	cp := append([]uint16(nil), regs...)
	f.writes = append(f.writes, writeCall{unitID: unitID, addr: addr, regs: cp})
	f.lastRegs = cp
	f.lastRegsAddr = addr
	return nil
}

type recordingWriter struct {
	slaves []int
	err    error
}

func (r *recordingWriter) WriteStatus(slave int, s status.Snapshot) error {
	r.slaves = append(r.slaves, slave)
	return r.err
}

// ---- tests ----

func TestMirror_BlockAddressing(t *testing.T) {
	fake := &fakeEndpointClient{}

	m := NewMirror(MirrorPlan{
		BusID:    "line-1",
		Endpoint: "ep1",
		UnitID:   7,
		BaseSlot: 2,
		Names:    []string{"pump", "fan"},
	}, fake)

	if err := m.WriteStatus(1, status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if len(fake.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(fake.writes))
	}
	w := fake.writes[0]
	if w.unitID != 7 {
		t.Fatalf("unit id: %d", w.unitID)
	}
	if want := uint16(3 * status.SlotsPerDevice); w.addr != want {
		t.Fatalf("addr: got=%d want=%d", w.addr, want)
	}

	if err := m.WriteStatus(2, status.Snapshot{}); err == nil {
		t.Fatalf("expected error for unknown slave")
	}
}

func TestMirror_ErrorCarriesEndpoint(t *testing.T) {
	fake := &fakeEndpointClient{failing: true}
	m := NewMirror(MirrorPlan{Endpoint: "ep1", Names: []string{"pump"}}, fake)

	err := m.WriteStatus(0, status.Snapshot{})
	if err == nil || !strings.Contains(err.Error(), "ep=ep1") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFanout(t *testing.T) {
	a := &recordingWriter{}
	b := &recordingWriter{err: errors.New("broker down")}

	err := Fanout{a, b}.WriteStatus(3, status.Snapshot{})
	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.slaves) != 1 || len(b.slaves) != 1 || a.slaves[0] != 3 {
		t.Fatalf("not delivered to all writers")
	}

	if err := (Fanout{}).WriteStatus(0, status.Snapshot{}); err != nil {
		t.Fatalf("empty fanout: %v", err)
	}
}

func TestBuildMirrorPlan(t *testing.T) {
	c := &config.Config{
		Bus:    config.BusConfig{ID: "line-1"},
		Slaves: []config.SlaveConfig{{Name: "pump", Address: 1}, {Name: "fan", Address: 2}},
		Mirror: &config.MirrorConfig{Endpoint: "127.0.0.1:502", UnitID: 4, BaseSlot: 10},
	}

	plan, err := BuildMirrorPlan(c)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Endpoint != "127.0.0.1:502" || plan.UnitID != 4 || plan.BaseSlot != 10 {
		t.Fatalf("plan: %+v", plan)
	}
	if len(plan.Names) != 2 || plan.Names[1] != "fan" {
		t.Fatalf("names: %v", plan.Names)
	}

	c.Mirror = nil
	if _, err := BuildMirrorPlan(c); err == nil {
		t.Fatalf("expected error without mirror")
	}

	m, closer, err := BuildMirror(c)
	if err != nil || m != nil || closer() != nil {
		t.Fatalf("disabled mirror: m=%v err=%v", m, err)
	}
}
