// internal/uss/pzd.go
package uss

// processData is the cyclic record of one slave.
// Values persist across scans and are resent until changed.
type processData struct {
	ctlWord    uint16
	setpoint   uint16
	statusWord uint16
	actual     uint16

	// words beyond the first two, when the layout carries them
	extraOut []uint16
	extraIn  []uint16
}

func newProcessData(words int) processData {
	n := words - minPZDWords
	if n < 0 {
		n = 0
	}
	return processData{
		extraOut: make([]uint16, n),
		extraIn:  make([]uint16, n),
	}
}

func (p *processData) outbound() []uint16 {
	out := make([]uint16, 0, minPZDWords+len(p.extraOut))
	out = append(out, p.ctlWord, p.setpoint)
	return append(out, p.extraOut...)
}

func (p *processData) update(pzd []uint16) {
	if len(pzd) < minPZDWords {
		return
	}
	p.statusWord = pzd[0]
	p.actual = pzd[1]
	copy(p.extraIn, pzd[minPZDWords:])
}

// ---- facade (index-checked) ----

func (m *Master) validIndex(slave int) bool {
	return slave >= 0 && slave < len(m.slaves)
}

// SetMainsetpoint sets the setpoint word sent to slave.
// Out-of-range indexes are ignored.
func (m *Master) SetMainsetpoint(value uint16, slave int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return
	}
	m.pzd[slave].setpoint = value
}

// SetCtlFlag sets flags in the control word of slave.
func (m *Master) SetCtlFlag(flags uint16, slave int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return
	}
	m.pzd[slave].ctlWord |= flags
}

// ClearCtlFlag clears flags in the control word of slave.
func (m *Master) ClearCtlFlag(flags uint16, slave int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return
	}
	m.pzd[slave].ctlWord &^= flags
}

// SetExtraSetpoint sets process data word 2+i sent to slave.
func (m *Master) SetExtraSetpoint(i int, value uint16, slave int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) || i < 0 || i >= len(m.pzd[slave].extraOut) {
		return
	}
	m.pzd[slave].extraOut[i] = value
}

// ActualValue returns the last main actual value received from slave,
// 0xFFFF for an unknown slave.
func (m *Master) ActualValue(slave int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return 0xFFFF
	}
	return m.pzd[slave].actual
}

// CheckStatusFlag reports whether any of flag is set in the last
// status word received from slave.
func (m *Master) CheckStatusFlag(flag uint16, slave int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return false
	}
	return m.pzd[slave].statusWord&flag != 0
}

// StatusWord returns the last status word received from slave.
func (m *Master) StatusWord(slave int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return 0
	}
	return m.pzd[slave].statusWord
}

// ControlWord returns the control word currently sent to slave.
func (m *Master) ControlWord(slave int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return 0
	}
	return m.pzd[slave].ctlWord
}

// Mainsetpoint returns the setpoint currently sent to slave.
func (m *Master) Mainsetpoint(slave int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) {
		return 0
	}
	return m.pzd[slave].setpoint
}

// ExtraActual returns received process data word 2+i of slave.
func (m *Master) ExtraActual(i int, slave int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validIndex(slave) || i < 0 || i >= len(m.pzd[slave].extraIn) {
		return 0
	}
	return m.pzd[slave].extraIn[i]
}
