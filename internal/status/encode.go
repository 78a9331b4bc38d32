// internal/status/encode.go
package status

// Encode converts a Snapshot into the status slots of a block
// (0..SlotReservedEnd). The name slots are owned by the writer.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotReservedEnd+1)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError

	regs[SlotStatusWord] = s.StatusWord
	regs[SlotActualValue] = s.ActualValue
	regs[SlotControlWord] = s.ControlWord
	regs[SlotSetpoint] = s.Setpoint

	regs[SlotParamOutcome] = uint16(s.ParamOutcome)

	return regs
}

// EncodeName packs an ASCII name into the name slots, two characters
// per slot, high byte first. Longer names are truncated and
// non-printable bytes become '?'.
func EncodeName(name string) []uint16 {
	regs := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < len(b); i++ {
		r := i / 2
		if i%2 == 0 {
			regs[r] |= uint16(b[i]) << 8
		} else {
			regs[r] |= uint16(b[i])
		}
	}
	return regs
}
