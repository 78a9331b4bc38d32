// internal/config/flags.go
package config

import "github.com/tamzrod/uss-master/internal/uss"

// ControlFlags maps control word flag names accepted in slave config.
var ControlFlags = map[string]uint16{
	"on_off1":         uss.CtlOnOff1,
	"off2":            uss.CtlOff2,
	"off3":            uss.CtlOff3,
	"enable":          uss.CtlEnable,
	"inhibit_ramp":    uss.CtlInhibitRamp,
	"enable_ramp":     uss.CtlEnableRamp,
	"enable_setpoint": uss.CtlEnableSetpoint,
	"ack":             uss.CtlAck,
	"plc":             uss.CtlPLC,
}

// ControlWord folds flag names into a control word.
// Unknown names are ignored; Validate rejects them.
func (s SlaveConfig) ControlWord() uint16 {
	var w uint16
	for _, name := range s.Control {
		w |= ControlFlags[name]
	}
	return w
}
