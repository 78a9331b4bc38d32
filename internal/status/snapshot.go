// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver
// for one slave. It contains no logic.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	StatusWord  uint16
	ActualValue uint16
	ControlWord uint16
	Setpoint    uint16

	ParamOutcome int16
}
