// internal/writer/mqtt/telemetry.go
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tamzrod/uss-master/internal/status"
	"github.com/tamzrod/uss-master/internal/uss"
)

// statusFlags names the status word bits published with telemetry.
var statusFlags = map[string]uint16{
	"switch_ready":   uss.StatusSwitchReady,
	"ready":          uss.StatusReady,
	"op_enabled":     uss.StatusOpEnabled,
	"fault":          uss.StatusFault,
	"no_off2":        uss.StatusNoOff2,
	"no_off3":        uss.StatusNoOff3,
	"switch_inhibit": uss.StatusSwitchInhibit,
	"alarm":          uss.StatusAlarm,
	"setpoint_tol":   uss.StatusSetpointTol,
	"ctl_requested":  uss.StatusCtlRequested,
	"freq_reached":   uss.StatusFreqReached,
}

// Telemetry is the JSON document published per slave.
type Telemetry struct {
	Slave   int    `json:"slave"`
	Address byte   `json:"address"`
	Name    string `json:"name"`

	Health         string `json:"health"`
	HealthCode     uint16 `json:"health_code"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint16 `json:"seconds_in_error"`

	StatusWord  uint16          `json:"status_word"`
	ActualValue uint16          `json:"actual_value"`
	ControlWord uint16          `json:"control_word"`
	Setpoint    uint16          `json:"setpoint"`
	Flags       map[string]bool `json:"flags"`

	ParamOutcome int16 `json:"param_outcome"`

	At time.Time `json:"at"`
}

func (c *Client) telemetry(slave int, s status.Snapshot) Telemetry {
	t := Telemetry{
		Slave:          slave,
		Address:        c.slaves[slave].Address,
		Name:           c.slaves[slave].Name,
		Health:         status.HealthName(s.Health),
		HealthCode:     s.Health,
		LastErrorCode:  s.LastErrorCode,
		SecondsInError: s.SecondsInError,
		StatusWord:     s.StatusWord,
		ActualValue:    s.ActualValue,
		ControlWord:    s.ControlWord,
		Setpoint:       s.Setpoint,
		Flags:          make(map[string]bool, len(statusFlags)),
		ParamOutcome:   s.ParamOutcome,
		At:             c.now().UTC(),
	}
	for name, bit := range statusFlags {
		t.Flags[name] = s.StatusWord&bit != 0
	}
	return t
}

// WriteStatus publishes the slave snapshot as retained telemetry.
func (c *Client) WriteStatus(slave int, s status.Snapshot) error {
	topic, err := c.slaveTopic(slave)
	if err != nil {
		return fmt.Errorf("mqtt: slave %d: %w", slave, err)
	}

	b, err := json.Marshal(c.telemetry(slave, s))
	if err != nil {
		return fmt.Errorf("mqtt: encode telemetry: %w", err)
	}
	return c.publish(topic+"/status", true, b)
}
