// internal/config/validate.go
package config

import (
	"fmt"
	"math"

	"github.com/tamzrod/uss-master/internal/logging"
	"github.com/tamzrod/uss-master/internal/status"
	"github.com/tamzrod/uss-master/internal/uss"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values that Normalize fills in are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	if err := validateBus(&cfg.Bus); err != nil {
		return err
	}
	if err := validateSlaves(cfg); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}
	switch cfg.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging: invalid format %q", cfg.Logging.Format)
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.Mirror; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("mirror: endpoint required")
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("mirror: timeout_ms must be >= 0")
		}
		end := (int(m.BaseSlot) + len(cfg.Slaves)) * status.SlotsPerDevice
		if end > math.MaxUint16+1 {
			return fmt.Errorf(
				"mirror: base_slot=%d with %d slaves exceeds register space",
				m.BaseSlot,
				len(cfg.Slaves),
			)
		}
	}

	// ------------------------------------------------------------
	// MQTT (OPT-IN)
	// ------------------------------------------------------------

	if q := cfg.MQTT; q != nil {
		if q.Broker == "" {
			return fmt.Errorf("mqtt: broker required")
		}
		if q.QoS > 2 {
			return fmt.Errorf("mqtt: qos must be 0, 1 or 2")
		}
	}

	return nil
}

func validateBus(b *BusConfig) error {
	if b.Port == "" {
		return fmt.Errorf("bus %q: port required", b.ID)
	}

	switch b.Backend {
	case "", "bugst", "goburrow":
	default:
		return fmt.Errorf("bus %q: unknown backend %q", b.ID, b.Backend)
	}

	if b.BaudRate <= 0 {
		return fmt.Errorf("bus %q: baud_rate must be > 0", b.ID)
	}

	switch b.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("bus %q: parity must be N, E or O", b.ID)
	}
	switch b.DataBits {
	case 0, 7, 8:
	default:
		return fmt.Errorf("bus %q: data_bits must be 7 or 8", b.ID)
	}
	switch b.StopBits {
	case 0, 1, 2:
	default:
		return fmt.Errorf("bus %q: stop_bits must be 1 or 2", b.ID)
	}

	if b.ReadTimeoutMs < 0 || b.ParamScanLimit < 0 || b.MaxSlaves < 0 || b.StaleAfterMs < 0 {
		return fmt.Errorf("bus %q: negative read_timeout_ms, param_scan_limit, max_slaves or stale_after_ms", b.ID)
	}

	if b.PZDWords != 0 {
		l := uss.Layout{PKWWords: uss.DefaultLayout.PKWWords, PZDWords: b.PZDWords}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("bus %q: %w", b.ID, err)
		}
	}

	t := b.Timing
	if t.MaxResponseDelayMs < 0 || t.MasterComputeDelayMs < 0 || t.StartDelayChars < 0 || t.AnomalyBoundMs < 0 {
		return fmt.Errorf("bus %q: timing values must be >= 0", b.ID)
	}

	switch b.DriverEnable.Kind {
	case "", "none":
	case "cdev":
		if b.DriverEnable.Pin < 0 {
			return fmt.Errorf("bus %q: driver_enable pin (line offset) must be >= 0", b.ID)
		}
	case "rts":
		if b.Backend == "goburrow" {
			return fmt.Errorf("bus %q: driver_enable rts requires the bugst backend", b.ID)
		}
	default:
		return fmt.Errorf("bus %q: unknown driver_enable kind %q", b.ID, b.DriverEnable.Kind)
	}

	return nil
}

func validateSlaves(cfg *Config) error {
	if len(cfg.Slaves) == 0 {
		return fmt.Errorf("bus %q: at least one slave required", cfg.Bus.ID)
	}

	limit := cfg.Bus.MaxSlaves
	if limit == 0 {
		limit = uss.DefaultMaxSlaves
	}
	if len(cfg.Slaves) > limit {
		return fmt.Errorf("bus %q: %d slaves exceed max_slaves=%d", cfg.Bus.ID, len(cfg.Slaves), limit)
	}

	owner := make(map[uint8]string)
	names := make(map[string]string)

	for i, s := range cfg.Slaves {
		label := s.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if s.Address > uss.MaxAddress {
			return fmt.Errorf("slave %q: address %d out of range 0..%d", label, s.Address, uss.MaxAddress)
		}
		if prev, exists := owner[s.Address]; exists {
			return fmt.Errorf("address collision: address=%d used by slaves %q and %q", s.Address, prev, label)
		}
		owner[s.Address] = label

		// name sanity (ASCII only)
		for j := 0; j < len(s.Name); j++ {
			if s.Name[j] > 0x7F {
				return fmt.Errorf("slave %q: name must contain ASCII characters only", label)
			}
		}

		// names key the mirror blocks and MQTT topics after truncation
		key := TopicSegment(s.EffectiveName())
		if prev, exists := names[key]; exists {
			return fmt.Errorf("name collision: slaves %q and %q both resolve to %q", prev, label, key)
		}
		names[key] = label

		for _, f := range s.Control {
			if _, ok := ControlFlags[f]; !ok {
				return fmt.Errorf("slave %q: unknown control flag %q", label, f)
			}
		}

		for _, p := range s.Parameters {
			if err := ValidateParameter(p); err != nil {
				return fmt.Errorf("slave %q: %w", label, err)
			}
		}
	}

	return nil
}

// ValidateParameter checks one parameter write.
func ValidateParameter(p ParameterConfig) error {
	if p.Number > uss.PKEParamMask {
		return fmt.Errorf("parameter %d: number exceeds %d", p.Number, uss.PKEParamMask)
	}

	switch p.Type {
	case "word":
		if !integral(p.Value, math.MaxUint16) {
			return fmt.Errorf("parameter %d: word value %v out of range", p.Number, p.Value)
		}
	case "dword":
		if !integral(p.Value, math.MaxUint32) {
			return fmt.Errorf("parameter %d: dword value %v out of range", p.Number, p.Value)
		}
	case "float":
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) || math.Abs(p.Value) > math.MaxFloat32 {
			return fmt.Errorf("parameter %d: float value %v out of range", p.Number, p.Value)
		}
	default:
		return fmt.Errorf("parameter %d: type must be word, dword or float", p.Number)
	}
	return nil
}

func integral(v, limit float64) bool {
	return v >= 0 && v <= limit && v == math.Trunc(v)
}
