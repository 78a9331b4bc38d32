// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a minimal valid config quickly
func bus(slaves ...SlaveConfig) *Config {
	return &Config{
		Bus: BusConfig{
			ID:       "line-1",
			Port:     "/dev/ttyUSB0",
			BaudRate: 38400,
		},
		Slaves: slaves,
	}
}

func slave(name string, addr uint8) SlaveConfig {
	return SlaveConfig{Name: name, Address: addr}
}

func expectErr(t *testing.T, cfg *Config, substr string) {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected error containing %q", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("error %q does not contain %q", err, substr)
	}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(bus(slave("p1", 0), slave("p2", 1))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoSlaves(t *testing.T) {
	expectErr(t, bus(), "at least one slave")
}

func TestValidate_AddressCollision(t *testing.T) {
	expectErr(t, bus(slave("p1", 3), slave("p2", 3)), "address collision")
}

func TestValidate_AddressRange(t *testing.T) {
	expectErr(t, bus(slave("p1", 32)), "out of range")
}

func TestValidate_MaxSlaves(t *testing.T) {
	cfg := bus(slave("p1", 1), slave("p2", 2), slave("p3", 3))
	cfg.Bus.MaxSlaves = 2
	expectErr(t, cfg, "exceed max_slaves")
}

func TestValidate_BusFields(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*BusConfig)
		want   string
	}{
		{"port", func(b *BusConfig) { b.Port = "" }, "port required"},
		{"backend", func(b *BusConfig) { b.Backend = "ftdi" }, "unknown backend"},
		{"baud", func(b *BusConfig) { b.BaudRate = 0 }, "baud_rate"},
		{"parity", func(b *BusConfig) { b.Parity = "M" }, "parity"},
		{"data bits", func(b *BusConfig) { b.DataBits = 5 }, "data_bits"},
		{"stop bits", func(b *BusConfig) { b.StopBits = 3 }, "stop_bits"},
		{"pzd odd", func(b *BusConfig) { b.PZDWords = 3 }, "line-1"},
		{"timing", func(b *BusConfig) { b.Timing.StartDelayChars = -1 }, "timing"},
		{"de kind", func(b *BusConfig) { b.DriverEnable.Kind = "i2c" }, "driver_enable"},
		{"rts goburrow", func(b *BusConfig) {
			b.Backend = "goburrow"
			b.DriverEnable.Kind = "rts"
		}, "bugst"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := bus(slave("p1", 1))
			tc.mutate(&cfg.Bus)
			expectErr(t, cfg, tc.want)
		})
	}
}

func TestValidate_NameCollision(t *testing.T) {
	// identical after truncation to the name slots
	expectErr(t, bus(slave("conveyor-motor-left", 1), slave("conveyor-motor-lift", 2)), "name collision")
	// identical as a topic level
	expectErr(t, bus(slave("pump 1", 1), slave("pump/1", 2)), "name collision")
	// explicit name equal to a defaulted one
	expectErr(t, bus(slave("slave-2", 1), slave("", 2)), "name collision")

	if err := Validate(bus(slave("conveyor-left", 1), slave("conveyor-lift", 2))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NameASCII(t *testing.T) {
	expectErr(t, bus(slave("pümpe", 1)), "ASCII")
}

func TestValidate_ControlFlags(t *testing.T) {
	s := slave("p1", 1)
	s.Control = []string{"on_off1", "jog"}
	expectErr(t, bus(s), "unknown control flag")
}

func TestValidate_Parameters(t *testing.T) {
	testCases := []struct {
		p   ParameterConfig
		ok  bool
		why string
	}{
		{ParameterConfig{Number: 1120, Type: "float", Value: 1.5}, true, "float"},
		{ParameterConfig{Number: 700, Type: "word", Value: 5}, true, "word"},
		{ParameterConfig{Number: 700, Type: "word", Value: 65536}, false, "word overflow"},
		{ParameterConfig{Number: 700, Type: "word", Value: 1.5}, false, "word fraction"},
		{ParameterConfig{Number: 1082, Type: "dword", Value: 4294967295}, true, "dword max"},
		{ParameterConfig{Number: 1082, Type: "dword", Value: -1}, false, "dword negative"},
		{ParameterConfig{Number: 0x800, Type: "word"}, false, "number"},
		{ParameterConfig{Number: 10, Type: "string"}, false, "type"},
	}

	for _, tc := range testCases {
		s := slave("p1", 1)
		s.Parameters = []ParameterConfig{tc.p}
		err := Validate(bus(s))
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.why, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.why)
		}
	}
}

func TestValidate_Mirror(t *testing.T) {
	cfg := bus(slave("p1", 1))
	cfg.Mirror = &MirrorConfig{}
	expectErr(t, cfg, "endpoint required")

	cfg.Mirror = &MirrorConfig{Endpoint: "127.0.0.1:502", BaseSlot: 65530}
	expectErr(t, cfg, "register space")

	cfg.Mirror.BaseSlot = 100
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MQTT(t *testing.T) {
	cfg := bus(slave("p1", 1))
	cfg.MQTT = &MQTTConfig{Broker: "tcp://localhost:1883", QoS: 3}
	expectErr(t, cfg, "qos")
}

func TestValidate_Logging(t *testing.T) {
	cfg := bus(slave("p1", 1))
	cfg.Logging.Level = "chatty"
	expectErr(t, cfg, "invalid level")
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := bus(slave("", 4), slave("a-very-long-slave-name", 5))
	cfg.Bus.ID = ""
	cfg.Mirror = &MirrorConfig{Endpoint: "x:502"}
	cfg.MQTT = &MQTTConfig{Broker: "tcp://b:1883"}

	Normalize(cfg)

	if cfg.Bus.ID != DefaultBusID || cfg.Bus.Backend != DefaultBackend || cfg.Bus.Parity != "E" {
		t.Fatalf("bus defaults not applied: %+v", cfg.Bus)
	}
	if cfg.Bus.PZDWords != 2 || cfg.Bus.DriverEnable.Kind != "none" {
		t.Fatalf("geometry defaults not applied: %+v", cfg.Bus)
	}
	if cfg.Slaves[0].Name != "slave-4" {
		t.Fatalf("name default: %q", cfg.Slaves[0].Name)
	}
	if cfg.Slaves[1].Name != "a-very-long-slav" {
		t.Fatalf("name truncation: %q", cfg.Slaves[1].Name)
	}
	if cfg.Bus.ParamScanLimit != 2*DefaultParamScanRounds {
		t.Fatalf("param scan limit: %d", cfg.Bus.ParamScanLimit)
	}
	if cfg.Mirror.TimeoutMs != DefaultMirrorTimeoutMs || cfg.MQTT.TopicPrefix != "uss" {
		t.Fatalf("output defaults not applied")
	}
}

func TestControlWord(t *testing.T) {
	s := SlaveConfig{Control: []string{"on_off1", "off2", "off3", "enable", "enable_ramp", "enable_setpoint", "plc"}}
	if got := s.ControlWord(); got != 0x047F {
		t.Fatalf("control word %#04x", got)
	}
}

func TestNormalize_KeepsExplicitScanLimit(t *testing.T) {
	cfg := bus(slave("p1", 1))
	cfg.Bus.ParamScanLimit = 3
	Normalize(cfg)
	if cfg.Bus.ParamScanLimit != 3 {
		t.Fatalf("param scan limit: %d", cfg.Bus.ParamScanLimit)
	}
}
