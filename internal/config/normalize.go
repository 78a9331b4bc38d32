// internal/config/normalize.go
package config

// Defaults
const (
	DefaultBusID         = "bus"
	DefaultBackend       = "bugst"
	DefaultBaudRate      = 9600
	DefaultParity        = "E"
	DefaultDataBits      = 8
	DefaultStopBits      = 1
	DefaultReadTimeoutMs = 50
	DefaultPZDWords      = 2
	DefaultDriverEnable  = "none"
	DefaultStaleAfterMs  = 5000

	// Scans a parameter write may spend per configured slave before it
	// gives up on a silent slave.
	DefaultParamScanRounds = 8

	DefaultMirrorTimeoutMs = 1000
	DefaultTopicPrefix     = "uss"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Bus
	if b.ID == "" {
		b.ID = DefaultBusID
	}
	if b.Backend == "" {
		b.Backend = DefaultBackend
	}
	if b.BaudRate == 0 {
		b.BaudRate = DefaultBaudRate
	}
	if b.Parity == "" {
		b.Parity = DefaultParity
	}
	if b.DataBits == 0 {
		b.DataBits = DefaultDataBits
	}
	if b.StopBits == 0 {
		b.StopBits = DefaultStopBits
	}
	if b.ReadTimeoutMs == 0 {
		b.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if b.PZDWords == 0 {
		b.PZDWords = DefaultPZDWords
	}
	if b.StaleAfterMs == 0 {
		b.StaleAfterMs = DefaultStaleAfterMs
	}
	if b.DriverEnable.Kind == "" {
		b.DriverEnable.Kind = DefaultDriverEnable
	}

	if b.ParamScanLimit == 0 {
		b.ParamScanLimit = DefaultParamScanRounds * len(cfg.Slaves)
	}

	// Names end up in the mirror name slots and MQTT topics.
	// Uniqueness of the effective name is validated.
	for i := range cfg.Slaves {
		cfg.Slaves[i].Name = cfg.Slaves[i].EffectiveName()
	}

	if m := cfg.Mirror; m != nil && m.TimeoutMs == 0 {
		m.TimeoutMs = DefaultMirrorTimeoutMs
	}
	if q := cfg.MQTT; q != nil && q.TopicPrefix == "" {
		q.TopicPrefix = DefaultTopicPrefix
	}
}
