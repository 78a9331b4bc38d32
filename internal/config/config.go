// internal/config/config.go
package config

type Config struct {
	Bus     BusConfig     `yaml:"bus" mapstructure:"bus"`
	Slaves  []SlaveConfig `yaml:"slaves" mapstructure:"slaves"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Optional outputs
	Mirror *MirrorConfig `yaml:"mirror,omitempty" mapstructure:"mirror"`
	MQTT   *MQTTConfig   `yaml:"mqtt,omitempty" mapstructure:"mqtt"`
}

// ---- BUS ----

type BusConfig struct {
	ID string `yaml:"id" mapstructure:"id"`

	// Serial link
	Backend       string `yaml:"backend" mapstructure:"backend"` // bugst | goburrow
	Port          string `yaml:"port" mapstructure:"port"`
	BaudRate      int    `yaml:"baud_rate" mapstructure:"baud_rate"`
	Parity        string `yaml:"parity" mapstructure:"parity"` // N | E | O
	DataBits      int    `yaml:"data_bits" mapstructure:"data_bits"`
	StopBits      int    `yaml:"stop_bits" mapstructure:"stop_bits"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms" mapstructure:"read_timeout_ms"`
	RS485         bool   `yaml:"rs485" mapstructure:"rs485"`

	// Protocol geometry
	MaxSlaves      int `yaml:"max_slaves" mapstructure:"max_slaves"`
	PZDWords       int `yaml:"pzd_words" mapstructure:"pzd_words"`
	ParamScanLimit int `yaml:"param_scan_limit" mapstructure:"param_scan_limit"`

	// A slave without a valid answer for this long turns stale.
	StaleAfterMs int `yaml:"stale_after_ms" mapstructure:"stale_after_ms"`

	Timing       TimingConfig       `yaml:"timing" mapstructure:"timing"`
	DriverEnable DriverEnableConfig `yaml:"driver_enable" mapstructure:"driver_enable"`
}

type TimingConfig struct {
	MaxResponseDelayMs   int `yaml:"max_response_delay_ms" mapstructure:"max_response_delay_ms"`
	MasterComputeDelayMs int `yaml:"master_compute_delay_ms" mapstructure:"master_compute_delay_ms"`
	StartDelayChars      int `yaml:"start_delay_chars" mapstructure:"start_delay_chars"`
	AnomalyBoundMs       int `yaml:"anomaly_bound_ms" mapstructure:"anomaly_bound_ms"`
}

type DriverEnableConfig struct {
	Kind      string `yaml:"kind" mapstructure:"kind"` // cdev | rts | none
	Chip      string `yaml:"chip,omitempty" mapstructure:"chip"`
	Pin       int    `yaml:"pin" mapstructure:"pin"` // line offset on chip
	ActiveLow bool   `yaml:"active_low" mapstructure:"active_low"`
}

// ---- SLAVES ----

type SlaveConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Address uint8  `yaml:"address" mapstructure:"address"`

	// Commissioning, applied once before cyclic operation
	Control    []string          `yaml:"control,omitempty" mapstructure:"control"`
	Setpoint   uint16            `yaml:"setpoint" mapstructure:"setpoint"`
	Parameters []ParameterConfig `yaml:"parameters,omitempty" mapstructure:"parameters"`
}

type ParameterConfig struct {
	Number uint16  `yaml:"number" mapstructure:"number"`
	Type   string  `yaml:"type" mapstructure:"type"` // word | dword | float
	Value  float64 `yaml:"value" mapstructure:"value"`
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	Output     string `yaml:"output" mapstructure:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress,omitempty" mapstructure:"compress"`
}

// ---- MIRROR (Modbus TCP status memory) ----

type MirrorConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	UnitID    uint8  `yaml:"unit_id" mapstructure:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot" mapstructure:"base_slot"` // block index of slave 0
	TimeoutMs int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker      string `yaml:"broker" mapstructure:"broker"`
	ClientID    string `yaml:"client_id" mapstructure:"client_id"`
	TopicPrefix string `yaml:"topic_prefix" mapstructure:"topic_prefix"`
	QoS         byte   `yaml:"qos" mapstructure:"qos"`
	Username    string `yaml:"username,omitempty" mapstructure:"username"`
	Password    string `yaml:"password,omitempty" mapstructure:"password"`
}
