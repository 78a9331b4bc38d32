// internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. USS_BUS_PORT.
const EnvPrefix = "USS"

// Load reads a YAML config file, applies environment overrides and
// defaults, then validates and normalizes the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("config: file not found: %w", err)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	Normalize(&cfg)

	return &cfg, nil
}

// setDefaults registers scalar defaults so env overrides work for keys
// absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bus.id", DefaultBusID)
	v.SetDefault("bus.backend", DefaultBackend)
	v.SetDefault("bus.port", "")
	v.SetDefault("bus.baud_rate", DefaultBaudRate)
	v.SetDefault("bus.parity", DefaultParity)
	v.SetDefault("bus.data_bits", DefaultDataBits)
	v.SetDefault("bus.stop_bits", DefaultStopBits)
	v.SetDefault("bus.read_timeout_ms", DefaultReadTimeoutMs)
	v.SetDefault("bus.pzd_words", DefaultPZDWords)
	v.SetDefault("bus.stale_after_ms", DefaultStaleAfterMs)
	v.SetDefault("bus.driver_enable.kind", DefaultDriverEnable)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Dump renders the effective configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: dump: %w", err)
	}
	return out, nil
}
