// internal/config/names.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/uss-master/internal/status"
)

var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")

// EffectiveName is the name a slave runs under once normalized:
// defaulted from the address, truncated to the mirror name slots.
func (s SlaveConfig) EffectiveName() string {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("slave-%d", s.Address)
	}
	if len(name) > status.DeviceNameMaxChars {
		name = name[:status.DeviceNameMaxChars]
	}
	return name
}

// TopicSegment makes a name safe as a single MQTT topic level.
func TopicSegment(s string) string {
	return topicReplacer.Replace(s)
}
