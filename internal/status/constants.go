// internal/status/constants.go
package status

// Slave status block layout constants.
// These values define the mirror memory layout and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per slave.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the slave health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (see ErrorCode*).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the slave has been in error.
const SlotSecondsInError = 2

// ---- PROCESS DATA ----

const (
	SlotStatusWord  = 3
	SlotActualValue = 4
	SlotControlWord = 5
	SlotSetpoint    = 6
)

// SlotParamOutcome holds the outcome of the last parameter write,
// two's complement. Device error codes saturate at 32767.
const SlotParamOutcome = 7

// Slots 8-10 are reserved.
const SlotReservedStart = 8
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the slave name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the slave name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the slave name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first scan.
const HealthUnknown uint16 = 0

// HealthOK represents a slave answering with valid telegrams.
const HealthOK uint16 = 1

// HealthError represents a slave that did not answer its last scan.
const HealthError uint16 = 2

// HealthStale represents a slave whose last valid answer is too old.
const HealthStale uint16 = 3

// HealthFault represents a slave answering with the fault bit set.
const HealthFault uint16 = 4

// ---- ERROR CODES ----

const (
	ErrorCodeNone       uint16 = 0
	ErrorCodeNoResponse uint16 = 1
	ErrorCodeTransport  uint16 = 2
	ErrorCodeFault      uint16 = 3
)

// HealthName returns the lower-case name of a health code.
func HealthName(code uint16) string {
	switch code {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	case HealthFault:
		return "fault"
	}
	return "invalid"
}
