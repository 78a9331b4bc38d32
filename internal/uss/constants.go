// internal/uss/constants.go
package uss

import "time"

// Telegram framing constants.
// These values define the wire protocol and MUST NOT be configurable.

// ---- FRAME ----

// STX is the start byte of every telegram.
const STX byte = 0x02

// ParamValueEmpty marks a parameter slot with no pending request.
const ParamValueEmpty uint16 = 0xA000

// Telegram overhead: STX, LGE, ADR, BCC.
const telegramOverhead = 4

// ---- ADDRESS BYTE ----

const (
	AddrMask          byte = 0x1F
	AddrBroadcastFlag byte = 0x20
	AddrMirrorFlag    byte = 0x40
	AddrSpecialFlag   byte = 0x80
)

// MaxAddress is the highest addressable slave.
const MaxAddress = 31

// ---- PKE WORD ----

const (
	PKEParamMask uint16 = 0x07FF
	PKESPFlag    uint16 = 0x0800
	PKEAKMask    uint16 = 0xF000
)

// Request task codes (master -> slave).
const (
	AKNoTask uint16 = 0x0000
	AKReqPWE uint16 = 0x1000
	AKChwPWE uint16 = 0x2000
	AKChdPWE uint16 = 0x3000
)

// Response codes (slave -> master).
const (
	AKNoResp      uint16 = 0x0000
	AKTrwPWE      uint16 = 0x1000
	AKTrdPWE      uint16 = 0x2000
	AKCantExecute uint16 = 0x7000
	AKNoRights    uint16 = 0x8000
)

// ---- CONTROL WORD ----

const (
	CtlOnOff1         uint16 = 0x0001
	CtlOff2           uint16 = 0x0002
	CtlOff3           uint16 = 0x0004
	CtlEnable         uint16 = 0x0008
	CtlInhibitRamp    uint16 = 0x0010
	CtlEnableRamp     uint16 = 0x0020
	CtlEnableSetpoint uint16 = 0x0040
	CtlAck            uint16 = 0x0080
	CtlPLC            uint16 = 0x0400
)

// ---- STATUS WORD ----

const (
	StatusSwitchReady   uint16 = 0x0001
	StatusReady         uint16 = 0x0002
	StatusOpEnabled     uint16 = 0x0004
	StatusFault         uint16 = 0x0008
	StatusNoOff2        uint16 = 0x0010
	StatusNoOff3        uint16 = 0x0020
	StatusSwitchInhibit uint16 = 0x0040
	StatusAlarm         uint16 = 0x0080
	StatusSetpointTol   uint16 = 0x0100
	StatusCtlRequested  uint16 = 0x0200
	StatusFreqReached   uint16 = 0x0400
)

// ---- TIMING DEFAULTS ----

const (
	// CharTimeBase is the transmission time of one 11-bit character at BaudBase.
	CharTimeBase = 1150 * time.Microsecond
	BaudBase     = 9600

	DefaultMaxResponseDelay   = 20 * time.Millisecond
	DefaultMasterComputeDelay = 20 * time.Millisecond
	DefaultStartDelayChars    = 2
	DefaultAnomalyBound       = 10 * time.Second

	// telegram runtime allowance factor over the raw character time
	telegramRuntimeFactor = 1.5
)

// DefaultMaxSlaves bounds the slave address table.
const DefaultMaxSlaves = 31
