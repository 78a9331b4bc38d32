// internal/poller/types.go
package poller

import (
	"fmt"
	"time"

	"github.com/tamzrod/uss-master/internal/uss"
)

// ScanResult is the snapshot produced by one send/receive pair.
type ScanResult struct {
	BusID   string
	Slave   int  // slave index
	Address byte // bus address
	At      time.Time

	// Outcome of the exchange. OutcomeNoResponse covers silence,
	// rejected frames and a valid telegram acking a pending request
	// with no response.
	Outcome  uss.Outcome
	Answered bool // a valid telegram came back from the slave

	// Process data after the exchange.
	StatusWord  uint16
	ActualValue uint16
	ControlWord uint16
	Setpoint    uint16

	Err error // non-nil means the telegram could not be written
}

// OK reports whether the slave answered with a valid telegram.
func (r ScanResult) OK() bool {
	return r.Err == nil && r.Answered
}

// ParamKind selects the parameter write width.
type ParamKind int

const (
	ParamWord ParamKind = iota
	ParamDword
	ParamFloat
)

func (k ParamKind) String() string {
	switch k {
	case ParamWord:
		return "word"
	case ParamDword:
		return "dword"
	case ParamFloat:
		return "float"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseParamKind maps a config type name to a ParamKind.
func ParseParamKind(s string) (ParamKind, error) {
	switch s {
	case "word":
		return ParamWord, nil
	case "dword":
		return ParamDword, nil
	case "float":
		return ParamFloat, nil
	}
	return 0, fmt.Errorf("poller: unknown parameter type %q", s)
}

// ParamRequest is one parameter write.
type ParamRequest struct {
	Slave  int
	Number uint16
	Kind   ParamKind
	Value  float64
}

// ParamResult is the answer to a ParamRequest.
type ParamResult struct {
	Request ParamRequest
	At      time.Time
	Outcome uss.Outcome
	Err     error // transport, index or scan limit failure
}

// Failure folds Err and a rejecting Outcome into one error.
func (r ParamResult) Failure() error {
	if r.Err != nil {
		return r.Err
	}
	return r.Outcome.Err()
}
