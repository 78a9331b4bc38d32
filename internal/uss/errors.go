// internal/uss/errors.go
package uss

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is matched by every frame decoding failure.
	ErrMalformed = errors.New("uss: malformed telegram")

	ErrNoSlaves      = errors.New("uss: slave address list required")
	ErrTooManySlaves = errors.New("uss: too many slaves")
	ErrBaudRate      = errors.New("uss: baud rate must be > 0")
	ErrSlaveIndex    = errors.New("uss: slave index out of range")
	ErrScanLimit     = errors.New("uss: parameter scan limit reached")

	// Parameter acknowledgment failures.
	ErrNoResponse       = errors.New("uss: no response")
	ErrAccessDenied     = errors.New("uss: access denied")
	ErrIllegalParameter = errors.New("uss: illegal parameter number")
)

// FrameError describes why a received buffer is not a valid telegram.
type FrameError struct {
	Reason string
	Got    int
	Want   int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("uss: malformed telegram: %s got=%d want=%d", e.Reason, e.Got, e.Want)
}

// Is reports ErrMalformed so callers need not know the reason.
func (e *FrameError) Is(target error) bool {
	return target == ErrMalformed
}

// Outcome is the result code of a parameter exchange.
// 0 is success, negative values are protocol failures,
// positive values are device-specific error numbers.
type Outcome int

const (
	OutcomeSuccess          Outcome = 0
	OutcomeNoResponse       Outcome = -1
	OutcomeAccessDenied     Outcome = -2
	OutcomeIllegalParameter Outcome = -3
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoResponse:
		return "no response"
	case OutcomeAccessDenied:
		return "access denied"
	case OutcomeIllegalParameter:
		return "illegal parameter"
	}
	if o > 0 {
		return fmt.Sprintf("device error %d", int(o))
	}
	return fmt.Sprintf("outcome %d", int(o))
}

// Err converts the outcome into an error, nil on success.
func (o Outcome) Err() error {
	if o == OutcomeSuccess {
		return nil
	}
	return &AckError{Outcome: o}
}

// AckError wraps a failed parameter acknowledgment.
type AckError struct {
	Outcome Outcome
}

func (e *AckError) Error() string {
	return "uss: parameter rejected: " + e.Outcome.String()
}

// Code returns the device-defined error number carried by a
// "can't execute" response, 0 for protocol-level failures.
func (e *AckError) Code() uint16 {
	if e.Outcome > 0 {
		return uint16(e.Outcome)
	}
	return 0
}

func (e *AckError) Is(target error) bool {
	switch target {
	case ErrNoResponse:
		return e.Outcome == OutcomeNoResponse
	case ErrAccessDenied:
		return e.Outcome == OutcomeAccessDenied
	case ErrIllegalParameter:
		return e.Outcome == OutcomeIllegalParameter
	}
	return false
}
