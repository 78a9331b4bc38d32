// internal/status/tracker.go
package status

import (
	"math"
	"sync"
	"time"

	"github.com/tamzrod/uss-master/internal/uss"
)

// Observation is what one scan learned about a slave.
type Observation struct {
	Answered    bool // valid telegram received
	WriteFailed bool // telegram could not be sent

	StatusWord  uint16
	ActualValue uint16
	ControlWord uint16
	Setpoint    uint16
}

// Tracker owns the per-slave snapshots of one bus.
// Snapshots change on observations and on the 1 Hz tick only.
type Tracker struct {
	mu         sync.Mutex
	snaps      []Snapshot
	lastOK     []time.Time
	staleAfter time.Duration
}

// NewTracker starts every slave in HealthUnknown.
// staleAfter <= 0 disables stale detection.
func NewTracker(slaves int, staleAfter time.Duration) *Tracker {
	return &Tracker{
		snaps:      make([]Snapshot, slaves),
		lastOK:     make([]time.Time, slaves),
		staleAfter: staleAfter,
	}
}

// Len is the number of tracked slaves.
func (t *Tracker) Len() int { return len(t.snaps) }

// Snapshot returns the current snapshot of slave.
func (t *Tracker) Snapshot(slave int) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slave < 0 || slave >= len(t.snaps) {
		return Snapshot{}
	}
	return t.snaps[slave]
}

// Observe folds one scan into the snapshot of slave and reports
// whether anything changed.
func (t *Tracker) Observe(slave int, at time.Time, o Observation) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slave < 0 || slave >= len(t.snaps) {
		return Snapshot{}, false
	}

	prev := t.snaps[slave]
	s := prev

	// Process data is only refreshed by a valid telegram; the write side
	// always reflects what is being sent.
	s.ControlWord = o.ControlWord
	s.Setpoint = o.Setpoint

	switch {
	case o.WriteFailed:
		s.Health = HealthError
		s.LastErrorCode = ErrorCodeTransport

	case !o.Answered:
		s.Health = HealthError
		s.LastErrorCode = ErrorCodeNoResponse

	default:
		t.lastOK[slave] = at
		s.StatusWord = o.StatusWord
		s.ActualValue = o.ActualValue

		if o.StatusWord&uss.StatusFault != 0 {
			s.Health = HealthFault
			s.LastErrorCode = ErrorCodeFault
		} else {
			// Recovery resets error bookkeeping.
			s.Health = HealthOK
			s.LastErrorCode = ErrorCodeNone
			s.SecondsInError = 0
		}
	}

	t.snaps[slave] = s
	return s, s != prev
}

// ObserveParam records the outcome of a parameter write.
// Device error codes above 32767 do not fit the signed slot and are
// recorded as 32767; the exact code is still reported over MQTT.
func (t *Tracker) ObserveParam(slave int, outcome int) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slave < 0 || slave >= len(t.snaps) {
		return Snapshot{}, false
	}

	var o int16
	switch {
	case outcome > math.MaxInt16:
		o = math.MaxInt16
	case outcome < math.MinInt16:
		o = math.MinInt16
	default:
		o = int16(outcome)
	}

	prev := t.snaps[slave]
	t.snaps[slave].ParamOutcome = o
	return t.snaps[slave], prev.ParamOutcome != o
}

// Tick advances the 1 Hz bookkeeping: seconds_in_error counts up while
// a slave is not OK, and an OK slave without a recent valid telegram
// turns stale. It returns the indices of slaves that changed.
func (t *Tracker) Tick(now time.Time) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var changed []int

	for i := range t.snaps {
		s := &t.snaps[i]
		dirty := false

		if s.Health == HealthOK && t.staleAfter > 0 && now.Sub(t.lastOK[i]) > t.staleAfter {
			s.Health = HealthStale
			dirty = true
		}

		// seconds_in_error MUST NOT wrap
		if s.Health != HealthOK && s.SecondsInError < 65535 {
			s.SecondsInError++
			dirty = true
		}

		if dirty {
			changed = append(changed, i)
		}
	}
	return changed
}
