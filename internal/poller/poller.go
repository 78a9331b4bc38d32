// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/uss-master/internal/uss"
)

// Bus abstracts the USS master operations needed by the poller.
type Bus interface {
	Slaves() []byte
	Cursor() int

	Send() error
	Receive() uss.Outcome
	Answered() bool

	SetParameterWord(param, value uint16, slave int) (uss.Outcome, error)
	SetParameterDword(param uint16, value uint32, slave int) (uss.Outcome, error)
	SetParameterFloat(param uint16, value float32, slave int) (uss.Outcome, error)

	SetMainsetpoint(value uint16, slave int)
	SetCtlFlag(flags uint16, slave int)
	ClearCtlFlag(flags uint16, slave int)

	StatusWord(slave int) uint16
	ActualValue(slave int) uint16
	ControlWord(slave int) uint16
	Mainsetpoint(slave int) uint16
}

// ErrStopped is returned by Submit once Run has returned.
var ErrStopped = errors.New("poller: stopped")

type paramJob struct {
	req  ParamRequest
	done chan ParamResult
}

// Poller owns one bus. Scans and parameter writes run on the goroutine
// executing Run; other goroutines submit writes and touch process data.
type Poller struct {
	busID  string
	bus    Bus
	slaves []byte
	log    *zap.Logger

	jobs    chan paramJob
	stopped chan struct{}

	now func() time.Time
}

// New creates a poller over an already configured bus.
func New(busID string, bus Bus, log *zap.Logger) (*Poller, error) {
	if busID == "" {
		return nil, errors.New("poller: bus id required")
	}
	if bus == nil {
		return nil, errors.New("poller: bus required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Poller{
		busID:   busID,
		bus:     bus,
		slaves:  bus.Slaves(),
		log:     log,
		jobs:    make(chan paramJob),
		stopped: make(chan struct{}),
		now:     time.Now,
	}, nil
}

func (p *Poller) BusID() string { return p.busID }

// Slaves returns the slave address table.
func (p *Poller) Slaves() []byte { return append([]byte(nil), p.slaves...) }

// PollOnce performs exactly one send/receive pair with the cursor slave.
func (p *Poller) PollOnce() ScanResult {
	idx := p.bus.Cursor()

	res := ScanResult{
		BusID:   p.busID,
		Slave:   idx,
		Address: p.slaves[idx],
	}

	if err := p.bus.Send(); err != nil {
		res.Err = err
	}
	res.Outcome = p.bus.Receive()
	res.Answered = p.bus.Answered()
	res.At = p.now()

	res.StatusWord = p.bus.StatusWord(idx)
	res.ActualValue = p.bus.ActualValue(idx)
	res.ControlWord = p.bus.ControlWord(idx)
	res.Setpoint = p.bus.Mainsetpoint(idx)

	return res
}

// Execute performs a parameter write directly. It must not be called
// concurrently with Run; use Submit while Run is active.
func (p *Poller) Execute(req ParamRequest) ParamResult {
	res := ParamResult{Request: req}

	switch req.Kind {
	case ParamWord:
		res.Outcome, res.Err = p.bus.SetParameterWord(req.Number, uint16(req.Value), req.Slave)
	case ParamDword:
		res.Outcome, res.Err = p.bus.SetParameterDword(req.Number, uint32(req.Value), req.Slave)
	case ParamFloat:
		res.Outcome, res.Err = p.bus.SetParameterFloat(req.Number, float32(req.Value), req.Slave)
	default:
		res.Outcome = uss.OutcomeNoResponse
		res.Err = fmt.Errorf("poller: unknown parameter kind %v", req.Kind)
	}
	res.At = p.now()

	if err := res.Failure(); err != nil {
		p.log.Warn("parameter write failed",
			zap.Int("slave", req.Slave),
			zap.Uint16("param", req.Number),
			zap.Stringer("kind", req.Kind),
			zap.Error(err),
		)
	} else {
		p.log.Info("parameter written",
			zap.Int("slave", req.Slave),
			zap.Uint16("param", req.Number),
			zap.Float64("value", req.Value),
		)
	}
	return res
}

// Submit hands a parameter write to the running scan loop and waits
// for its result. Cancelling ctx stops the wait, not the write.
func (p *Poller) Submit(ctx context.Context, req ParamRequest) (ParamResult, error) {
	job := paramJob{req: req, done: make(chan ParamResult, 1)}

	select {
	case p.jobs <- job:
	case <-p.stopped:
		return ParamResult{}, ErrStopped
	case <-ctx.Done():
		return ParamResult{}, ctx.Err()
	}

	select {
	case res := <-job.done:
		return res, nil
	case <-ctx.Done():
		return ParamResult{}, ctx.Err()
	}
}

// ---- process data (safe from any goroutine) ----

func (p *Poller) SetSetpoint(value uint16, slave int) { p.bus.SetMainsetpoint(value, slave) }
func (p *Poller) SetCtlFlag(flags uint16, slave int)  { p.bus.SetCtlFlag(flags, slave) }
func (p *Poller) ClearCtlFlag(flags uint16, slave int) {
	p.bus.ClearCtlFlag(flags, slave)
}

// SlaveIndex maps a bus address to its slave index.
func (p *Poller) SlaveIndex(addr byte) (int, bool) {
	for i, a := range p.slaves {
		if a&uss.AddrMask == addr&uss.AddrMask {
			return i, true
		}
	}
	return 0, false
}
