// internal/uss/master.go
package uss

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transport is the serial link the master exclusively owns.
type Transport interface {
	io.Reader
	io.Writer
}

// DigitalOutput is the RS-485 driver-enable line.
// High = transceiver driving the bus.
type DigitalOutput interface {
	SetOutput() error
	Write(high bool) error
}

// Optional transport capabilities.
type drainer interface{ Drain() error }
type inputResetter interface{ ResetInputBuffer() error }

// Config is the immutable bus configuration.
type Config struct {
	// Addresses is the slave address table; index = slave index.
	Addresses []byte
	BaudRate  int

	// MaxSlaves bounds len(Addresses). 0 = DefaultMaxSlaves.
	MaxSlaves int

	// Layout of every telegram. Zero value = DefaultLayout.
	Layout Layout
	Timing Timing

	// ParameterScanLimit caps the scans a SetParameter call may spend
	// waiting for its slave. 0 = wait forever.
	ParameterScanLimit int
}

// State is the scheduler phase.
type State int

const (
	StateIdle State = iota
	StateTransmitting
	StateReceiveWindow
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTransmitting:
		return "transmitting"
	case StateReceiveWindow:
		return "receive-window"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Option customizes a Master.
type Option func(*Master)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Master) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Master) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithSpin replaces the busy-wait step of the send gate.
func WithSpin(fn func()) Option {
	return func(m *Master) {
		if fn != nil {
			m.spin = fn
		}
	}
}

// Master drives one USS bus: one request/response exchange per
// Send/Receive pair, slaves addressed round-robin.
//
// Send, Receive and the SetParameter family must be called from a
// single goroutine. The process data setters and getters may be
// called concurrently with them.
type Master struct {
	mu     sync.Mutex // guards params and pzd
	params []paramChannel
	pzd    []processData

	slaves []byte
	layout Layout
	timing Timing
	limit  int

	port  Transport
	de    DigitalOutput
	clock Clock
	spin  func()
	log   *zap.Logger

	charTime time.Duration
	period   time.Duration
	nextSend time.Time
	cursor   int
	state    State
	answered bool

	txBuf []byte
	rxBuf []byte
}

// New configures a bus master. The driver-enable line is set up as
// an output and asserted.
func New(cfg Config, port Transport, de DigitalOutput, opts ...Option) (*Master, error) {
	if port == nil {
		return nil, errors.New("uss: transport required")
	}
	if de == nil {
		return nil, errors.New("uss: driver enable output required")
	}
	if len(cfg.Addresses) == 0 {
		return nil, ErrNoSlaves
	}

	maxSlaves := cfg.MaxSlaves
	if maxSlaves <= 0 {
		maxSlaves = DefaultMaxSlaves
	}
	if len(cfg.Addresses) > maxSlaves {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySlaves, len(cfg.Addresses), maxSlaves)
	}
	if cfg.BaudRate <= 0 {
		return nil, ErrBaudRate
	}

	layout := cfg.Layout
	if layout == (Layout{}) {
		layout = DefaultLayout
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	m := &Master{
		slaves: append([]byte(nil), cfg.Addresses...),
		layout: layout,
		timing: cfg.Timing.withDefaults(),
		limit:  cfg.ParameterScanLimit,
		port:   port,
		de:     de,
		clock:  WallClock,
		spin:   spinYield,
		log:    zap.NewNop(),
		txBuf:  make([]byte, layout.Len()),
		rxBuf:  make([]byte, layout.Len()),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.params = make([]paramChannel, len(m.slaves))
	m.pzd = make([]processData, len(m.slaves))
	for i := range m.slaves {
		m.params[i] = newParamChannel()
		m.pzd[i] = newProcessData(layout.PZDWords)
	}

	m.charTime = CharTime(cfg.BaudRate)
	m.period = CyclePeriod(layout.Len(), m.charTime, m.timing)

	if err := de.SetOutput(); err != nil {
		return nil, fmt.Errorf("uss: driver enable setup: %w", err)
	}
	if err := de.Write(true); err != nil {
		return nil, fmt.Errorf("uss: driver enable assert: %w", err)
	}

	m.log.Info("bus configured",
		zap.Int("slaves", len(m.slaves)),
		zap.Int("baud_rate", cfg.BaudRate),
		zap.Int("frame_len", layout.Len()),
		zap.Duration("char_time", m.charTime),
		zap.Duration("period", m.period),
	)

	return m, nil
}

// ---- introspection ----

func (m *Master) Slaves() []byte          { return append([]byte(nil), m.slaves...) }
func (m *Master) Layout() Layout          { return m.layout }
func (m *Master) Period() time.Duration   { return m.period }
func (m *Master) CharTime() time.Duration { return m.charTime }
func (m *Master) State() State            { return m.state }
func (m *Master) NextSend() time.Time     { return m.nextSend }

// Answered reports whether the last Receive accepted a valid telegram
// from its slave, whatever the parameter outcome.
func (m *Master) Answered() bool { return m.answered }

// Cursor is the index of the slave the next exchange addresses.
func (m *Master) Cursor() int {
	if m.cursor >= len(m.slaves) {
		return 0
	}
	return m.cursor
}

// Pending reports whether slave has an unacknowledged parameter request.
func (m *Master) Pending(slave int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validIndex(slave) && m.params[slave].pending()
}

// ---- send / receive ----

// Send waits for the cycle gate, then transmits the telegram of the
// cursor slave and switches the transceiver to receive.
// A write failure is returned; the receive window is opened anyway so
// the following Receive moves the cursor on.
func (m *Master) Send() error {
	m.waitSendGate()
	m.nextSend = m.clock.Now().Add(m.period)

	if m.cursor >= len(m.slaves) {
		m.cursor = 0
	}
	idx := m.cursor

	m.mu.Lock()
	t := Telegram{
		Addr: m.slaves[idx],
		PKW:  m.params[idx].outbound(),
		PZD:  m.pzd[idx].outbound(),
	}
	m.mu.Unlock()
	m.layout.EncodeTo(m.txBuf, t)

	m.state = StateTransmitting

	if r, ok := m.port.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			m.log.Debug("input reset failed", zap.Error(err))
		}
	}

	m.driverEnable(true)
	_, err := m.port.Write(m.txBuf)
	if err == nil {
		if d, ok := m.port.(drainer); ok {
			err = d.Drain()
		}
	}
	m.clock.Sleep(time.Duration(m.timing.StartDelayChars) * m.charTime)
	m.driverEnable(false)

	m.state = StateReceiveWindow

	if err != nil {
		m.log.Warn("telegram write failed",
			zap.Int("slave", idx),
			zap.Uint8("addr", m.slaves[idx]&AddrMask),
			zap.Error(err),
		)
		return fmt.Errorf("uss: send slave=%d: %w", idx, err)
	}

	m.log.Debug("telegram sent",
		zap.Int("slave", idx),
		zap.Binary("frame", m.txBuf),
	)
	return nil
}

// Receive reads the response of the slave addressed by the last Send.
// On a valid frame the slave's status word and actual value are
// updated and a pending parameter request is resolved. Any frame
// failure yields OutcomeNoResponse and leaves the request pending.
// The transceiver is switched back to transmit and the cursor advances.
func (m *Master) Receive() Outcome {
	if m.cursor >= len(m.slaves) {
		m.cursor = 0
	}
	idx := m.cursor
	m.answered = false
	defer m.closeWindow()

	n := m.readFrame()

	t, err := m.layout.Decode(m.rxBuf[:n])
	if err != nil {
		m.log.Debug("response rejected",
			zap.Int("slave", idx),
			zap.Error(err),
		)
		return OutcomeNoResponse
	}

	want := m.slaves[idx] & AddrMask
	if t.Addr != want {
		m.log.Debug("response rejected",
			zap.Int("slave", idx),
			zap.Uint8("addr", t.Addr),
			zap.Uint8("want_addr", want),
		)
		return OutcomeNoResponse
	}
	m.answered = true

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pzd[idx].update(t.PZD)

	if !m.params[idx].pending() {
		return OutcomeSuccess
	}

	req := m.params[idx].req
	out := m.params[idx].resolve(t.PKW)
	if out != OutcomeSuccess {
		m.log.Info("parameter rejected",
			zap.Int("slave", idx),
			zap.Uint16("param", req.Param()),
			zap.Stringer("outcome", out),
		)
	}
	return out
}

// closeWindow ends an exchange: transceiver back to transmit, next slave.
func (m *Master) closeWindow() {
	m.driverEnable(true)
	m.cursor++
	m.state = StateIdle
}

func (m *Master) readFrame() int {
	got := 0
	for got < len(m.rxBuf) {
		n, err := m.port.Read(m.rxBuf[got:])
		got += n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				m.log.Debug("read failed", zap.Error(err))
			}
			break
		}
		if n == 0 {
			break
		}
	}
	return got
}

// waitSendGate spins until the next permitted send time. The wait is
// abandoned once it exceeds the anomaly bound.
func (m *Master) waitSendGate() {
	start := m.clock.Now()
	for {
		now := m.clock.Now()
		if !now.Before(m.nextSend) {
			if !m.nextSend.IsZero() && now.Sub(m.nextSend) >= m.timing.AnomalyBound {
				m.log.Debug("send gate overdue", zap.Duration("late", now.Sub(m.nextSend)))
			}
			return
		}
		if now.Sub(start) >= m.timing.AnomalyBound {
			m.log.Warn("send gate wait abandoned",
				zap.Duration("waited", now.Sub(start)),
				zap.Time("next_send", m.nextSend),
			)
			return
		}
		m.spin()
	}
}

func (m *Master) driverEnable(high bool) {
	if err := m.de.Write(high); err != nil {
		m.log.Warn("driver enable write failed", zap.Bool("high", high), zap.Error(err))
	}
}

// ---- parameter channel ----

// SetParameterWord writes a word parameter to slave and blocks,
// scanning the bus, until the slave has answered.
// The error is non-nil only for an unknown slave, a transport write
// failure or an exhausted scan limit; protocol rejections are reported
// through the Outcome.
func (m *Master) SetParameterWord(param, value uint16, slave int) (Outcome, error) {
	return m.setParameter(slave, func(c *paramChannel) { c.requestWord(param, value) })
}

// SetParameterDword writes a double word parameter to slave.
func (m *Master) SetParameterDword(param uint16, value uint32, slave int) (Outcome, error) {
	return m.setParameter(slave, func(c *paramChannel) { c.requestDword(param, value) })
}

// SetParameterFloat writes a single precision parameter to slave.
func (m *Master) SetParameterFloat(param uint16, value float32, slave int) (Outcome, error) {
	return m.setParameter(slave, func(c *paramChannel) { c.requestFloat(param, value) })
}

func (m *Master) setParameter(slave int, record func(*paramChannel)) (Outcome, error) {
	m.mu.Lock()
	if !m.validIndex(slave) {
		m.mu.Unlock()
		return OutcomeNoResponse, fmt.Errorf("%w: %d", ErrSlaveIndex, slave)
	}
	record(&m.params[slave])
	req := m.params[slave].req
	m.mu.Unlock()

	m.log.Debug("parameter requested",
		zap.Int("slave", slave),
		zap.Uint16("pke", req.PKE),
		zap.Uint16("pwe_high", req.PWEHigh),
		zap.Uint16("pwe_low", req.PWELow),
	)

	out := OutcomeNoResponse
	scans := 0
	for m.Pending(slave) {
		if m.limit > 0 && scans >= m.limit {
			m.cancelParameter(slave)
			return OutcomeNoResponse, fmt.Errorf("%w: slave=%d scans=%d", ErrScanLimit, slave, scans)
		}
		if err := m.Send(); err != nil {
			m.closeWindow()
			m.cancelParameter(slave)
			return OutcomeNoResponse, err
		}
		out = m.Receive()
		scans++
	}

	return out, nil
}

func (m *Master) cancelParameter(slave int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params[slave].clear()
}
