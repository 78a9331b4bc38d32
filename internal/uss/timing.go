// internal/uss/timing.go
package uss

import (
	"runtime"
	"time"
)

// Clock is the time source of the bus scheduler.
// Tests substitute a virtual clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Now() time.Time        { return time.Now() }
func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// WallClock is the real-time clock.
var WallClock Clock = wallClock{}

// Timing holds the tunables of the bus timing discipline.
// Zero fields take the protocol defaults.
type Timing struct {
	MaxResponseDelay   time.Duration
	MasterComputeDelay time.Duration
	StartDelayChars    int
	AnomalyBound       time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.MaxResponseDelay <= 0 {
		t.MaxResponseDelay = DefaultMaxResponseDelay
	}
	if t.MasterComputeDelay <= 0 {
		t.MasterComputeDelay = DefaultMasterComputeDelay
	}
	if t.StartDelayChars <= 0 {
		t.StartDelayChars = DefaultStartDelayChars
	}
	if t.AnomalyBound <= 0 {
		t.AnomalyBound = DefaultAnomalyBound
	}
	return t
}

// CharTime is the transmission time of one 11-bit character at baud.
func CharTime(baud int) time.Duration {
	return time.Duration(int64(CharTimeBase) * BaudBase / int64(baud))
}

// TelegramTime is the runtime allowance for one frame of frameLen bytes.
func TelegramTime(frameLen int, char time.Duration) time.Duration {
	return time.Duration(float64(frameLen) * float64(char) * telegramRuntimeFactor)
}

// CyclePeriod is the minimum time between two consecutive sends:
// request + response runtime, start delay, slave response delay and
// master compute margin.
func CyclePeriod(frameLen int, char time.Duration, t Timing) time.Duration {
	telegram := TelegramTime(frameLen, char)
	return 2*telegram +
		time.Duration(t.StartDelayChars)*char +
		t.MaxResponseDelay +
		t.MasterComputeDelay
}

// spinYield is the default busy-wait step.
func spinYield() { runtime.Gosched() }
