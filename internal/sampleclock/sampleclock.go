// Package sampleclock derives the monotonic (sample_time, host_time) pair
// a host audio server uses to schedule IO cycles against a device's fixed
// sample rate and period.
package sampleclock

import (
	"sync/atomic"
	"time"
)

// Ticker returns the current host-monotonic time in nanoseconds. Injected
// so tests can drive the clock deterministically instead of depending on
// wall-clock time.
type Ticker func() int64

// Clock models one device's sample clock: a zero point captured at
// start_io, and a fixed period used to quantize zero-timestamp queries to
// period boundaries.
type Clock struct {
	now Ticker

	sampleRate   int64
	periodFrames int64 // P
	nsPerPeriod  int64 // P * 1e9 / R

	ticksAtZero atomic.Int64
	running     atomic.Bool
}

// New returns a Clock for the given sample rate and period (in frames).
// now defaults to a real monotonic source if nil.
func New(sampleRate, periodFrames int, now Ticker) *Clock {
	if now == nil {
		now = defaultTicker
	}
	return &Clock{
		now:          now,
		sampleRate:   int64(sampleRate),
		periodFrames: int64(periodFrames),
		nsPerPeriod:  int64(periodFrames) * 1_000_000_000 / int64(sampleRate),
	}
}

// StartIO snapshots the zero point and marks the clock running.
func (c *Clock) StartIO() {
	c.ticksAtZero.Store(c.now())
	c.running.Store(true)
}

// StopIO marks the clock stopped. ZeroTimestamp remains queryable while
// stopped and reports sample time 0 at the last zero point until the
// next StartIO rebases it.
func (c *Clock) StopIO() {
	c.running.Store(false)
}

// Running reports whether StartIO has been called without a matching StopIO.
func (c *Clock) Running() bool {
	return c.running.Load()
}

// instanceSeed is a fixed non-zero value returned as the zero-timestamp
// seed; spec.md requires only that it be constant and non-zero.
const instanceSeed = 1

// ZeroTimestamp returns the (sampleTime, hostTime, seed) tuple for the
// most recent period boundary at or before now. sampleTime and hostTime
// refer to the same period boundary by construction: hostTime is derived
// from the same integer period count used to compute sampleTime. While
// the clock is not running (before StartIO or after StopIO) sampleTime is
// 0 and hostTime is the zero point.
func (c *Clock) ZeroTimestamp() (sampleTime float64, hostTime uint64, seed uint64) {
	ticksAtZero := c.ticksAtZero.Load()
	if !c.running.Load() {
		return 0, uint64(ticksAtZero), instanceSeed
	}
	elapsed := c.now() - ticksAtZero
	if elapsed < 0 {
		elapsed = 0
	}

	periods := elapsed / c.nsPerPeriod
	sampleTime = float64(periods * c.periodFrames)
	hostTime = uint64(ticksAtZero + periods*c.nsPerPeriod)
	return sampleTime, hostTime, instanceSeed
}

// NsPerPeriod exposes the derived period duration, e.g. for diagnostics.
func (c *Clock) NsPerPeriod() int64 { return c.nsPerPeriod }

// monoEpoch anchors defaultTicker. time.Since reads Go's monotonic clock,
// so the ticks never jump with wall-clock adjustments.
var monoEpoch = time.Now()

func defaultTicker() int64 {
	return int64(time.Since(monoEpoch))
}
