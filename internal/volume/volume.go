// Package volume implements the atomic gain/mute pair exposed per device,
// plus the linear-scalar <-> decibel conversions used at the host
// boundary.
package volume

import (
	"math"
	"sync/atomic"
)

// MinDB is the bottom of the supported attenuation range. A scalar of 0
// (full mute-equivalent) maps to MinDB; values below it are clamped.
const MinDB = -96.0

// Control holds one device's gain and mute state as lock-free atomics so
// it can be read from the realtime codec boundary without blocking.
type Control struct {
	gainBits atomic.Uint32 // float32 bits, linear scalar in [0, 1]
	mute     atomic.Bool
}

// New returns a Control at unity gain, unmuted.
func New() *Control {
	c := &Control{}
	c.gainBits.Store(math.Float32bits(1.0))
	return c
}

// SetScalar sets the linear gain, clamped to [0, 1].
func (c *Control) SetScalar(v float32) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.gainBits.Store(math.Float32bits(v))
}

// Scalar returns the current linear gain in [0, 1].
func (c *Control) Scalar() float32 {
	return math.Float32frombits(c.gainBits.Load())
}

// SetDB sets the gain from a decibel value, clamped to [MinDB, 0].
func (c *Control) SetDB(db float32) {
	c.SetScalar(DBToScalar(db))
}

// DB returns the current gain expressed in decibels.
func (c *Control) DB() float32 {
	return ScalarToDB(c.Scalar())
}

// SetMute sets the mute flag.
func (c *Control) SetMute(m bool) { c.mute.Store(m) }

// Mute reports the current mute flag.
func (c *Control) Mute() bool { return c.mute.Load() }

// Effective returns the gain that should actually be applied to audio:
// 0 when muted, the scalar gain otherwise. Wait-free; safe to call from
// the codec boundary once per frame.
func (c *Control) Effective() float32 {
	if c.mute.Load() {
		return 0
	}
	return c.Scalar()
}

// ScalarToDB converts a linear gain in [0, 1] to decibels in [MinDB, 0].
func ScalarToDB(s float32) float32 {
	if s <= 0 {
		return MinDB
	}
	db := float32(20.0 * math.Log10(float64(s)))
	if db < MinDB {
		return MinDB
	}
	return db
}

// DBToScalar converts a decibel value to a linear gain in [0, 1].
// Values at or below MinDB map to 0.
func DBToScalar(db float32) float32 {
	if db <= MinDB {
		return 0
	}
	return float32(math.Pow(10, float64(db)/20.0))
}
