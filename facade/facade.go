// Package facade is the thin external surface a host audio-server plug-in
// adapter would bind to: stable object identifiers for the two devices,
// their streams, and their volume controls, plus the handful of hooks
// those identifiers dispatch to (spec.md §4.7). It never hands the rings,
// workers, or codec states to the caller.
package facade

import (
	"fmt"

	"github.com/vaudio/bridge/internal/config"
	"github.com/vaudio/bridge/internal/driver"
	"github.com/vaudio/bridge/internal/ring"
	"github.com/vaudio/bridge/internal/rtio"
	"github.com/vaudio/bridge/internal/sampleclock"
	"github.com/vaudio/bridge/internal/volume"
)

// Stable UIDs for lookup by the host plug-in's object table, mirroring
// the kObjectID_* naming a C HAL adapter would use.
const (
	OutputUID       = "vaudiobridge:device:output"
	InputUID        = "vaudiobridge:device:input"
	OutputStreamUID = "vaudiobridge:stream:output"
	InputStreamUID  = "vaudiobridge:stream:input"
	OutputVolumeUID = "vaudiobridge:volume:output"
	InputVolumeUID  = "vaudiobridge:volume:input"
)

// IOOperation selects which realtime operation do_io performs; a device
// only declares will-do for one of these (spec.md §4.3).
type IOOperation int

const (
	WriteMix IOOperation = iota
	ReadInput
)

// ErrUnsupportedOperation is returned by DoIO when op does not match the
// device's declared will-do operation.
type ErrUnsupportedOperation struct {
	Device driver.Device
	Op     IOOperation
}

func (e ErrUnsupportedOperation) Error() string {
	return fmt.Sprintf("facade: device %s does not support operation %d", e.Device, e.Op)
}

// Driver is the process-wide entry point a real ABI adapter holds one
// pointer to. It wraps an *driver.State and narrows it to exactly the
// hooks the host needs: start/stop IO, zero-timestamp queries, the
// realtime do_io dispatch, and volume/mute get/set.
type Driver struct {
	state *driver.State
}

// New wraps an already-constructed driver state. The caller is
// responsible for calling state.Start before any StartIO call will carry
// audio to or from the peer.
func New(state *driver.State) *Driver {
	return &Driver{state: state}
}

// StartIO arms the given device's sample clock, mirroring spec.md §4.2's
// start_io: snapshot ticks_at_zero, zero sample_time, flip running.
func (d *Driver) StartIO(device driver.Device) error {
	clk := d.clockFor(device)
	clk.StartIO()
	return nil
}

// StopIO clears the given device's running flag.
func (d *Driver) StopIO(device driver.Device) {
	d.clockFor(device).StopIO()
}

// ZeroTimestamp returns the (sampleTime, hostTime, seed) tuple the host
// uses to align its IO cycle to the driver's clock (spec.md §4.2).
func (d *Driver) ZeroTimestamp(device driver.Device) (sampleTime float64, hostTime uint64, seed uint64) {
	return d.clockFor(device).ZeroTimestamp()
}

// DoIO executes the realtime write-mix or read-input operation declared
// for device. It must not block, allocate, or take a lock; both
// internal/ring operations it calls down to meet that bar.
func (d *Driver) DoIO(device driver.Device, op IOOperation, ioSize int, buf []float32) error {
	r := d.ringFor(device)
	switch {
	case device == driver.Output && op == WriteMix:
		rtio.WriteMix(r, buf[:ioSize*config.Channels])
		return nil
	case device == driver.Input && op == ReadInput:
		rtio.ReadInput(r, buf[:ioSize*config.Channels], config.Channels)
		return nil
	default:
		return ErrUnsupportedOperation{Device: device, Op: op}
	}
}

// GetVolumeScalar returns the device's linear gain in [0, 1].
func (d *Driver) GetVolumeScalar(device driver.Device) float32 {
	return d.volumeFor(device).Scalar()
}

// SetVolumeScalar sets the device's linear gain, clamped to [0, 1].
func (d *Driver) SetVolumeScalar(device driver.Device, v float32) error {
	d.volumeFor(device).SetScalar(v)
	return nil
}

// GetVolumeDB returns the device's gain in dB, floored at volume.MinDB.
func (d *Driver) GetVolumeDB(device driver.Device) float32 {
	return d.volumeFor(device).DB()
}

// SetVolumeDB sets the device's gain in dB, clamped to [volume.MinDB, 0].
func (d *Driver) SetVolumeDB(device driver.Device, db float32) error {
	d.volumeFor(device).SetDB(db)
	return nil
}

// GetMute reports whether the device's output is currently silenced.
func (d *Driver) GetMute(device driver.Device) bool {
	return d.volumeFor(device).Mute()
}

// SetMute silences or unsilences the device without touching its gain.
func (d *Driver) SetMute(device driver.Device, mute bool) {
	d.volumeFor(device).SetMute(mute)
}

// DeviceUID returns the stable object identifier for device.
func DeviceUID(device driver.Device) string {
	if device == driver.Output {
		return OutputUID
	}
	return InputUID
}

// VolumeUID returns the stable object identifier for device's level control.
func VolumeUID(device driver.Device) string {
	if device == driver.Output {
		return OutputVolumeUID
	}
	return InputVolumeUID
}

func (d *Driver) ringFor(device driver.Device) *ring.Ring {
	if device == driver.Output {
		return d.state.OutputRing
	}
	return d.state.InputRing
}

func (d *Driver) clockFor(device driver.Device) *sampleclock.Clock {
	if device == driver.Output {
		return d.state.OutputClock
	}
	return d.state.InputClock
}

func (d *Driver) volumeFor(device driver.Device) *volume.Control {
	if device == driver.Output {
		return d.state.OutputVolume
	}
	return d.state.InputVolume
}
