package facade

import (
	"testing"

	"github.com/vaudio/bridge/internal/driver"
)

func newTestDriver() *Driver {
	return New(driver.New(driver.DefaultOptions()))
}

func TestStartStopIOArmsAndDisarmsClock(t *testing.T) {
	d := newTestDriver()
	if err := d.StartIO(driver.Output); err != nil {
		t.Fatalf("StartIO: %v", err)
	}
	if !d.state.OutputClock.Running() {
		t.Fatal("expected output clock to be running after StartIO")
	}
	d.StopIO(driver.Output)
	if d.state.OutputClock.Running() {
		t.Fatal("expected output clock to be stopped after StopIO")
	}
}

func TestZeroTimestampBeforeStartIOIsZero(t *testing.T) {
	d := newTestDriver()
	sampleTime, _, _ := d.ZeroTimestamp(driver.Input)
	if sampleTime != 0 {
		t.Errorf("sampleTime = %v, want 0 before StartIO", sampleTime)
	}
}

func TestDoIOWriteMixOnOutput(t *testing.T) {
	d := newTestDriver()
	buf := []float32{0.1, 0.2, 0.3, 0.4}
	if err := d.DoIO(driver.Output, WriteMix, 2, buf); err != nil {
		t.Fatalf("DoIO: %v", err)
	}
	if got := d.state.OutputRing.Available(); got != 2 {
		t.Errorf("ring available = %d, want 2", got)
	}
}

func TestDoIOReadInputZeroFillsOnUnderrun(t *testing.T) {
	d := newTestDriver()
	buf := make([]float32, 8) // 4 frames * 2 channels
	for i := range buf {
		buf[i] = 9.0
	}
	if err := d.DoIO(driver.Input, ReadInput, 4, buf); err != nil {
		t.Fatalf("DoIO: %v", err)
	}
	for i, v := range buf {
		if v != 0 {
			t.Errorf("buf[%d] = %v, want 0 (zero-filled underrun)", i, v)
		}
	}
}

func TestDoIORejectsMismatchedOperation(t *testing.T) {
	d := newTestDriver()
	buf := make([]float32, 4)
	err := d.DoIO(driver.Output, ReadInput, 2, buf)
	if _, ok := err.(ErrUnsupportedOperation); !ok {
		t.Fatalf("err = %v (%T), want ErrUnsupportedOperation", err, err)
	}
}

func TestVolumeScalarGetSet(t *testing.T) {
	d := newTestDriver()
	if err := d.SetVolumeScalar(driver.Output, 0.5); err != nil {
		t.Fatalf("SetVolumeScalar: %v", err)
	}
	if got := d.GetVolumeScalar(driver.Output); got != 0.5 {
		t.Errorf("GetVolumeScalar = %v, want 0.5", got)
	}
}

func TestVolumeDBGetSet(t *testing.T) {
	d := newTestDriver()
	if err := d.SetVolumeDB(driver.Input, -6); err != nil {
		t.Fatalf("SetVolumeDB: %v", err)
	}
	got := d.GetVolumeDB(driver.Input)
	if got < -6.5 || got > -5.5 {
		t.Errorf("GetVolumeDB = %v, want ~-6", got)
	}
}

func TestMuteGetSetIsIndependentPerDevice(t *testing.T) {
	d := newTestDriver()
	d.SetMute(driver.Output, true)
	if !d.GetMute(driver.Output) {
		t.Error("expected output to be muted")
	}
	if d.GetMute(driver.Input) {
		t.Error("expected input to be unaffected by output mute")
	}
}

func TestDeviceAndVolumeUIDsAreStableAndDistinct(t *testing.T) {
	uids := map[string]bool{
		DeviceUID(driver.Output): true,
		DeviceUID(driver.Input):  true,
		VolumeUID(driver.Output): true,
		VolumeUID(driver.Input):  true,
	}
	if len(uids) != 4 {
		t.Fatalf("expected 4 distinct UIDs, got %d", len(uids))
	}
	if DeviceUID(driver.Output) != OutputUID || VolumeUID(driver.Input) != InputVolumeUID {
		t.Error("UID helpers disagree with exported constants")
	}
}
