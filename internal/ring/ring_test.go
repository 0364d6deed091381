package ring

import (
	"sync"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	r := New(8, 2) // 8 frames, stereo

	src := []float32{1, 1, 2, 2, 3, 3}
	n := r.Write(src)
	if n != 3 {
		t.Fatalf("Write: got %d, want 3", n)
	}

	dst := make([]float32, 6)
	got := r.Read(dst)
	if got != 3 {
		t.Fatalf("Read: got %d, want 3", got)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestZeroLengthIsNoop(t *testing.T) {
	r := New(4, 1)
	if n := r.Write(nil); n != 0 {
		t.Errorf("Write(nil) = %d, want 0", n)
	}
	if n := r.Read(nil); n != 0 {
		t.Errorf("Read(nil) = %d, want 0", n)
	}
}

func TestOverflowDropsExcessAndReturnsShortCount(t *testing.T) {
	r := New(8192, 1)

	src := make([]float32, 8193)
	for i := range src {
		src[i] = float32(i)
	}
	n := r.Write(src)
	if n != 8192 {
		t.Fatalf("Write: got %d, want 8192", n)
	}
	if avail := r.Available(); avail != 8192 {
		t.Fatalf("Available: got %d, want 8192", avail)
	}

	// A subsequent push into the now-full ring returns 0.
	n = r.Write([]float32{1})
	if n != 0 {
		t.Fatalf("Write into full ring: got %d, want 0", n)
	}
}

func TestUnderflowReturnsShortCount(t *testing.T) {
	r := New(16, 1)
	r.Write([]float32{1, 2, 3})

	dst := make([]float32, 10)
	got := r.Read(dst)
	if got != 3 {
		t.Fatalf("Read: got %d, want 3", got)
	}
}

func TestWrapAroundSplitsAcrossTwoCopies(t *testing.T) {
	r := New(4, 1)

	// Fill and drain to push head/tail near the wrap boundary.
	r.Write([]float32{1, 2, 3})
	out := make([]float32, 3)
	r.Read(out)

	// head is now at 3, tail at 3; capacity is 4, so writing 3 more frames
	// must wrap: one frame at index 3, two frames at index 0-1.
	n := r.Write([]float32{4, 5, 6})
	if n != 3 {
		t.Fatalf("Write: got %d, want 3", n)
	}

	dst := make([]float32, 3)
	got := r.Read(dst)
	if got != 3 {
		t.Fatalf("Read: got %d, want 3", got)
	}
	want := []float32{4, 5, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestInvariantTailLEHeadLECapacity(t *testing.T) {
	r := New(8, 1)
	for i := 0; i < 20; i++ {
		r.Write([]float32{float32(i)})
		if i%3 == 0 {
			r.Read(make([]float32, 1))
		}
		h := r.head.Load()
		tl := r.tail.Load()
		if !(tl <= h && h <= tl+r.capacity) {
			t.Fatalf("invariant violated: tail=%d head=%d capacity=%d", tl, h, r.capacity)
		}
	}
}

// TestConcurrentProducerConsumerPreservesOrder exercises the SPSC
// discipline under the race detector: one writer, one reader, frames
// checked for a strictly increasing, gap-free-or-truncated sequence.
func TestConcurrentProducerConsumerPreservesOrder(t *testing.T) {
	r := New(64, 1)
	const total = 5000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			frame := []float32{float32(i)}
			for r.Write(frame) == 0 {
				// ring full; spin (test-only, not realtime code)
			}
		}
	}()

	var last float32 = -1
	go func() {
		defer wg.Done()
		dst := make([]float32, 1)
		seen := 0
		for seen < total {
			if r.Read(dst) == 1 {
				if dst[0] != last+1 {
					t.Errorf("out of order, duplicated or missing frame: got %v after %v", dst[0], last)
				}
				last = dst[0]
				seen++
			}
		}
	}()

	wg.Wait()
}
