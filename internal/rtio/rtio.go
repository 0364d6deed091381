// Package rtio implements the realtime IO handler: the function the host
// audio server calls on its realtime thread every IO cycle. Nothing in
// this package may allocate, lock, or perform a syscall other than the
// memory copies inside ring.Ring — see spec.md §4.3 / §9.
package rtio

import "github.com/vaudio/bridge/internal/ring"

// WriteMix drains buf (the host's mixed output buffer) into the egress
// ring. If the ring has fallen behind and cannot accept the whole
// buffer, the excess is silently dropped — this function never retries
// or spins.
func WriteMix(r *ring.Ring, buf []float32) {
	r.Write(buf)
}

// ReadInput fills buf from the ingress ring. Any shortfall (the ring ran
// dry) is zero-filled in place; this is the defined underrun behavior.
func ReadInput(r *ring.Ring, buf []float32, channels int) {
	got := r.Read(buf)
	gotSamples := got * channels
	for i := gotSamples; i < len(buf); i++ {
		buf[i] = 0
	}
}
