// Package driver ties the realtime plane (rings, sample clocks, volume
// controls) and the transport plane (egress/ingress workers) together
// into the single process-wide state object a host plug-in instantiates
// once and destroys on unload (spec.md §9).
package driver

import (
	"context"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/vaudio/bridge/internal/codec"
	"github.com/vaudio/bridge/internal/config"
	"github.com/vaudio/bridge/internal/ring"
	"github.com/vaudio/bridge/internal/sampleclock"
	"github.com/vaudio/bridge/internal/transport"
	"github.com/vaudio/bridge/internal/volume"
)

// Device identifies one of the two virtual endpoints.
type Device int

const (
	Output Device = iota
	Input
)

func (d Device) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// EgressDialer / IngressDialer let the caller choose the transport's
// address family and security; spec.md places both out of scope for
// the core.
type EgressDialer = transport.Dialer
type IngressDialer = transport.Dialer

// Options configures a State at construction time. All fields are
// compile/load-time constants per spec.md §6; there is no runtime
// reconfiguration of format or sizing.
type Options struct {
	SampleRate     int
	Channels       int
	RingCapacity   int
	CodecFrameSize int
	MaxPacketBytes int
	BitrateBPS     int
	ClockPeriod    int

	EgressDial  EgressDialer
	IngressDial IngressDialer
}

// DefaultOptions returns Options populated from internal/config's fixed
// constants, with no dialers set (the caller must supply both).
func DefaultOptions() Options {
	return Options{
		SampleRate:     config.SampleRate,
		Channels:       config.Channels,
		RingCapacity:   config.RingCapacityFrames,
		CodecFrameSize: config.CodecFrameSize,
		MaxPacketBytes: config.MaxPacketBytes,
		BitrateBPS:     config.OpusBitrateBPS,
		ClockPeriod:    config.ClockPeriodFrames,
	}
}

// State is the driver's process-wide state: one egress ring/clock/volume
// for the Output device, one ingress ring/clock/volume for the Input
// device, and the two transport workers bridging them to the peer.
type State struct {
	opts Options
	id   uuid.UUID // per-instance correlation ID for log lines

	OutputRing   *ring.Ring
	InputRing    *ring.Ring
	OutputClock  *sampleclock.Clock
	InputClock   *sampleclock.Clock
	OutputVolume *volume.Control
	InputVolume  *volume.Control

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New allocates and zeroes both rings and constructs the process-wide
// state. Workers are not started until Start is called.
func New(opts Options) *State {
	s := &State{
		opts:         opts,
		id:           uuid.New(),
		OutputRing:   ring.New(opts.RingCapacity, opts.Channels),
		InputRing:    ring.New(opts.RingCapacity, opts.Channels),
		OutputClock:  sampleclock.New(opts.SampleRate, opts.ClockPeriod, nil),
		InputClock:   sampleclock.New(opts.SampleRate, opts.ClockPeriod, nil),
		OutputVolume: volume.New(),
		InputVolume:  volume.New(),
	}
	return s
}

// ID returns this instance's correlation ID, used only in log lines.
func (s *State) ID() uuid.UUID { return s.id }

// Start spawns the egress and ingress transport workers. Safe to call
// once; subsequent calls are no-ops.
func (s *State) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.opts.EgressDial == nil || s.opts.IngressDial == nil {
		return errNoDialer
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true

	enc, err := codec.NewOpusEncoder(s.opts.SampleRate, s.opts.Channels, s.opts.BitrateBPS)
	if err != nil {
		cancel()
		s.started = false
		return err
	}
	dec, err := codec.NewOpusDecoder(s.opts.SampleRate, s.opts.Channels)
	if err != nil {
		cancel()
		s.started = false
		return err
	}

	codecEnc := codec.NewEncoder(enc, s.OutputVolume, s.opts.Channels, s.opts.CodecFrameSize, s.opts.MaxPacketBytes)
	codecDec := codec.NewDecoder(dec, s.InputVolume, s.opts.Channels, s.opts.CodecFrameSize)

	log.Printf("[driver %s] starting", s.id)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		transport.EgressWorker(ctx, s.opts.EgressDial, s.OutputRing, codecEnc, s.opts.CodecFrameSize, s.opts.Channels)
	}()
	go func() {
		defer s.wg.Done()
		transport.IngressWorker(ctx, s.opts.IngressDial, s.InputRing, codecDec, s.opts.CodecFrameSize, s.opts.Channels, s.opts.MaxPacketBytes)
	}()

	return nil
}

// Close stops both workers and waits for them to exit. Safe to call
// even if Start failed or was never called.
func (s *State) Close() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	log.Printf("[driver %s] stopped", s.id)
}

type dialError string

func (e dialError) Error() string { return string(e) }

const errNoDialer = dialError("driver: EgressDial and IngressDial must both be set before Start")

// TCPDialer returns a Dialer that connects to addr over plain TCP. It is
// a convenience for callers who don't need vsock or TLS; the transport
// package itself is agnostic to address family.
func TCPDialer(addr string) transport.Dialer {
	var d net.Dialer
	return func(ctx context.Context) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", addr)
	}
}
