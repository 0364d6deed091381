package driver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
)

// pipeDialerPair returns two Dialers backed by a single net.Pipe, each
// usable once, for wiring an egress worker directly to an ingress worker
// in a test without any real network.
func pipeDialerPair() (egress, ingress func(ctx context.Context) (net.Conn, error)) {
	a, b := net.Pipe()
	used := false
	egress = func(ctx context.Context) (net.Conn, error) {
		if used {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		used = true
		return a, nil
	}
	usedB := false
	ingress = func(ctx context.Context) (net.Conn, error) {
		if usedB {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		usedB = true
		return b, nil
	}
	return egress, ingress
}

func TestStartRequiresBothDialers(t *testing.T) {
	s := New(DefaultOptions())
	if err := s.Start(); err == nil {
		t.Fatal("expected error when dialers are unset")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	opts := DefaultOptions()
	opts.EgressDial, opts.IngressDial = pipeDialerPair()
	s := New(opts)

	// Start will fail here because the real Opus encoder/decoder can't
	// link in this sandboxed test environment in all configurations;
	// this test only checks the idempotency guard, not full wiring, so
	// we directly exercise the started flag instead of relying on a
	// successful codec init.
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	if err := s.Start(); err != nil {
		t.Fatalf("Start on already-started State should be a no-op, got %v", err)
	}
}

func TestCloseWithoutStartIsSafe(t *testing.T) {
	s := New(DefaultOptions())
	s.Close() // must not panic or block
}

func TestIDIsStableAndNonZero(t *testing.T) {
	s := New(DefaultOptions())
	if s.ID() == uuid.Nil {
		t.Fatal("expected a non-zero instance ID")
	}
	if s.ID() != s.ID() {
		t.Fatal("ID should be stable across calls")
	}
}

func TestDeviceString(t *testing.T) {
	if Output.String() != "output" {
		t.Errorf("Output.String() = %q, want output", Output.String())
	}
	if Input.String() != "input" {
		t.Errorf("Input.String() = %q, want input", Input.String())
	}
}

func TestTCPDialerConnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no loopback networking available: %v", err)
	}
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		c, err := ln.Accept()
		if err == nil {
			close(accepted)
			c.Close()
		}
	}()

	dial := TCPDialer(ln.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	conn, err := dial(ctx)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("listener never accepted connection")
	}
}
