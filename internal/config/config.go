// Package config holds the driver's compile/load-time constants (spec.md
// §6) and the small set of runtime-tunable fields that persist across
// restarts, mirroring the client's own config package in shape.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Fixed format and sizing constants. These never change at runtime.
const (
	SampleRate     = 48000 // R
	Channels       = 2     // N
	BytesPerSample = 4

	RingCapacityFrames = 8192 // C_r

	CodecFrameSize = 960  // F_c: 20ms @ 48kHz
	MaxPacketBytes = 1500 // P_max
	OpusBitrateBPS = 128000

	IOBufferFrames = 512

	ClockPeriodFrames = 480 // P: 10ms @ 48kHz

	VolumeMinDB = -96.0

	// DefaultEgressPort / DefaultIngressPort are the peer's two
	// independent byte-stream listener ports.
	DefaultEgressPort  = 5000
	DefaultIngressPort = 5001
)

// Runtime holds the subset of configuration that may vary across
// invocations and is persisted to disk: peer address, ports, and the
// default device volumes.
type Runtime struct {
	PeerHost     string  `json:"peer_host"`
	EgressPort   int     `json:"egress_port"`
	IngressPort  int     `json:"ingress_port"`
	OutputVolume float32 `json:"output_volume"`
	InputVolume  float32 `json:"input_volume"`
}

// Default returns a Runtime populated with sensible defaults.
func Default() Runtime {
	return Runtime{
		PeerHost:     "127.0.0.1",
		EgressPort:   DefaultEgressPort,
		IngressPort:  DefaultIngressPort,
		OutputVolume: 1.0,
		InputVolume:  1.0,
	}
}

// Path returns the absolute path to the persisted config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "vaudiobridge", "config.json"), nil
}

// Load reads the config file and returns it. If the file is missing or
// unreadable, the default config is returned — never an error.
func Load() Runtime {
	path, err := Path()
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	var rt Runtime
	if err := json.Unmarshal(data, &rt); err != nil {
		return Default()
	}
	return rt
}

// Save persists rt to disk, creating the containing directory if needed.
func Save(rt Runtime) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rt, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
