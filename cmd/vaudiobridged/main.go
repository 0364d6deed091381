// Command vaudiobridged is a demo harness that binds the driver core to
// real PortAudio hardware IO and a TCP peer connection. A real host
// plug-in would instead call into facade.Driver from its own realtime IO
// thread; this harness stands in for that host by running its own
// PortAudio callback loops.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gordonklaus/portaudio"
	flag "github.com/spf13/pflag"

	"github.com/vaudio/bridge/facade"
	"github.com/vaudio/bridge/internal/config"
	"github.com/vaudio/bridge/internal/driver"
)

func main() {
	saved := config.Load()

	var (
		peerHost     = flag.StringP("peer", "p", saved.PeerHost, "address of the peer to exchange audio with")
		egressPort   = flag.Int("egress-port", saved.EgressPort, "TCP port carrying Output device audio toward the peer")
		ingressPort  = flag.Int("ingress-port", saved.IngressPort, "TCP port carrying Input device audio from the peer")
		outputVolume = flag.Float32("output-volume", saved.OutputVolume, "Output device linear gain in [0, 1]")
		inputVolume  = flag.Float32("input-volume", saved.InputVolume, "Input device linear gain in [0, 1]")
		inputDevice  = flag.Int("input-device", -1, "PortAudio input device index, -1 for system default")
		outputDevice = flag.Int("output-device", -1, "PortAudio output device index, -1 for system default")
		listDevices  = flag.Bool("list-devices", false, "print available PortAudio devices and exit")
		help         = flag.BoolP("help", "h", false, "display help text")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "vaudiobridged: virtual audio bridge demo harness\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}

	if err := portaudio.Initialize(); err != nil {
		log.Fatalf("[vaudiobridged] portaudio init: %v", err)
	}
	defer portaudio.Terminate()

	if *listDevices {
		printDevices()
		return
	}

	opts := driver.DefaultOptions()
	opts.EgressDial = driver.TCPDialer(fmt.Sprintf("%s:%d", *peerHost, *egressPort))
	opts.IngressDial = driver.TCPDialer(fmt.Sprintf("%s:%d", *peerHost, *ingressPort))

	state := driver.New(opts)
	fac := facade.New(state)
	fac.SetVolumeScalar(driver.Output, *outputVolume)
	fac.SetVolumeScalar(driver.Input, *inputVolume)

	if err := state.Start(); err != nil {
		log.Fatalf("[vaudiobridged] start: %v", err)
	}
	log.Printf("[vaudiobridged] instance %s started, peer=%s egress=%d ingress=%d", state.ID(), *peerHost, *egressPort, *ingressPort)

	h, err := newHardwareIO(*inputDevice, *outputDevice)
	if err != nil {
		state.Close()
		log.Fatalf("[vaudiobridged] hardware io: %v", err)
	}
	defer h.Close()

	if err := fac.StartIO(driver.Output); err != nil {
		log.Fatalf("[vaudiobridged] start output io: %v", err)
	}
	if err := fac.StartIO(driver.Input); err != nil {
		log.Fatalf("[vaudiobridged] start input io: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.run(ctx, fac)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Printf("[vaudiobridged] shutting down")
	fac.StopIO(driver.Output)
	fac.StopIO(driver.Input)
	cancel()
	state.Close()

	rt := config.Runtime{
		PeerHost:     *peerHost,
		EgressPort:   *egressPort,
		IngressPort:  *ingressPort,
		OutputVolume: fac.GetVolumeScalar(driver.Output),
		InputVolume:  fac.GetVolumeScalar(driver.Input),
	}
	if err := config.Save(rt); err != nil {
		log.Printf("[vaudiobridged] save config: %v", err)
	}
}

func printDevices() {
	devices, err := portaudio.Devices()
	if err != nil {
		log.Fatalf("[vaudiobridged] enumerate devices: %v", err)
	}
	for i, d := range devices {
		fmt.Printf("%d: %s (in=%d out=%d)\n", i, d.Name, d.MaxInputChannels, d.MaxOutputChannels)
	}
}

// hardwareIO owns the two PortAudio streams standing in for the host's
// realtime IO thread. It drives facade.Driver.DoIO at the driver's fixed
// IO buffer size (config.IOBufferFrames), exactly as a real HAL callback
// would.
type hardwareIO struct {
	captureStream  *portaudio.Stream
	playbackStream *portaudio.Stream
	captureBuf     []float32
	playbackBuf    []float32
}

func newHardwareIO(inputIdx, outputIdx int) (*hardwareIO, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	inputDev, err := resolveDevice(devices, inputIdx, portaudio.DefaultInputDevice)
	if err != nil {
		return nil, err
	}
	outputDev, err := resolveDevice(devices, outputIdx, portaudio.DefaultOutputDevice)
	if err != nil {
		return nil, err
	}

	h := &hardwareIO{
		captureBuf:  make([]float32, config.IOBufferFrames*config.Channels),
		playbackBuf: make([]float32, config.IOBufferFrames*config.Channels),
	}

	captureParams := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inputDev,
			Channels: config.Channels,
			Latency:  inputDev.DefaultLowInputLatency,
		},
		SampleRate:      float64(config.SampleRate),
		FramesPerBuffer: config.IOBufferFrames,
	}
	captureStream, err := portaudio.OpenStream(captureParams, h.captureBuf)
	if err != nil {
		return nil, err
	}

	playbackParams := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   outputDev,
			Channels: config.Channels,
			Latency:  outputDev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(config.SampleRate),
		FramesPerBuffer: config.IOBufferFrames,
	}
	playbackStream, err := portaudio.OpenStream(playbackParams, h.playbackBuf)
	if err != nil {
		captureStream.Close()
		return nil, err
	}

	if err := captureStream.Start(); err != nil {
		captureStream.Close()
		playbackStream.Close()
		return nil, err
	}
	if err := playbackStream.Start(); err != nil {
		captureStream.Stop()
		captureStream.Close()
		playbackStream.Close()
		return nil, err
	}

	h.captureStream = captureStream
	h.playbackStream = playbackStream
	return h, nil
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return fallback()
}

// run pumps capture/playback at the driver's fixed IO buffer size until
// ctx is canceled. Each direction is its own realtime cycle per spec.md
// §4.3: capture feeds Output's write-mix, playback drains Input's
// read-input.
func (h *hardwareIO) run(ctx context.Context, fac *facade.Driver) {
	go func() {
		for ctx.Err() == nil {
			if err := h.captureStream.Read(); err != nil {
				log.Printf("[vaudiobridged] capture read: %v", err)
				return
			}
			fac.DoIO(driver.Output, facade.WriteMix, config.IOBufferFrames, h.captureBuf)
		}
	}()

	for ctx.Err() == nil {
		fac.DoIO(driver.Input, facade.ReadInput, config.IOBufferFrames, h.playbackBuf)
		if err := h.playbackStream.Write(); err != nil {
			log.Printf("[vaudiobridged] playback write: %v", err)
			return
		}
	}
}

func (h *hardwareIO) Close() {
	if h.captureStream != nil {
		h.captureStream.Stop()
		h.captureStream.Close()
	}
	if h.playbackStream != nil {
		h.playbackStream.Stop()
		h.playbackStream.Close()
	}
}
