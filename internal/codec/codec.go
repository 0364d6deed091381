// Package codec implements the realtime-PCM <-> compressed-frame
// boundary (spec.md §4.4): volume/mute application, int16 conversion,
// Opus encode/decode, and the length-prefixed wire envelope.
package codec

import (
	"io"
	"math"

	"github.com/vaudio/bridge/internal/volume"
	"gopkg.in/hraban/opus.v2"
)

// opusEncoder abstracts Opus encoding so the codec boundary can be
// exercised in tests without the real cgo-backed library, mirroring the
// teacher's own opusEncoder/opusDecoder seams in client/audio.go.
type opusEncoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

type opusDecoder interface {
	Decode(data []byte, pcm []int16) (int, error)
}

// NewOpusEncoder returns a real Opus encoder configured for the driver's
// fixed format, tuned for general program audio passthrough rather than
// voice (AppAudio, not AppVoIP — this device carries arbitrary
// application output, not a speech call).
func NewOpusEncoder(sampleRate, channels, bitrateBPS int) (*opus.Encoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, err
	}
	if err := enc.SetBitrate(bitrateBPS); err != nil {
		return nil, err
	}
	if err := enc.SetDTX(true); err != nil {
		return nil, err
	}
	if err := enc.SetInBandFEC(true); err != nil {
		return nil, err
	}
	return enc, nil
}

// NewOpusDecoder returns a real Opus decoder for the driver's fixed format.
func NewOpusDecoder(sampleRate, channels int) (*opus.Decoder, error) {
	return opus.NewDecoder(sampleRate, channels)
}

// Encoder turns accumulated float32 PCM into length-prefixed wire frames.
type Encoder struct {
	enc      opusEncoder
	vol      *volume.Control
	channels int
	frame    int // F_c, in frames

	pcm16   []int16
	scratch []byte // encoded payload scratch, sized maxPacketBytes
}

// NewEncoder returns an Encoder that pulls frameSize-frame chunks,
// applies vol at the codec boundary, and encodes with enc.
func NewEncoder(enc opusEncoder, vol *volume.Control, channels, frameSize, maxPacketBytes int) *Encoder {
	return &Encoder{
		enc:      enc,
		vol:      vol,
		channels: channels,
		frame:    frameSize,
		pcm16:    make([]int16, frameSize*channels),
		scratch:  make([]byte, maxPacketBytes),
	}
}

// EncodeFrame converts one F_c-frame chunk of float32 PCM to a compressed
// payload and writes it to w as a wire frame. pcm must contain exactly
// frameSize*channels samples. A negative return from the underlying Opus
// encoder is treated as a dropped frame (no error, no write) per
// spec.md §4.4 step 4.
func (e *Encoder) EncodeFrame(w io.Writer, pcm []float32) error {
	gain := e.vol.Effective()

	for i, s := range pcm {
		v := float64(s) * float64(gain) * 32767.0
		e.pcm16[i] = clampInt16(v)
	}

	n, err := e.enc.Encode(e.pcm16, e.scratch)
	if err != nil || n < 0 {
		// Drop the frame and continue; no reconnect on encode failure.
		return nil
	}

	return WriteFrame(w, e.scratch[:n])
}

func clampInt16(v float64) int16 {
	r := math.Round(v)
	if r > 32767 {
		return 32767
	}
	if r < -32768 {
		return -32768
	}
	return int16(r)
}

// Decoder turns wire frames back into gain-applied float32 PCM.
type Decoder struct {
	dec      opusDecoder
	vol      *volume.Control
	channels int
	frame    int

	pcm16 []int16
}

// NewDecoder returns a Decoder that decodes with dec and applies vol at
// the codec boundary.
func NewDecoder(dec opusDecoder, vol *volume.Control, channels, frameSize int) *Decoder {
	return &Decoder{
		dec:      dec,
		vol:      vol,
		channels: channels,
		frame:    frameSize,
		pcm16:    make([]int16, frameSize*channels),
	}
}

// DecodeFrame decodes one compressed payload into out, which must hold
// frameSize*channels float32 samples. A decoder error discards the frame
// and returns (0, nil) — the caller should treat that as "nothing to
// push this cycle," not a transport error.
func (d *Decoder) DecodeFrame(payload []byte, out []float32) (samples int, err error) {
	n, decErr := d.dec.Decode(payload, d.pcm16)
	if decErr != nil || n < 0 {
		return 0, nil
	}

	gain := d.vol.Effective()
	total := n * d.channels
	for i := 0; i < total; i++ {
		out[i] = (float32(d.pcm16[i]) / 32768.0) * gain
	}
	return n, nil
}
