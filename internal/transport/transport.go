// Package transport implements the two long-lived worker loops that
// bridge the realtime rings to an unreliable-but-ordered byte-stream
// peer: egress (ring -> codec -> wire) and ingress (wire -> codec ->
// ring). Address family is deliberately out of scope here — callers
// supply a Dial func, so vsock, TCP, or a unix socket all work without
// any change to this package. Encrypting the stream (e.g. wrapping Dial
// to return a *tls.Conn) is likewise a caller concern this package does
// not need to know about.
package transport

import (
	"context"
	"io"
	"log"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/vaudio/bridge/internal/codec"
	"github.com/vaudio/bridge/internal/ring"
)

// Dialer opens a fresh connection to the peer. Implementations decide the
// address family and any transport security.
type Dialer func(ctx context.Context) (net.Conn, error)

// reconnectBackoff gates outer-loop reconnect attempts to roughly one
// per second, per spec.md §4.5/§4.6. Using a rate limiter rather than a
// bare time.Sleep makes the cancellation check (limiter.Wait observes
// ctx.Done) compose cleanly with the running flag, and leaves room to
// swap in jittered/exponential backoff later without touching the loop
// structure.
func reconnectBackoff() *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Second), 1)
}

// pollInterval is how long the egress worker sleeps when the ring hasn't
// yet accumulated a full codec frame — spec.md §4.5 step 2 ("~2ms").
const pollInterval = 2 * time.Millisecond

// EgressWorker drains r in codec-frame units, encodes, and writes framed
// packets to the peer, reconnecting on error with backoff. It runs until
// ctx is canceled. frameSize and channels describe the codec frame
// shape; enc performs the PCM->wire conversion.
func EgressWorker(ctx context.Context, dial Dialer, r *ring.Ring, enc *codec.Encoder, frameSize, channels int) {
	limiter := reconnectBackoff()
	acc := make([]float32, frameSize*channels)
	accFrames := 0

	for ctx.Err() == nil {
		conn, err := dial(ctx)
		if err != nil {
			log.Printf("[transport:egress] dial: %v", err)
			if werr := limiter.Wait(ctx); werr != nil {
				return
			}
			continue
		}
		log.Printf("[transport:egress] connected")

		connCtx, cancelConn := context.WithCancel(ctx)
		go func() {
			<-connCtx.Done()
			conn.Close()
		}()

		accFrames = 0
		for ctx.Err() == nil {
			need := frameSize - accFrames
			got := r.Read(acc[accFrames*channels : (accFrames+need)*channels])
			accFrames += got

			if accFrames < frameSize {
				select {
				case <-time.After(pollInterval):
				case <-ctx.Done():
				}
				continue
			}

			if err := enc.EncodeFrame(conn, acc); err != nil {
				log.Printf("[transport:egress] write: %v, reconnecting", err)
				break
			}
			accFrames = 0
		}

		cancelConn()
		conn.Close()
		if werr := limiter.Wait(ctx); werr != nil {
			return
		}
	}
}

// IngressWorker reads framed packets from the peer, decodes, and writes
// PCM into r, reconnecting on error with backoff. It runs until ctx is
// canceled.
func IngressWorker(ctx context.Context, dial Dialer, r *ring.Ring, dec *codec.Decoder, frameSize, channels, maxPacketBytes int) {
	limiter := reconnectBackoff()
	wireBuf := make([]byte, maxPacketBytes)
	pcm := make([]float32, frameSize*channels)

	for ctx.Err() == nil {
		conn, err := dial(ctx)
		if err != nil {
			log.Printf("[transport:ingress] dial: %v", err)
			if werr := limiter.Wait(ctx); werr != nil {
				return
			}
			continue
		}
		log.Printf("[transport:ingress] connected")

		connCtx, cancelConn := context.WithCancel(ctx)
		go func() {
			<-connCtx.Done()
			conn.Close()
		}()

		for ctx.Err() == nil {
			n, err := codec.ReadFrame(conn, wireBuf, maxPacketBytes)
			if err != nil {
				if err != io.EOF {
					log.Printf("[transport:ingress] read: %v, reconnecting", err)
				}
				break
			}

			samples, decErr := dec.DecodeFrame(wireBuf[:n], pcm)
			if decErr != nil {
				continue
			}
			if samples == 0 {
				continue
			}

			r.Write(pcm[:samples*channels])
		}

		cancelConn()
		conn.Close()
		if werr := limiter.Wait(ctx); werr != nil {
			return
		}
	}
}
