// Package speaker plays APU output on the default audio device.
package speaker

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker is an audio.Sink backed by an oto player. Chunks pushed from the emulation
// goroutine are queued in a ring that the device callback drains; underruns play silence.
type Speaker struct {
	ctx    *oto.Context
	player *oto.Player

	mu   sync.Mutex
	ring *ring

	underruns int
}

// New opens the audio device for interleaved 16-bit stereo at sampleRate. bufferFrames
// bounds the queue between emulation and device; older frames are dropped when it is
// full.
func New(sampleRate, bufferFrames int) (*Speaker, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	s := &Speaker{
		ctx:  ctx,
		ring: newRing(bufferFrames * 2),
	}
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	slog.Info("audio output started", "sample_rate", sampleRate)
	return s, nil
}

// PushSamples implements audio.Sink.
func (s *Speaker) PushSamples(chunk []int16) {
	s.mu.Lock()
	s.ring.write(chunk)
	s.mu.Unlock()
}

// Read implements io.Reader for the oto player.
func (s *Speaker) Read(p []byte) (int, error) {
	samples := make([]int16, len(p)/2)

	s.mu.Lock()
	n := s.ring.read(samples)
	if n < len(samples) {
		s.underruns++
	}
	s.mu.Unlock()

	for i, v := range samples {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}
	return len(samples) * 2, nil
}

// Underruns returns how many device reads found the queue short.
func (s *Speaker) Underruns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.underruns
}

func (s *Speaker) Close() error {
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	slog.Debug("Speaker closed", "underruns", s.Underruns())
	return err
}
