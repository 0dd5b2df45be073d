// Package wavout records APU output to a WAV file.
package wavout

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	channels  = 2
	pcmFormat = 1
)

// Writer is an audio.Sink that streams every chunk into a 16-bit stereo WAV encoder.
// Close must be called to finish the header.
type Writer struct {
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int
	err    error
}

// New starts a WAV stream on w. The WAV header is rewritten on Close, so w has to be
// seekable.
func New(w io.WriteSeeker, sampleRate int) *Writer {
	return &Writer{
		enc: wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}
}

// PushSamples implements audio.Sink. The first encoding error is kept and returned from
// Close; later chunks are dropped.
func (w *Writer) PushSamples(chunk []int16) {
	if w.err != nil {
		return
	}
	w.buf.Data = w.buf.Data[:0]
	for _, s := range chunk {
		w.buf.Data = append(w.buf.Data, int(s))
	}
	if err := w.enc.Write(w.buf); err != nil {
		w.err = fmt.Errorf("writing wav samples: %w", err)
		slog.Error("wav recording stopped", "error", err)
		return
	}
	w.frames += len(chunk) / channels
}

// Frames returns the number of stereo frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Close finalises the WAV header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil && w.err == nil {
		w.err = fmt.Errorf("closing wav stream: %w", err)
	}
	return w.err
}
