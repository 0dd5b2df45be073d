package emoo

import (
	"io"
	"log/slog"

	"github.com/valerio/go-emoo/emoo/audio"
	"github.com/valerio/go-emoo/emoo/memory"
	"github.com/valerio/go-emoo/emoo/video"
)

// Config holds everything a DMG session is parameterised by. The zero value is not
// useful; start from DefaultConfig or use the options with New.
type Config struct {
	Palette video.Palette

	AudioSink   audio.Sink
	SampleRate  int
	ChunkFrames int

	// SerialOutput receives every byte the game sends over the link port.
	SerialOutput    io.Writer
	ImmediateSerial bool

	Clock memory.Clock

	// TraceOutput enables the per-instruction CPU log when set.
	TraceOutput io.Writer

	Logger *slog.Logger
}

// DefaultConfig returns a silent session with the DMG greys and wall-clock RTC.
func DefaultConfig() Config {
	return Config{
		Palette:     video.DefaultPalette,
		SampleRate:  audio.DefaultSampleRate,
		ChunkFrames: audio.DefaultChunkFrames,
		Clock:       memory.SystemClock,
		Logger:      slog.Default(),
	}
}

// Option configures a session.
type Option func(*Config)

func WithPalette(p video.Palette) Option {
	return func(c *Config) { c.Palette = p }
}

// WithAudioSink routes mixed samples to sink. Without one the APU still runs and the
// samples are dropped.
func WithAudioSink(sink audio.Sink) Option {
	return func(c *Config) { c.AudioSink = sink }
}

func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

func WithChunkFrames(frames int) Option {
	return func(c *Config) { c.ChunkFrames = frames }
}

func WithSerialOutput(w io.Writer) Option {
	return func(c *Config) { c.SerialOutput = w }
}

// WithImmediateSerial completes link transfers on the tick they start.
func WithImmediateSerial() Option {
	return func(c *Config) { c.ImmediateSerial = true }
}

// WithClock sets the time source for cartridge real-time clocks.
func WithClock(clock memory.Clock) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithTrace writes a Gameboy Doctor style CPU log to w.
func WithTrace(w io.Writer) Option {
	return func(c *Config) { c.TraceOutput = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
