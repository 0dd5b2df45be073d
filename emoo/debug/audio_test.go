package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/audio"
)

func TestExtractAudioDataPostBoot(t *testing.T) {
	apu := audio.New(nil)

	data := ExtractAudioData(apu)

	assert.True(t, data.APUEnabled)
	assert.Equal(t, uint8(7), data.MasterVolume.Left)
	assert.Equal(t, uint8(7), data.MasterVolume.Right)
	assert.True(t, data.Channels[0].Enabled)
	assert.False(t, data.Channels[1].Enabled)
	assert.Equal(t, uint8(2), data.Channels[0].DutyCycle)
	assert.InDelta(t, 512.0, data.Channels[0].Frequency, 0.01)
	assert.Equal(t, "C5", data.Channels[0].Note)
	assert.Equal(t, "Noise", data.Channels[3].Note)
}

func TestExtractAudioDataTone(t *testing.T) {
	apu := audio.New(nil)
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR23, 0xD6) // period 1750 -> 439.8Hz
	apu.Write(addr.NR24, 0x86)

	data := ExtractAudioData(apu)

	ch := data.Channels[1]
	assert.True(t, ch.Enabled)
	assert.Equal(t, uint8(15), ch.Volume)
	assert.InDelta(t, 439.8, ch.Frequency, 0.1)
	assert.Equal(t, "A4", ch.Note)
	assert.Len(t, data.FormatSummary(), 5)
}

func TestFrequencyToNote(t *testing.T) {
	tests := []struct {
		freq float64
		note string
	}{
		{440, "A4"},
		{261.63, "C4"},
		{10, "--"},
		{30000, "--"},
	}
	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			assert.Equal(t, tt.note, frequencyToNote(tt.freq))
		})
	}
}
