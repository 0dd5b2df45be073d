package debug

import (
	"fmt"
	"math"
	"strings"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/audio"
)

// AudioSource is the part of the APU the debug views read.
type AudioSource interface {
	State() audio.State
	ChannelVolumes() [4]uint8
}

type ChannelStatus struct {
	Enabled   bool
	Frequency float64
	Volume    uint8
	DutyCycle uint8
	Note      string
}

type AudioData struct {
	APUEnabled   bool
	MasterVolume struct {
		Left  uint8
		Right uint8
	}
	Channels           [4]ChannelStatus
	FrameSequencerStep int
}

// ExtractAudioData decodes channel frequencies and notes from the raw sound registers,
// using the live envelope volumes from the APU.
func ExtractAudioData(src AudioSource) *AudioData {
	s := src.State()
	reg := func(a uint16) uint8 { return s.Registers[a-addr.NR10] }
	volumes := src.ChannelVolumes()

	data := &AudioData{
		APUEnabled:         s.Enabled,
		FrameSequencerStep: s.FrameStep,
	}
	nr50 := reg(addr.NR50)
	data.MasterVolume.Left = (nr50 >> 4) & 0x07
	data.MasterVolume.Right = nr50 & 0x07

	for i := range data.Channels {
		data.Channels[i].Enabled = s.Channels&(1<<i) != 0
		data.Channels[i].Volume = volumes[i]
	}

	period := func(lo, hi uint16) uint16 { return uint16(reg(hi)&0x07)<<8 | uint16(reg(lo)) }

	for i, r := range [2][3]uint16{{addr.NR11, addr.NR13, addr.NR14}, {addr.NR21, addr.NR23, addr.NR24}} {
		ch := &data.Channels[i]
		ch.DutyCycle = reg(r[0]) >> 6
		ch.Frequency = 131072.0 / float64(2048-period(r[1], r[2]))
		ch.Note = frequencyToNote(ch.Frequency)
	}

	wave := &data.Channels[2]
	wave.Frequency = 65536.0 / float64(2048-period(addr.NR33, addr.NR34))
	wave.Note = frequencyToNote(wave.Frequency)

	nr43 := reg(addr.NR43)
	divisor := float64(nr43 & 0x07)
	if divisor == 0 {
		divisor = 0.5
	}
	data.Channels[3].Frequency = 524288.0 / divisor / float64(uint(1)<<(nr43>>4+1))
	data.Channels[3].Note = "Noise"

	return data
}

// FormatSummary renders one line per channel.
func (d *AudioData) FormatSummary() []string {
	lines := make([]string, 0, 5)
	power := "OFF"
	if d.APUEnabled {
		power = "ON"
	}
	lines = append(lines, fmt.Sprintf("APU %s  L:%d R:%d  step:%d", power, d.MasterVolume.Left, d.MasterVolume.Right, d.FrameSequencerStep))
	for i, ch := range d.Channels {
		state := "-"
		if ch.Enabled {
			state = "+"
		}
		bar := strings.Repeat("#", int(ch.Volume))
		lines = append(lines, fmt.Sprintf("CH%d %s %-5s %7.1fHz %-15s", i+1, state, ch.Note, ch.Frequency, bar))
	}
	return lines
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func frequencyToNote(freq float64) string {
	if freq < 20 || freq > 20000 {
		return "--"
	}

	midi := int(math.Round(12*math.Log2(freq/440.0))) + 69
	octave := midi/12 - 1
	if octave < 0 || octave > 9 {
		return "--"
	}
	return fmt.Sprintf("%s%d", noteNames[midi%12], octave)
}
