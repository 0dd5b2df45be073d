package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-emoo/emoo/addr"
)

type captureSink struct {
	chunks [][]int16
}

func (c *captureSink) PushSamples(chunk []int16) {
	c.chunks = append(c.chunks, append([]int16(nil), chunk...))
}

// newSilentAPU returns an APU that was power cycled, so every register and channel is
// cleared.
func newSilentAPU(opts ...Option) (*APU, *captureSink) {
	sink := &captureSink{}
	apu := New(sink, opts...)
	apu.Write(addr.NR52, 0x00)
	apu.Write(addr.NR52, 0x80)
	return apu, sink
}

func tickN(apu *APU, n int) {
	for range n {
		apu.Tick()
	}
}

func TestAPU_RegisterMapping(t *testing.T) {
	tests := []struct {
		name     string
		register uint16
		value    uint8
		testFunc func(t *testing.T, apu *APU)
	}{
		{
			name:     "NR52 power control",
			register: addr.NR52, value: 0x80,
			testFunc: func(t *testing.T, apu *APU) {
				assert.True(t, apu.enabled, "APU should be enabled when NR52 bit 7 is set")
			},
		},
		{
			name:     "NR51 panning",
			register: addr.NR51, value: 0xFF, // all channels to both sides
			testFunc: func(t *testing.T, apu *APU) {
				for i := range 4 {
					assert.True(t, apu.ch[i].left, "Channel %d should be panned left", i)
					assert.True(t, apu.ch[i].right, "Channel %d should be panned right", i)
				}
			},
		},
		{
			name:     "NR51 split panning",
			register: addr.NR51, value: 0x12, // ch1 left, ch2 right
			testFunc: func(t *testing.T, apu *APU) {
				assert.True(t, apu.ch[0].left)
				assert.False(t, apu.ch[0].right)
				assert.False(t, apu.ch[1].left)
				assert.True(t, apu.ch[1].right)
			},
		},
		{
			name:     "NR50 master volume",
			register: addr.NR50, value: 0x35,
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(3), apu.volLeft)
				assert.Equal(t, uint8(5), apu.volRight)
			},
		},
		{
			name:     "NR11 duty and length timer",
			register: addr.NR11, value: 0xBF, // duty=2, length timer=63
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(2), apu.ch[0].duty, "CH1 duty should be 2")
				assert.Equal(t, uint8(63), apu.ch[0].timer, "CH1 timer should be 63")
				assert.Equal(t, 1, apu.ch[0].length)
			},
		},
		{
			name:     "NR12 volume and envelope",
			register: addr.NR12, value: 0xF7, // vol=15, up=0, pace=7
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(15), apu.ch[0].initialVolume, "CH1 initial volume should be 15")
				assert.False(t, apu.ch[0].envelopeUp, "CH1 envelope should be down")
				assert.Equal(t, uint8(7), apu.ch[0].envelopePace, "CH1 envelope pace should be 7")
				assert.True(t, apu.ch[0].dacEnabled, "CH1 DAC should be enabled (volume > 0)")
			},
		},
		{
			name:     "NR10 sweep",
			register: addr.NR10, value: 0x5E, // period=5, down=1, step=6
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(5), apu.ch[0].sweepPeriod)
				assert.True(t, apu.ch[0].sweepDown)
				assert.Equal(t, uint8(6), apu.ch[0].sweepStep)
			},
		},
		{
			name:     "NR31 wave length",
			register: addr.NR31, value: 0x10,
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, 256-16, apu.ch[2].length)
			},
		},
		{
			name:     "NR43 noise clock",
			register: addr.NR43, value: 0x5B, // shift=5, narrow, divisor=3
			testFunc: func(t *testing.T, apu *APU) {
				assert.Equal(t, uint8(5), apu.ch[3].clockShift)
				assert.True(t, apu.ch[3].narrow)
				assert.Equal(t, uint8(3), apu.ch[3].divisorCode)
			},
		},
		{
			name:     "Wave RAM write/read",
			register: addr.WaveRAMStart, value: 0xAB,
			testFunc: func(t *testing.T, apu *APU) {
				read := apu.Read(addr.WaveRAMStart)
				assert.Equal(t, uint8(0xAB), read, "Wave RAM should store and return values")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apu := New(nil)
			apu.Write(addr.NR52, 0x80)
			apu.Write(tt.register, tt.value)
			tt.testFunc(t, apu)
		})
	}
}

func TestAPU_ReadMasks(t *testing.T) {
	apu := New(nil)

	// Write-only registers should return 0xFF
	for _, address := range []uint16{addr.NR13, addr.NR23, addr.NR33, addr.NR41} {
		apu.Write(address, 0x00)
		assert.Equal(t, uint8(0xFF), apu.Read(address), "Register 0x%X should read as 0xFF (write-only)", address)
	}

	apu.Write(addr.NR11, 0x40)
	assert.Equal(t, uint8(0x7F), apu.Read(addr.NR11), "length bits are write-only")
	apu.Write(addr.NR14, 0x40)
	assert.Equal(t, uint8(0xFF), apu.Read(addr.NR14))
	assert.Equal(t, uint8(0xFF), apu.Read(0xFF27), "unused register")
	assert.Equal(t, uint8(0xFF), apu.Read(0xFF00), "outside the audio block")
}

func TestAPU_PostBootStatus(t *testing.T) {
	apu := New(nil)

	assert.Equal(t, uint8(0xF1), apu.Read(addr.NR52))
	assert.Equal(t, uint8(0x77), apu.Read(addr.NR50))
	assert.Equal(t, uint8(0xF3), apu.Read(addr.NR51))
}

func TestAPU_NR52StatusIsReadOnly(t *testing.T) {
	apu, _ := newSilentAPU()

	apu.Write(addr.NR52, 0x8F)
	assert.Equal(t, uint8(0xF0), apu.Read(addr.NR52))
}

func TestAPU_PowerOffLogic(t *testing.T) {
	apu := New(nil)

	// Power on and set up some state
	apu.Write(addr.NR52, 0x80) // Power on
	apu.Write(addr.NR10, 0x5E) // CH1 sweep: period=5, down=1, step=6
	apu.Write(addr.NR11, 0xC3) // CH1: duty=3, length=3
	apu.Write(addr.NR12, 0xFB) // CH1: volume=15, up=1, pace=3
	apu.Write(addr.NR50, 0x77) // Master volume: 7/7
	apu.Write(addr.NR51, 0xFF) // All channels panned to both sides
	apu.Write(addr.WaveRAMStart, 0xAA)
	apu.Write(addr.WaveRAMStart+1, 0xBB)

	// Power off
	apu.Write(addr.NR52, 0x00)
	assert.False(t, apu.enabled, "APU should be disabled")

	// Check that all computed state was cleared
	assert.Equal(t, uint8(0), apu.ch[0].sweepPeriod, "CH1 sweep period should be cleared")
	assert.False(t, apu.ch[0].sweepDown, "CH1 sweep down should be cleared")
	assert.Equal(t, uint8(0), apu.ch[0].sweepStep, "CH1 sweep step should be cleared")
	assert.Equal(t, uint8(0), apu.ch[0].duty, "CH1 duty should be cleared")
	assert.Equal(t, uint8(0), apu.ch[0].volume, "CH1 volume should be cleared")
	assert.False(t, apu.ch[0].envelopeUp, "CH1 envelope up should be cleared")
	assert.Equal(t, uint8(0), apu.volLeft, "Left volume should be cleared")
	assert.Equal(t, uint8(0), apu.volRight, "Right volume should be cleared")
	assert.False(t, apu.ch[0].left, "CH1 left panning should be cleared")
	assert.False(t, apu.ch[0].right, "CH1 right panning should be cleared")
	for i := range 4 {
		assert.False(t, apu.ch[i].enabled, "Channel %d should be disabled", i)
		assert.False(t, apu.ch[i].dacEnabled, "Channel %d DAC should be disabled", i)
	}
	assert.Equal(t, uint8(0x70), apu.Read(addr.NR52))
	assert.Equal(t, uint8(0x00), apu.Read(addr.NR50))

	assert.Equal(t, uint8(0xAA), apu.waveRAM[0], "Wave RAM[0] should be preserved")
	assert.Equal(t, uint8(0xBB), apu.waveRAM[1], "Wave RAM[1] should be preserved")

	// Ignore writes while powered off
	apu.Write(addr.NR10, 0x77)
	apu.Write(addr.NR50, 0x55)
	assert.Equal(t, uint8(0), apu.ch[0].sweepPeriod, "CH1 sweep should remain 0 (write ignored)")
	assert.Equal(t, uint8(0), apu.volLeft, "Volume should remain 0 (write ignored)")
	// Wave RAM writes still allowed
	apu.Write(addr.WaveRAMStart+2, 0xCC)
	assert.Equal(t, uint8(0xCC), apu.waveRAM[2], "Wave RAM should be writable while powered off")
	apu.Write(addr.NR52, 0x80) // Power back on
	assert.True(t, apu.enabled, "APU should be enabled again")

	// Test that registers become writable again after power on
	apu.Write(addr.NR10, 0x34)
	apu.Write(addr.NR50, 0x66)
	assert.Equal(t, uint8(3), apu.ch[0].sweepPeriod, "CH1 sweep period should be writable after power on")
	assert.Equal(t, uint8(6), apu.volLeft, "Volume should be writable after power on")
}

func TestAPU_LengthCounter(t *testing.T) {
	apu, _ := newSilentAPU()
	apu.Write(addr.NR21, 0x3E) // length 2
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR24, 0xC0) // trigger with length enabled
	require.Equal(t, uint8(0x02), apu.Read(addr.NR52)&0x0F)

	// step 0 clocks length
	tickN(apu, cyclesPerStep)
	assert.Equal(t, 1, apu.ch[1].length)
	assert.True(t, apu.ch[1].enabled)

	// step 1 does not
	tickN(apu, cyclesPerStep)
	assert.Equal(t, 1, apu.ch[1].length)

	// step 2 does
	tickN(apu, cyclesPerStep)
	assert.False(t, apu.ch[1].enabled)
	assert.Equal(t, uint8(0x00), apu.Read(addr.NR52)&0x0F)
}

func TestAPU_LengthIgnoredWhenDisabled(t *testing.T) {
	apu, _ := newSilentAPU()
	apu.Write(addr.NR21, 0x3F) // length 1
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR24, 0x80)

	tickN(apu, 8*cyclesPerStep)

	assert.True(t, apu.ch[1].enabled)
}

func TestAPU_TriggerReloadsLength(t *testing.T) {
	apu, _ := newSilentAPU()
	apu.Write(addr.NR42, 0xF0)
	apu.Write(addr.NR44, 0x80)

	assert.Equal(t, noiseLength, apu.ch[3].length, "zero length reloads to the maximum")
}

func TestAPU_Envelope(t *testing.T) {
	testCases := []struct {
		desc  string
		nr22  uint8
		steps int
		want  uint8
	}{
		{"decrease every step 7", 0x81, 8, 7},
		{"decrease twice", 0x81, 16, 6},
		{"pace 2 waits two periods", 0x82, 8, 8},
		{"pace 2 after two periods", 0x82, 16, 7},
		{"increase", 0x89, 8, 9},
		{"increase stops at 15", 0xF9, 16, 15},
		{"decrease stops at 0", 0x11, 24, 0},
		{"pace 0 never changes", 0x80, 16, 8},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			apu, _ := newSilentAPU()
			apu.Write(addr.NR22, tC.nr22)
			apu.Write(addr.NR24, 0x80)

			tickN(apu, tC.steps*cyclesPerStep)

			assert.Equal(t, tC.want, apu.ch[1].volume)
		})
	}
}

func TestAPU_EnvelopeWriteWaitsForTrigger(t *testing.T) {
	apu, _ := newSilentAPU()
	apu.Write(addr.NR22, 0x80)
	apu.Write(addr.NR24, 0x80)
	assert.Equal(t, uint8(8), apu.ch[1].volume)

	apu.Write(addr.NR22, 0xF0)
	assert.Equal(t, uint8(8), apu.ch[1].volume, "running channel keeps its volume")
	assert.Equal(t, uint8(15), apu.ch[1].initialVolume)

	apu.Write(addr.NR24, 0x80)
	assert.Equal(t, uint8(15), apu.ch[1].volume)
}

func TestAPU_TriggerWithDACOff(t *testing.T) {
	testCases := []struct {
		desc            string
		dac, trigger    uint16
		dacValue        uint8
		channelBitIndex int
	}{
		{"square", addr.NR22, addr.NR24, 0x07, 1},
		{"wave", addr.NR30, addr.NR34, 0x00, 2},
		{"noise", addr.NR42, addr.NR44, 0x00, 3},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			apu, _ := newSilentAPU()
			apu.Write(tC.dac, tC.dacValue)
			apu.Write(tC.trigger, 0x80)

			assert.False(t, apu.ch[tC.channelBitIndex].enabled)
			assert.Zero(t, apu.Read(addr.NR52)&(1<<tC.channelBitIndex))
		})
	}
}

func TestAPU_DACOffStopsChannel(t *testing.T) {
	apu, _ := newSilentAPU()
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR24, 0x80)
	require.True(t, apu.ch[1].enabled)

	apu.Write(addr.NR22, 0x00)
	assert.False(t, apu.ch[1].enabled)
}

func TestAPU_Sweep(t *testing.T) {
	t.Run("overflow on trigger disables the channel", func(t *testing.T) {
		apu, _ := newSilentAPU()
		apu.Write(addr.NR10, 0x11) // period 1, up, step 1
		apu.Write(addr.NR12, 0xF0)
		apu.Write(addr.NR13, 0xFF)
		apu.Write(addr.NR14, 0x87) // frequency 2047 and trigger

		assert.False(t, apu.ch[0].enabled)
	})

	t.Run("sweep down halves the frequency", func(t *testing.T) {
		apu, _ := newSilentAPU()
		apu.Write(addr.NR10, 0x19) // period 1, down, step 1
		apu.Write(addr.NR12, 0xF0)
		apu.Write(addr.NR13, 0x00)
		apu.Write(addr.NR14, 0x84) // frequency 1024 and trigger

		// first sweep clock happens on step 2
		tickN(apu, 2*cyclesPerStep)
		assert.Equal(t, uint16(1024), apu.ch[0].freq)
		tickN(apu, cyclesPerStep)
		assert.Equal(t, uint16(512), apu.ch[0].freq)
		assert.True(t, apu.ch[0].enabled)

		// next clock on step 6
		tickN(apu, 4*cyclesPerStep)
		assert.Equal(t, uint16(256), apu.ch[0].freq)
	})

	t.Run("sweep up overflows while running", func(t *testing.T) {
		apu, _ := newSilentAPU()
		apu.Write(addr.NR10, 0x11)
		apu.Write(addr.NR12, 0xF0)
		apu.Write(addr.NR13, 0x00)
		apu.Write(addr.NR14, 0x84)

		tickN(apu, 3*cyclesPerStep)
		assert.Equal(t, uint16(1536), apu.ch[0].freq)
		assert.False(t, apu.ch[0].enabled, "1536 + 768 overflows")
	})
}

func TestAPU_WaveOutput(t *testing.T) {
	testCases := []struct {
		desc string
		nr32 uint8
		want int
	}{
		{"mute", 0x00, 0},
		{"full", 0x20, 15},
		{"half", 0x40, 7},
		{"quarter", 0x60, 3},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			apu, _ := newSilentAPU()
			for i := range uint16(waveRAMSize) {
				apu.Write(addr.WaveRAMStart+i, 0xFF)
			}
			apu.Write(addr.NR30, 0x80)
			apu.Write(addr.NR32, tC.nr32)
			apu.Write(addr.NR34, 0x80)

			assert.Equal(t, tC.want, apu.ch[2].output(&apu.waveRAM))
		})
	}
}

func TestNoiseLFSR(t *testing.T) {
	testCases := []struct {
		desc   string
		narrow bool
		want   uint16
	}{
		{"15-bit", false, 0x3FFF},
		{"7-bit", true, 0x3FBF},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c := newChannel(kindNoise, noiseLength)
			c.enabled = true
			c.narrow = tC.narrow
			c.period = 1

			c.tick()

			assert.Equal(t, tC.want, c.lfsr)
			assert.Equal(t, noiseDivisors[0], c.period)
		})
	}
}

func TestSquarePeriod(t *testing.T) {
	c := newChannel(kindSquare, squareLength)
	c.enabled = true
	c.freq = 2047
	c.reloadPeriod()
	require.Equal(t, 4, c.period)

	for range 4 {
		c.tick()
	}
	assert.Equal(t, uint8(1), c.dutyStep)
}

// setupTone starts channel 1 as a 50% square at volume 15 that advances every 4 ticks.
func setupTone(apu *APU, nr50, nr51 uint8) {
	apu.Write(addr.NR50, nr50)
	apu.Write(addr.NR51, nr51)
	apu.Write(addr.NR11, 0x80)
	apu.Write(addr.NR12, 0xF0)
	apu.Write(addr.NR13, 0xFF)
	apu.Write(addr.NR14, 0x87)
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

func TestAPU_Mixing(t *testing.T) {
	testCases := []struct {
		desc        string
		nr50, nr51  uint8
		left, right int16
	}{
		{"left only at full volume", 0x77, 0x10, 15 * 8 * sampleAmplitude, 0},
		{"both sides", 0x77, 0x11, 15 * 8 * sampleAmplitude, 15 * 8 * sampleAmplitude},
		{"per side volume", 0x30, 0x11, 15 * 4 * sampleAmplitude, 15 * 1 * sampleAmplitude},
		{"not routed", 0x77, 0x00, 0, 0},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			apu, sink := newSilentAPU(WithSampleRate(CPUFrequency/4), WithChunkFrames(4))
			setupTone(apu, tC.nr50, tC.nr51)

			tickN(apu, 16)

			require.Len(t, sink.chunks, 1)
			chunk := sink.chunks[0]
			require.Len(t, chunk, 8)
			for i := 0; i < len(chunk); i += 2 {
				assert.Equal(t, tC.left, abs16(chunk[i]))
				assert.Equal(t, tC.right, abs16(chunk[i+1]))
			}
		})
	}
}

func TestAPU_ChunkSize(t *testing.T) {
	apu, sink := newSilentAPU(WithChunkFrames(100))

	// one second of output at 44100 Hz
	tickN(apu, CPUFrequency)

	assert.Len(t, sink.chunks, DefaultSampleRate/100)
	for _, chunk := range sink.chunks {
		assert.Len(t, chunk, 200)
	}
}

func TestAPU_Clamp(t *testing.T) {
	assert.Equal(t, int16(32767), clamp(40000))
	assert.Equal(t, int16(-32768), clamp(-40000))
	assert.Equal(t, int16(123), clamp(123))
}

func TestAPU_MuteAndSolo(t *testing.T) {
	apu, sink := newSilentAPU(WithSampleRate(CPUFrequency/4), WithChunkFrames(4))
	setupTone(apu, 0x77, 0x11)

	apu.SoloChannel(2)
	assert.Equal(t, [4]bool{false, false, false, false}, apu.ChannelStatus())
	tickN(apu, 16)
	require.Len(t, sink.chunks, 1)
	assert.Equal(t, make([]int16, 8), sink.chunks[0])

	apu.UnmuteAll()
	assert.Equal(t, [4]bool{true, false, false, false}, apu.ChannelStatus())

	apu.ToggleChannel(1)
	assert.False(t, apu.ChannelStatus()[0])
	apu.ToggleChannel(1)
	assert.True(t, apu.ChannelStatus()[0])
	apu.ToggleChannel(9)
}

func TestAPU_StateRestore(t *testing.T) {
	apu, _ := newSilentAPU()
	apu.Write(addr.NR50, 0x52)
	apu.Write(addr.NR51, 0x21)
	apu.Write(addr.NR22, 0xA3)
	apu.Write(addr.NR24, 0x80)
	apu.Write(addr.WaveRAMStart+5, 0x5A)
	tickN(apu, 3*cyclesPerStep+17)

	restored := New(nil)
	restored.Restore(apu.State())

	assert.Equal(t, apu.ChannelStatus(), restored.ChannelStatus())
	assert.Equal(t, apu.Read(addr.NR50), restored.Read(addr.NR50))
	assert.Equal(t, apu.Read(addr.NR51), restored.Read(addr.NR51))
	assert.Equal(t, apu.Read(addr.NR52), restored.Read(addr.NR52))
	assert.Equal(t, uint8(0x5A), restored.Read(addr.WaveRAMStart+5))
	assert.Equal(t, apu.frameStep, restored.frameStep)
	assert.Equal(t, apu.frameCycles, restored.frameCycles)
}

func TestAPU_RestorePoweredOff(t *testing.T) {
	apu, _ := newSilentAPU()
	apu.Write(addr.NR52, 0x00)

	restored := New(nil)
	restored.Restore(apu.State())

	assert.Equal(t, uint8(0x70), restored.Read(addr.NR52))
}
