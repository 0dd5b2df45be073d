package audio

import (
	"log/slog"
	"sync/atomic"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

// Sink receives interleaved stereo chunks (left, right, left, ...). The slice is reused
// after PushSamples returns.
type Sink interface {
	PushSamples(chunk []int16)
}

type Option func(*APU)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(a *APU) {
		if rate > 0 {
			a.sampleRate = rate
		}
	}
}

// WithChunkFrames sets how many stereo frames are collected before the sink is called.
func WithChunkFrames(frames int) Option {
	return func(a *APU) {
		if frames > 0 {
			a.chunkFrames = frames
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *APU) { a.logger = logger }
}

// APU implements the Game Boy's Audio Processing Unit
// Reference: https://gbdev.io/pandocs/Audio.html
type APU struct {
	enabled   bool       // Master audio enable (NR52 bit 7)
	registers [0x20]byte // Audio registers FF10-FF2F

	ch       [4]channel
	waveRAM  [waveRAMSize]uint8
	volLeft  uint8
	volRight uint8

	// Frame sequencer state
	frameStep   int // next step (0-7)
	frameCycles int // ticks since the last step

	sampleRate    int
	sampleCounter int
	chunkFrames   int
	buffer        []int16
	sink          Sink

	// bit i set mutes channel i+1; written from the UI goroutine
	muted atomic.Uint32

	logger *slog.Logger
}

// New creates an APU in its post-boot state. sink may be nil, in which case samples are
// generated and dropped.
func New(sink Sink, opts ...Option) *APU {
	a := &APU{
		sink:        sink,
		sampleRate:  DefaultSampleRate,
		chunkFrames: DefaultChunkFrames,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.buffer = make([]int16, 0, a.chunkFrames*2)
	a.reset()
	a.initRegisters()
	return a
}

func (a *APU) reset() {
	a.ch[0] = newChannel(kindSquare, squareLength)
	a.ch[0].hasSweep = true
	a.ch[1] = newChannel(kindSquare, squareLength)
	a.ch[2] = newChannel(kindWave, waveLength)
	a.ch[3] = newChannel(kindNoise, noiseLength)
	a.volLeft, a.volRight = 0, 0
	a.frameStep = 0
	a.frameCycles = 0
}

// initRegisters sets the values the boot ROM leaves behind.
// Reference: https://gbdev.io/pandocs/Power_Up_Sequence.html#hardware-registers
func (a *APU) initRegisters() {
	a.Write(addr.NR52, 0x80)
	for _, r := range []struct {
		address uint16
		value   uint8
	}{
		{addr.NR10, 0x80}, {addr.NR11, 0xBF}, {addr.NR12, 0xF3}, {addr.NR14, 0x3F},
		{addr.NR21, 0x3F}, {addr.NR22, 0x00}, {addr.NR24, 0x3F},
		{addr.NR30, 0x7F}, {addr.NR31, 0xFF}, {addr.NR32, 0x9F}, {addr.NR34, 0x3F},
		{addr.NR41, 0xFF}, {addr.NR42, 0x00}, {addr.NR43, 0x00}, {addr.NR44, 0x3F},
		{addr.NR50, 0x77}, {addr.NR51, 0xF3},
	} {
		a.Write(r.address, r.value)
	}
	// the boot chime leaves channel 1 running with its envelope decayed
	a.ch[0].trigger()
	a.ch[0].volume = 0
}

// Tick advances the APU by one tick.
func (a *APU) Tick() {
	if a.enabled {
		a.frameCycles++
		if a.frameCycles == cyclesPerStep {
			a.frameCycles = 0
			a.stepFrameSequencer()
		}
		for i := range a.ch {
			a.ch[i].tick()
		}
	}

	a.sampleCounter += a.sampleRate
	if a.sampleCounter >= CPUFrequency {
		a.sampleCounter -= CPUFrequency
		a.mix()
	}
}

// stepFrameSequencer runs one of the 8 frame sequencer steps:
//
//	Step   Length  Sweep  Envelope
//	0      Clock   -      -
//	1      -       -      -
//	2      Clock   Clock  -
//	3      -       -      -
//	4      Clock   -      -
//	5      -       -      -
//	6      Clock   Clock  -
//	7      -       -      Clock
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#frame-sequencer
func (a *APU) stepFrameSequencer() {
	switch a.frameStep {
	case 0, 4:
		a.clockLengths()
	case 2, 6:
		a.clockLengths()
		a.ch[0].clockSweep()
	case 7:
		for i := range a.ch {
			a.ch[i].clockEnvelope()
		}
	}
	a.frameStep = (a.frameStep + 1) & 7
}

func (a *APU) clockLengths() {
	for i := range a.ch {
		a.ch[i].clockLength()
	}
}

// mix produces one stereo frame and hands full chunks to the sink.
func (a *APU) mix() {
	var left, right int
	if a.enabled {
		muted := a.muted.Load()
		for i := range a.ch {
			if muted&(1<<i) != 0 {
				continue
			}
			s := a.ch[i].output(&a.waveRAM)
			if a.ch[i].left {
				left += s
			}
			if a.ch[i].right {
				right += s
			}
		}
	}

	a.buffer = append(a.buffer,
		clamp(left*int(a.volLeft+1)*sampleAmplitude),
		clamp(right*int(a.volRight+1)*sampleAmplitude))

	if len(a.buffer) < a.chunkFrames*2 {
		return
	}
	if a.sink != nil {
		a.sink.PushSamples(a.buffer)
	}
	a.buffer = a.buffer[:0]
}

func clamp(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Read reads from an audio register.
func (a *APU) Read(address uint16) uint8 {
	if address < addr.AudioStart || address > addr.AudioEnd {
		return 0xFF
	}
	if address >= addr.WaveRAMStart {
		return a.waveRAM[address-addr.WaveRAMStart]
	}

	index := address - addr.AudioStart
	value := a.registers[index] | readMasks[index]
	if address == addr.NR52 {
		for i := range a.ch {
			if a.ch[i].enabled {
				value |= 1 << i
			}
		}
	}
	return value
}

// Write writes to an audio register. While the APU is powered off only NR52 and wave RAM
// accept writes.
func (a *APU) Write(address uint16, value uint8) {
	if address < addr.AudioStart || address > addr.AudioEnd {
		return
	}
	if address >= addr.WaveRAMStart {
		a.waveRAM[address-addr.WaveRAMStart] = value
		return
	}
	if address == addr.NR52 {
		a.setPower(bit.IsSet(7, value))
		return
	}
	if !a.enabled {
		return
	}

	a.registers[address-addr.AudioStart] = value
	a.mapRegisterToState(address, value)
}

func (a *APU) setPower(on bool) {
	if on == a.enabled {
		return
	}
	a.enabled = on
	if on {
		a.registers[addr.NR52-addr.AudioStart] = 0x80
		a.frameStep = 0
		a.frameCycles = 0
		a.logger.Debug("APU powered on")
		return
	}

	for i := range a.registers[:addr.NR52-addr.AudioStart+1] {
		a.registers[i] = 0
	}
	a.reset()
	a.logger.Debug("APU powered off")
}

// mapRegisterToState updates internal channel state based on register writes
func (a *APU) mapRegisterToState(address uint16, value uint8) {
	switch address {
	case addr.NR10:
		a.ch[0].sweepPeriod = bit.ExtractBits(value, 6, 4)
		a.ch[0].sweepDown = bit.IsSet(3, value)
		a.ch[0].sweepStep = bit.ExtractBits(value, 2, 0)
	case addr.NR11:
		a.writeDutyLength(0, value)
	case addr.NR12:
		a.writeEnvelope(0, value)
	case addr.NR13:
		a.ch[0].freq = updateFrequencyLow(a.ch[0].freq, value)
	case addr.NR14:
		a.writeControl(0, value)
	case addr.NR21:
		a.writeDutyLength(1, value)
	case addr.NR22:
		a.writeEnvelope(1, value)
	case addr.NR23:
		a.ch[1].freq = updateFrequencyLow(a.ch[1].freq, value)
	case addr.NR24:
		a.writeControl(1, value)
	case addr.NR30:
		a.ch[2].dacEnabled = bit.IsSet(7, value)
		if !a.ch[2].dacEnabled {
			a.ch[2].enabled = false
		}
	case addr.NR31:
		a.ch[2].timer = value
		a.ch[2].length = waveLength - int(value)
	case addr.NR32:
		a.ch[2].outputLevel = bit.ExtractBits(value, 6, 5)
	case addr.NR33:
		a.ch[2].freq = updateFrequencyLow(a.ch[2].freq, value)
	case addr.NR34:
		a.writeControl(2, value)
	case addr.NR41:
		a.ch[3].timer = bit.ExtractBits(value, 5, 0)
		a.ch[3].length = noiseLength - int(a.ch[3].timer)
	case addr.NR42:
		a.writeEnvelope(3, value)
	case addr.NR43:
		a.ch[3].clockShift = bit.ExtractBits(value, 7, 4)
		a.ch[3].narrow = bit.IsSet(3, value)
		a.ch[3].divisorCode = bit.ExtractBits(value, 2, 0)
	case addr.NR44:
		a.writeControl(3, value)
	case addr.NR50:
		a.volLeft = bit.ExtractBits(value, 6, 4)
		a.volRight = bit.ExtractBits(value, 2, 0)
	case addr.NR51:
		for i := range a.ch {
			a.ch[i].right = bit.IsSet(uint8(i), value)
			a.ch[i].left = bit.IsSet(uint8(i+4), value)
		}
	}
}

func (a *APU) writeDutyLength(ch int, value uint8) {
	a.ch[ch].duty = bit.ExtractBits(value, 7, 6)
	a.ch[ch].timer = bit.ExtractBits(value, 5, 0)
	a.ch[ch].length = squareLength - int(a.ch[ch].timer)
}

func (a *APU) writeEnvelope(ch int, value uint8) {
	c := &a.ch[ch]
	c.initialVolume = bit.ExtractBits(value, 7, 4)
	c.envelopeUp = bit.IsSet(3, value)
	c.envelopePace = bit.ExtractBits(value, 2, 0)
	// the DAC is on when any of bits 3-7 are set
	c.dacEnabled = value&0xF8 != 0
	if !c.dacEnabled {
		c.enabled = false
	}
}

func (a *APU) writeControl(ch int, value uint8) {
	c := &a.ch[ch]
	if c.kind != kindNoise {
		c.freq = updateFrequencyHigh(c.freq, value)
	}
	c.lengthEnabled = bit.IsSet(6, value)
	if bit.IsSet(7, value) {
		c.trigger()
	}
}

// updateFrequencyLow updates the low 8 bits of a frequency value
func updateFrequencyLow(current uint16, lowByte uint8) uint16 {
	return (current & 0x700) | uint16(lowByte)
}

// updateFrequencyHigh updates the high 3 bits of a frequency value
func updateFrequencyHigh(current uint16, highBits uint8) uint16 {
	return (current & 0xFF) | (uint16(highBits&0x07) << 8)
}

// ToggleChannel toggles muting for a channel (1-4).
func (a *APU) ToggleChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}
	mask := uint32(1) << (channel - 1)
	for {
		old := a.muted.Load()
		if a.muted.CompareAndSwap(old, old^mask) {
			return
		}
	}
}

// SoloChannel mutes all channels except the specified one
func (a *APU) SoloChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}
	a.muted.Store(0x0F &^ (1 << (channel - 1)))
}

// UnmuteAll unmutes all channels
func (a *APU) UnmuteAll() {
	a.muted.Store(0)
}

// ChannelStatus reports, per channel, whether it is running and not muted.
func (a *APU) ChannelStatus() [4]bool {
	muted := a.muted.Load()
	var status [4]bool
	for i := range a.ch {
		status[i] = a.ch[i].enabled && muted&(1<<i) == 0
	}
	return status
}

// ChannelVolumes returns the current envelope volumes.
func (a *APU) ChannelVolumes() [4]uint8 {
	return [4]uint8{a.ch[0].volume, a.ch[1].volume, a.ch[2].outputLevel, a.ch[3].volume}
}

// State is the serialisable form of the APU. Waveform phase is not kept; running
// channels are retriggered on restore.
type State struct {
	Registers   [0x20]byte
	WaveRAM     [waveRAMSize]uint8
	Enabled     bool
	Channels    uint8 // NR52 status bits
	FrameStep   int
	FrameCycles int
}

func (a *APU) State() State {
	s := State{
		Registers:   a.registers,
		WaveRAM:     a.waveRAM,
		Enabled:     a.enabled,
		FrameStep:   a.frameStep,
		FrameCycles: a.frameCycles,
	}
	s.Channels = a.Read(addr.NR52) & 0x0F
	return s
}

func (a *APU) Restore(s State) {
	a.setPower(false)
	a.waveRAM = s.WaveRAM
	if !s.Enabled {
		return
	}
	a.setPower(true)
	for address := addr.NR10; address < addr.NR52; address++ {
		v := s.Registers[address-addr.AudioStart]
		switch address {
		case addr.NR14, addr.NR24, addr.NR34, addr.NR44:
			v &^= 0x80
		}
		a.Write(address, v)
	}
	for i := range a.ch {
		if s.Channels&(1<<i) != 0 {
			a.ch[i].trigger()
		}
	}
	a.frameStep = s.FrameStep
	a.frameCycles = s.FrameCycles
}
