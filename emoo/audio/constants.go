package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// CPUFrequency is the DMG master clock in ticks per second.
	CPUFrequency = 4194304

	// cyclesPerStep is the number of ticks per frame sequencer step.
	// The frame sequencer runs at 512 Hz: 4194304 Hz / 512 Hz = 8192 t-cycles
	cyclesPerStep = 8192

	DefaultSampleRate  = 44100
	DefaultChunkFrames = 512
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles)
	waveRAMSize = 16

	squareLength = 64
	waveLength   = 256
	noiseLength  = 64

	maxFrequency = 2047

	lfsrInitialValue = 0x7FFF

	// sampleAmplitude scales a 4-bit channel level so that four channels at full volume
	// with NR50 at 7 stay inside int16.
	sampleAmplitude = 64
)

// dutyPatterns holds the 8-step waveforms for 12.5%, 25%, 50% and 75% duty.
var dutyPatterns = [4]uint8{0b00000001, 0b10000001, 0b10000111, 0b01111110}

// noiseDivisors maps the NR43 divisor code to a tick period before the shift is applied.
var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// readMasks holds the bits that read back as 1 for each register FF10-FF2F, write-only
// and unused bits included.
var readMasks = [0x20]uint8{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50-NR52
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // FF27-FF2F
}
