package audio

type channelKind uint8

const (
	kindSquare channelKind = iota
	kindWave
	kindNoise
)

// channel holds the state of one sound channel. Not every field applies to every kind:
// sweep is channel 1 only, the wave fields are channel 3 and the LFSR is channel 4.
type channel struct {
	kind channelKind

	enabled    bool
	dacEnabled bool
	left       bool
	right      bool

	freq   uint16
	period int // ticks until the waveform advances

	// square
	duty     uint8
	dutyStep uint8

	// length
	timer         uint8 // raw length data from NRx1
	length        int
	maxLength     int
	lengthEnabled bool

	// envelope
	volume        uint8
	initialVolume uint8
	envelopeUp    bool
	envelopePace  uint8
	envelopeTimer uint8

	// sweep
	hasSweep     bool
	sweepPeriod  uint8
	sweepDown    bool
	sweepStep    uint8
	sweepTimer   uint8
	sweepEnabled bool
	shadowFreq   uint16

	// wave
	outputLevel uint8
	waveIndex   uint8

	// noise
	lfsr        uint16
	clockShift  uint8
	narrow      bool
	divisorCode uint8
}

func newChannel(kind channelKind, maxLength int) channel {
	return channel{kind: kind, maxLength: maxLength, lfsr: lfsrInitialValue}
}

func (c *channel) reloadPeriod() {
	switch c.kind {
	case kindSquare:
		c.period = int(2048-c.freq) * 4
	case kindWave:
		c.period = int(2048-c.freq) * 2
	case kindNoise:
		c.period = noiseDivisors[c.divisorCode] << c.clockShift
	}
}

// tick advances the frequency timer by one tick.
func (c *channel) tick() {
	if !c.enabled {
		return
	}
	c.period--
	if c.period > 0 {
		return
	}
	c.reloadPeriod()

	switch c.kind {
	case kindSquare:
		c.dutyStep = (c.dutyStep + 1) & 7
	case kindWave:
		c.waveIndex = (c.waveIndex + 1) & 31
	case kindNoise:
		feedback := (c.lfsr ^ c.lfsr>>1) & 1
		c.lfsr = c.lfsr>>1 | feedback<<14
		if c.narrow {
			c.lfsr = c.lfsr&^(1<<6) | feedback<<6
		}
	}
}

// trigger restarts the channel from its registers.
func (c *channel) trigger() {
	c.enabled = true
	if c.length == 0 {
		c.length = c.maxLength
	}
	c.reloadPeriod()

	switch c.kind {
	case kindWave:
		c.waveIndex = 0
	case kindNoise:
		c.lfsr = lfsrInitialValue
	}

	if c.kind != kindWave {
		c.volume = c.initialVolume
		c.envelopeTimer = c.envelopePace
	}

	if c.hasSweep {
		c.shadowFreq = c.freq
		c.sweepTimer = c.sweepReload()
		c.sweepEnabled = c.sweepPeriod != 0 || c.sweepStep != 0
		if c.sweepStep != 0 {
			c.nextSweepFrequency()
		}
	}

	if !c.dacEnabled {
		c.enabled = false
	}
}

func (c *channel) clockLength() {
	if !c.lengthEnabled || c.length == 0 {
		return
	}
	c.length--
	if c.length == 0 {
		c.enabled = false
	}
}

func (c *channel) clockEnvelope() {
	if c.kind == kindWave || c.envelopePace == 0 {
		return
	}
	if c.envelopeTimer > 0 {
		c.envelopeTimer--
	}
	if c.envelopeTimer > 0 {
		return
	}
	c.envelopeTimer = c.envelopePace
	if c.envelopeUp && c.volume < 15 {
		c.volume++
	} else if !c.envelopeUp && c.volume > 0 {
		c.volume--
	}
}

func (c *channel) sweepReload() uint8 {
	if c.sweepPeriod == 0 {
		return 8
	}
	return c.sweepPeriod
}

// nextSweepFrequency computes the swept frequency and disables the channel on overflow.
func (c *channel) nextSweepFrequency() uint16 {
	delta := c.shadowFreq >> c.sweepStep
	next := c.shadowFreq + delta
	if c.sweepDown {
		next = c.shadowFreq - delta
	}
	if next > maxFrequency {
		c.enabled = false
	}
	return next
}

func (c *channel) clockSweep() {
	if !c.hasSweep {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer > 0 {
		return
	}
	c.sweepTimer = c.sweepReload()
	if !c.sweepEnabled || c.sweepPeriod == 0 {
		return
	}

	next := c.nextSweepFrequency()
	if next <= maxFrequency && c.sweepStep != 0 {
		c.freq = next
		c.shadowFreq = next
		c.nextSweepFrequency()
	}
}

// output returns the channel's signed level, between -15 and 15.
func (c *channel) output(wave *[waveRAMSize]uint8) int {
	if !c.enabled || !c.dacEnabled {
		return 0
	}

	switch c.kind {
	case kindSquare:
		if dutyPatterns[c.duty&3]>>(7-c.dutyStep)&1 == 1 {
			return int(c.volume)
		}
		return -int(c.volume)
	case kindWave:
		if c.outputLevel == 0 {
			return 0
		}
		sample := wave[c.waveIndex/2]
		if c.waveIndex&1 == 0 {
			sample >>= 4
		}
		shift := c.outputLevel - 1
		level := int(sample&0x0F) >> shift
		return 2*level - 15>>shift
	default:
		if c.lfsr&1 == 0 {
			return int(c.volume)
		}
		return -int(c.volume)
	}
}
