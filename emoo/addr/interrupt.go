package addr

import "fmt"

// Interrupt is one of the five interrupt sources, encoded as its bit in IF/IE.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the PPU enters VBlank (LY=144).
	VBlankInterrupt Interrupt = 1
	// LCDSTATInterrupt is fired based on one of the conditions enabled in the STAT register.
	LCDSTATInterrupt Interrupt = 1 << 1
	// TimerInterrupt is fired when TIMA overflows (i.e. goes from 0xFF to 0x00).
	TimerInterrupt Interrupt = 1 << 2
	// SerialInterrupt is fired when a serial transfer has completed on the link port.
	SerialInterrupt Interrupt = 1 << 3
	// JoypadInterrupt is fired when any of the joypad inputs goes from high to low.
	JoypadInterrupt Interrupt = 1 << 4
)

// InterruptMask covers the five implemented bits of IF and IE.
const InterruptMask uint8 = 0x1F

// Priority lists the interrupt sources from highest to lowest priority.
var Priority = [5]Interrupt{
	VBlankInterrupt,
	LCDSTATInterrupt,
	TimerInterrupt,
	SerialInterrupt,
	JoypadInterrupt,
}

// Vector returns the dispatch address for the interrupt.
func (i Interrupt) Vector() uint16 {
	switch i {
	case VBlankInterrupt:
		return 0x40
	case LCDSTATInterrupt:
		return 0x48
	case TimerInterrupt:
		return 0x50
	case SerialInterrupt:
		return 0x58
	case JoypadInterrupt:
		return 0x60
	}
	return 0
}

func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "VBlank"
	case LCDSTATInterrupt:
		return "STAT"
	case TimerInterrupt:
		return "Timer"
	case SerialInterrupt:
		return "Serial"
	case JoypadInterrupt:
		return "Joypad"
	}
	return fmt.Sprintf("Interrupt(%#02x)", uint8(i))
}

// Highest returns the highest priority interrupt set in pending, which is
// expected to be IF & IE. ok is false when nothing is pending.
func Highest(pending uint8) (irq Interrupt, ok bool) {
	for _, i := range Priority {
		if pending&uint8(i) != 0 {
			return i, true
		}
	}
	return 0, false
}
