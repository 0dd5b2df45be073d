package memory

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

const (
	selectDirections uint8 = 0x10
	selectActions    uint8 = 0x20
)

// Joypad models the P1 register. Button state is kept as pressed flags and the active-low
// register value is synthesised on every read.
type Joypad struct {
	pressed [8]bool
	sel     uint8

	// InterruptHandler is called when a key goes from released to pressed.
	InterruptHandler func()
}

// NewJoypad creates a new Joypad instance with both groups deselected.
func NewJoypad() *Joypad {
	return &Joypad{sel: 0x30}
}

// Read returns the P1 value for the currently selected button groups.
func (j *Joypad) Read() uint8 {
	low := uint8(0x0F)

	if j.sel&selectActions == 0 {
		for i, key := range []JoypadKey{JoypadA, JoypadB, JoypadSelect, JoypadStart} {
			if j.pressed[key] {
				low &^= 1 << i
			}
		}
	}
	if j.sel&selectDirections == 0 {
		for i, key := range []JoypadKey{JoypadRight, JoypadLeft, JoypadUp, JoypadDown} {
			if j.pressed[key] {
				low &^= 1 << i
			}
		}
	}

	return 0xC0 | j.sel | low
}

// Write sets the joypad group select bits. Only bits 4 and 5 are writable.
func (j *Joypad) Write(value uint8) {
	j.sel = value & 0x30
}

// Press updates the joypad state when a key is pressed
func (j *Joypad) Press(key JoypadKey) {
	if key > JoypadStart {
		return
	}
	if !j.pressed[key] && j.InterruptHandler != nil {
		j.InterruptHandler()
	}
	j.pressed[key] = true
}

// Release updates the joypad state when a key is released
func (j *Joypad) Release(key JoypadKey) {
	if key > JoypadStart {
		return
	}
	j.pressed[key] = false
}

// IsPressed reports the logical state of a key.
func (j *Joypad) IsPressed(key JoypadKey) bool {
	return key <= JoypadStart && j.pressed[key]
}
