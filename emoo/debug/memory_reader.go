package debug

// MemoryReader provides read-only access to emulator memory for debug tools.
// Reads must not have side effects on the emulated hardware.
type MemoryReader interface {
	Peek(address uint16) byte
}

// peekBus adapts a MemoryReader to cpu.Bus for the disassembler. Writes are dropped.
type peekBus struct {
	MemoryReader
}

func (p peekBus) Read(address uint16) byte { return p.Peek(address) }

func (p peekBus) Write(uint16, byte) {}
