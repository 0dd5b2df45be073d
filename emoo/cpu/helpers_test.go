package cpu

import (
	"io"
	"log/slog"
)

// testBus is a flat 64KB address space with no side effects.
type testBus struct {
	mem [0x10000]byte
}

func (b *testBus) Read(address uint16) byte { return b.mem[address] }

func (b *testBus) Write(address uint16, value byte) { b.mem[address] = value }

// newTestCPU loads program at 0x0100, where the CPU starts executing.
func newTestCPU(program ...byte) (*CPU, *testBus) {
	bus := &testBus{}
	copy(bus.mem[0x0100:], program)
	c := New(bus, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return c, bus
}

// runInstruction ticks until the CPU reaches the next instruction boundary and returns the
// number of ticks taken.
func runInstruction(c *CPU) int {
	c.Tick()
	ticks := 1
	for c.remaining > 0 {
		c.Tick()
		ticks++
	}
	return ticks
}
