package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-emoo/emoo/addr"
)

func TestPowerOnRegisters(t *testing.T) {
	c, _ := newTestCPU()
	r := c.Registers()

	assert.Equal(t, uint16(0x01B0), c.getAF())
	assert.Equal(t, uint16(0x0013), c.getBC())
	assert.Equal(t, uint16(0x00D8), c.getDE())
	assert.Equal(t, uint16(0x014D), c.getHL())
	assert.Equal(t, uint16(0xFFFE), r.SP)
	assert.Equal(t, uint16(0x0100), r.PC)
	assert.False(t, r.IME)
	assert.Equal(t, "Z-HC", c.FlagString())
}

func TestInstructionTiming(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		flags   Flag
		cost    int
		pc      uint16
	}{
		{"NOP", []byte{0x00}, 0, 4, 0x0101},
		{"LD BC,nn", []byte{0x01, 0x34, 0x12}, 0, 12, 0x0103},
		{"JR NZ taken", []byte{0x20, 0x05}, 0, 12, 0x0107},
		{"JR NZ not taken", []byte{0x20, 0x05}, zeroFlag, 8, 0x0102},
		{"JR backwards", []byte{0x18, 0xFE}, 0, 12, 0x0100},
		{"JP C taken", []byte{0xDA, 0x00, 0x20}, carryFlag, 16, 0x2000},
		{"JP C not taken", []byte{0xDA, 0x00, 0x20}, 0, 12, 0x0103},
		{"CALL nn", []byte{0xCD, 0x00, 0x30}, 0, 24, 0x3000},
		{"CALL Z not taken", []byte{0xCC, 0x00, 0x30}, 0, 12, 0x0103},
		{"RET Z not taken", []byte{0xC8}, 0, 8, 0x0101},
		{"RST 0x38", []byte{0xFF}, 0, 16, 0x0038},
		{"LD (HL),n", []byte{0x36, 0x01}, 0, 12, 0x0102},
		{"INC (HL)", []byte{0x34}, 0, 12, 0x0101},
		{"LD B,(HL)", []byte{0x46}, 0, 8, 0x0101},
		{"LD (nn),SP", []byte{0x08, 0x00, 0xC1}, 0, 20, 0x0103},
		{"LDH A,(n)", []byte{0xF0, 0x80}, 0, 12, 0x0102},
		{"JP (HL)", []byte{0xE9}, 0, 4, 0xC000},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, _ := newTestCPU(tC.program...)
			c.f = uint8(tC.flags)
			c.setHL(0xC000)

			assert.Equal(t, tC.cost, runInstruction(c))
			assert.Equal(t, tC.pc, c.pc)
		})
	}
}

func TestCallAndReturn(t *testing.T) {
	c, bus := newTestCPU(0xCD, 0x00, 0x30)
	bus.mem[0x3000] = 0xC0 // RET NZ

	runInstruction(c)
	assert.Equal(t, uint16(0x3000), c.pc)
	assert.Equal(t, uint8(0x01), bus.mem[0xFFFD])
	assert.Equal(t, uint8(0x03), bus.mem[0xFFFC])

	c.f = 0
	assert.Equal(t, 20, runInstruction(c))
	assert.Equal(t, uint16(0x0103), c.pc)
	assert.Equal(t, uint16(0xFFFE), c.sp)
}

func TestTickCountsDown(t *testing.T) {
	c, _ := newTestCPU(0x3E, 0x42, 0x3C) // LD A,n ; INC A

	c.Tick()
	assert.Equal(t, uint8(0x42), c.a, "executes on the first tick")
	for i := 0; i < 7; i++ {
		c.Tick()
		assert.Equal(t, uint8(0x42), c.a)
	}
	c.Tick()
	assert.Equal(t, uint8(0x43), c.a)
	assert.Equal(t, uint64(12), c.Cycles())
}

func TestInterruptDispatch(t *testing.T) {
	t.Run("interrupts disabled by default", func(t *testing.T) {
		c, bus := newTestCPU(0x00)
		bus.mem[addr.IF] = 0x01
		bus.mem[addr.IE] = 0x01

		assert.Equal(t, 4, runInstruction(c))
		assert.Equal(t, uint16(0x0101), c.pc)
		assert.Equal(t, uint8(0x01), c.PendingInterrupts())
	})

	t.Run("priority order", func(t *testing.T) {
		c, bus := newTestCPU(0x00)
		c.ime = true
		bus.mem[addr.IF] = 0x1E
		bus.mem[addr.IE] = 0x1C

		assert.Equal(t, 20, runInstruction(c))
		assert.Equal(t, uint16(0x0050), c.pc)
		assert.Equal(t, uint8(0x1A), bus.mem[addr.IF], "only the serviced bit is cleared")
		assert.False(t, c.ime)
		assert.Equal(t, uint16(0xFFFC), c.sp)
		assert.Equal(t, uint8(0x01), bus.mem[0xFFFD])
		assert.Equal(t, uint8(0x00), bus.mem[0xFFFC])
	})

	t.Run("vectors", func(t *testing.T) {
		for _, irq := range addr.Priority {
			c, bus := newTestCPU()
			c.ime = true
			bus.mem[addr.IF] = uint8(irq)
			bus.mem[addr.IE] = 0x1F

			runInstruction(c)
			assert.Equal(t, irq.Vector(), c.pc, irq.String())
		}
	})

	t.Run("upper IF bits are ignored", func(t *testing.T) {
		c, bus := newTestCPU(0x00)
		c.ime = true
		bus.mem[addr.IF] = 0xE0
		bus.mem[addr.IE] = 0xFF

		assert.Equal(t, 4, runInstruction(c))
		assert.Equal(t, uint16(0x0101), c.pc)
	})
}

func TestEIDelay(t *testing.T) {
	c, bus := newTestCPU(0xFB, 0x00, 0x00)
	bus.mem[addr.IF] = 0x04
	bus.mem[addr.IE] = 0x04

	runInstruction(c)
	assert.False(t, c.ime, "EI takes effect after the next instruction")
	assert.Equal(t, uint16(0x0101), c.pc)

	runInstruction(c)
	assert.True(t, c.ime)
	assert.Equal(t, uint16(0x0102), c.pc, "the instruction after EI always runs")

	assert.Equal(t, 20, runInstruction(c))
	assert.Equal(t, uint16(0x0050), c.pc)
	assert.Equal(t, uint8(0x02), bus.mem[0xFFFC], "returns after the second NOP")
}

func TestDICancelsPendingEI(t *testing.T) {
	c, _ := newTestCPU(0xFB, 0xF3, 0x00)

	runInstruction(c)
	runInstruction(c)
	runInstruction(c)

	assert.False(t, c.ime)
}

func TestRETIEnablesImmediately(t *testing.T) {
	c, bus := newTestCPU(0xD9)
	c.sp = 0xC000
	bus.mem[0xC000] = 0x34
	bus.mem[0xC001] = 0x12

	assert.Equal(t, 16, runInstruction(c))
	assert.Equal(t, uint16(0x1234), c.pc)
	assert.True(t, c.ime)
}

func TestHalt(t *testing.T) {
	t.Run("idles until an interrupt is pending", func(t *testing.T) {
		c, bus := newTestCPU(0x76, 0x3C)
		c.a = 0

		runInstruction(c)
		require.True(t, c.halted)

		for i := 0; i < 3; i++ {
			assert.Equal(t, 4, runInstruction(c))
			assert.Equal(t, uint16(0x0101), c.pc)
		}

		bus.mem[addr.IF] = 0x04
		bus.mem[addr.IE] = 0x04
		runInstruction(c)

		assert.False(t, c.halted)
		assert.Equal(t, uint8(1), c.a, "resumes without dispatch when IME is off")
		assert.Equal(t, uint8(0x04), bus.mem[addr.IF])
	})

	t.Run("dispatches when IME is on", func(t *testing.T) {
		c, bus := newTestCPU(0x76, 0x00)
		c.ime = true

		runInstruction(c)
		bus.mem[addr.IF] = 0x01
		bus.mem[addr.IE] = 0x01

		assert.Equal(t, 20, runInstruction(c))
		assert.False(t, c.halted)
		assert.Equal(t, uint16(0x0040), c.pc)
		assert.Equal(t, uint8(0x01), bus.mem[0xFFFC])
	})

	t.Run("requested but disabled does not wake", func(t *testing.T) {
		c, bus := newTestCPU(0x76)
		runInstruction(c)
		bus.mem[addr.IF] = 0x01
		bus.mem[addr.IE] = 0x00

		runInstruction(c)
		assert.True(t, c.halted)
	})
}

func TestStopResetsDivider(t *testing.T) {
	c, bus := newTestCPU(0x10, 0x00, 0x00)
	bus.mem[addr.DIV] = 0x55

	assert.Equal(t, 4, runInstruction(c))
	assert.Equal(t, uint8(0), bus.mem[addr.DIV])
	assert.Equal(t, uint16(0x0102), c.pc)
}

func TestUnknownOpcode(t *testing.T) {
	for _, op := range []byte{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD} {
		c, _ := newTestCPU(op, 0x3C)
		c.a = 0

		assert.Equal(t, 4, runInstruction(c), "opcode 0x%02X", op)
		assert.Equal(t, uint16(0x0101), c.pc)
		runInstruction(c)
		assert.Equal(t, uint8(1), c.a, "execution continues after 0x%02X", op)
	}
}

func TestOpcodeTablesAreComplete(t *testing.T) {
	unknown := map[int]bool{0xCB: true, 0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true,
		0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true}

	for op := 0; op < 0x100; op++ {
		if unknown[op] {
			assert.Nil(t, opcodes[op], "opcode 0x%02X", op)
		} else {
			assert.NotNil(t, opcodes[op], "opcode 0x%02X", op)
		}
		assert.NotNil(t, opcodesCB[op], "opcode 0xCB%02X", op)
	}
}

func TestTracer(t *testing.T) {
	var pcs []uint16
	bus := &testBus{}
	bus.mem[0x0100] = 0x00
	bus.mem[0x0101] = 0x76
	c := New(bus, WithTracer(func(r Registers) { pcs = append(pcs, r.PC) }))

	for i := 0; i < 4; i++ {
		runInstruction(c)
	}

	assert.Equal(t, []uint16{0x0100, 0x0101}, pcs, "halted cycles are not traced")
}

func TestStateRestore(t *testing.T) {
	c, _ := newTestCPU(0xFB)
	c.setBC(0xBEEF)
	runInstruction(c)

	s := c.State()
	other, _ := newTestCPU()
	other.Restore(s)

	assert.Equal(t, c.Registers(), other.Registers())
	assert.Equal(t, 1, other.eiDelay)
	assert.Equal(t, c.Cycles(), other.Cycles())
}
