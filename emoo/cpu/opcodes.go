package cpu

import (
	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

// Opcode executes one instruction and returns its cost in dots.
type Opcode func(*CPU) int

// opcodes is indexed by the opcode byte. Nil entries are opcodes the hardware does not
// implement; 0xCB is consumed as a prefix by decode and never looked up.
var opcodes = buildOpcodes()

// operand indexes as encoded in the low three bits of most opcodes
const (
	operandB uint8 = iota
	operandC
	operandD
	operandE
	operandH
	operandL
	operandHL
	operandA
)

func (c *CPU) readOperand(index uint8) uint8 {
	switch index {
	case operandB:
		return c.b
	case operandC:
		return c.c
	case operandD:
		return c.d
	case operandE:
		return c.e
	case operandH:
		return c.h
	case operandL:
		return c.l
	case operandHL:
		return c.bus.Read(c.getHL())
	default:
		return c.a
	}
}

func (c *CPU) writeOperand(index uint8, value uint8) {
	switch index {
	case operandB:
		c.b = value
	case operandC:
		c.c = value
	case operandD:
		c.d = value
	case operandE:
		c.e = value
	case operandH:
		c.h = value
	case operandL:
		c.l = value
	case operandHL:
		c.bus.Write(c.getHL(), value)
	default:
		c.a = value
	}
}

// readPair and writePair use the BC, DE, HL, SP encoding of bits 5-4.
func (c *CPU) readPair(index uint8) uint16 {
	switch index {
	case 0:
		return c.getBC()
	case 1:
		return c.getDE()
	case 2:
		return c.getHL()
	default:
		return c.sp
	}
}

func (c *CPU) writePair(index uint8, value uint16) {
	switch index {
	case 0:
		c.setBC(value)
	case 1:
		c.setDE(value)
	case 2:
		c.setHL(value)
	default:
		c.sp = value
	}
}

// condition evaluates NZ, Z, NC, C as encoded in bits 4-3.
func (c *CPU) condition(index uint8) bool {
	switch index {
	case 0:
		return !c.isSetFlag(zeroFlag)
	case 1:
		return c.isSetFlag(zeroFlag)
	case 2:
		return !c.isSetFlag(carryFlag)
	default:
		return c.isSetFlag(carryFlag)
	}
}

// alu applies one of ADD, ADC, SUB, SBC, AND, XOR, OR, CP to A.
func (c *CPU) alu(op uint8, value uint8) {
	switch op {
	case 0:
		c.addToA(value, false)
	case 1:
		c.addToA(value, true)
	case 2:
		c.subFromA(value, false, true)
	case 3:
		c.subFromA(value, true, true)
	case 4:
		c.and(value)
	case 5:
		c.xor(value)
	case 6:
		c.or(value)
	default:
		c.subFromA(value, false, false)
	}
}

func buildOpcodes() [256]Opcode {
	var table [256]Opcode

	// 8 bit register blocks in 0x00-0x3F
	for r := uint8(0); r < 8; r++ {
		reg := r
		slow := reg == operandHL

		table[0x04|reg<<3] = func(c *CPU) int {
			c.writeOperand(reg, c.inc(c.readOperand(reg)))
			if slow {
				return 12
			}
			return 4
		}
		table[0x05|reg<<3] = func(c *CPU) int {
			c.writeOperand(reg, c.dec(c.readOperand(reg)))
			if slow {
				return 12
			}
			return 4
		}
		table[0x06|reg<<3] = func(c *CPU) int {
			c.writeOperand(reg, c.readImmediate())
			if slow {
				return 12
			}
			return 8
		}
	}

	// 16 bit pair blocks in 0x00-0x3F
	for p := uint8(0); p < 4; p++ {
		pair := p
		table[0x01|pair<<4] = func(c *CPU) int {
			c.writePair(pair, c.readImmediateWord())
			return 12
		}
		table[0x03|pair<<4] = func(c *CPU) int {
			c.writePair(pair, c.readPair(pair)+1)
			return 8
		}
		table[0x09|pair<<4] = func(c *CPU) int {
			c.addToHL(c.readPair(pair))
			return 8
		}
		table[0x0B|pair<<4] = func(c *CPU) int {
			c.writePair(pair, c.readPair(pair)-1)
			return 8
		}
	}

	// LD r, r' (0x76 is HALT)
	for op := 0x40; op < 0x80; op++ {
		dst, src := uint8(op>>3)&7, uint8(op)&7
		cost := 4
		if dst == operandHL || src == operandHL {
			cost = 8
		}
		table[op] = func(c *CPU) int {
			c.writeOperand(dst, c.readOperand(src))
			return cost
		}
	}

	// ALU A, r and ALU A, n
	for op := 0x80; op < 0xC0; op++ {
		kind, src := uint8(op>>3)&7, uint8(op)&7
		cost := 4
		if src == operandHL {
			cost = 8
		}
		table[op] = func(c *CPU) int {
			c.alu(kind, c.readOperand(src))
			return cost
		}
	}
	for k := uint8(0); k < 8; k++ {
		kind := k
		table[0xC6|kind<<3] = func(c *CPU) int {
			c.alu(kind, c.readImmediate())
			return 8
		}
	}

	// conditional control flow and RST
	for cc := uint8(0); cc < 4; cc++ {
		cond := cc
		table[0x20|cond<<3] = func(c *CPU) int {
			if !c.condition(cond) {
				c.pc++
				return 8
			}
			c.jr()
			return 12
		}
		table[0xC0|cond<<3] = func(c *CPU) int {
			if !c.condition(cond) {
				return 8
			}
			c.pc = c.popStack()
			return 20
		}
		table[0xC2|cond<<3] = func(c *CPU) int {
			target := c.readImmediateWord()
			if !c.condition(cond) {
				return 12
			}
			c.pc = target
			return 16
		}
		table[0xC4|cond<<3] = func(c *CPU) int {
			target := c.readImmediateWord()
			if !c.condition(cond) {
				return 12
			}
			c.call(target)
			return 24
		}
	}
	for v := uint16(0); v < 8; v++ {
		vector := v * 8
		table[0xC7|v<<3] = func(c *CPU) int {
			c.call(vector)
			return 16
		}
	}

	// PUSH/POP use AF in place of SP
	for p := uint8(0); p < 3; p++ {
		pair := p
		table[0xC1|pair<<4] = func(c *CPU) int {
			c.writePair(pair, c.popStack())
			return 12
		}
		table[0xC5|pair<<4] = func(c *CPU) int {
			c.pushStack(c.readPair(pair))
			return 16
		}
	}
	table[0xF1] = opcode0xF1
	table[0xF5] = opcode0xF5

	irregular := map[uint8]Opcode{
		0x00: opcode0x00, 0x02: opcode0x02, 0x07: opcode0x07, 0x08: opcode0x08,
		0x0A: opcode0x0A, 0x0F: opcode0x0F, 0x10: opcode0x10, 0x12: opcode0x12,
		0x17: opcode0x17, 0x18: opcode0x18, 0x1A: opcode0x1A, 0x1F: opcode0x1F,
		0x22: opcode0x22, 0x27: opcode0x27, 0x2A: opcode0x2A, 0x2F: opcode0x2F,
		0x32: opcode0x32, 0x37: opcode0x37, 0x3A: opcode0x3A, 0x3F: opcode0x3F,
		0x76: opcode0x76,
		0xC3: opcode0xC3, 0xC9: opcode0xC9, 0xCD: opcode0xCD, 0xD9: opcode0xD9,
		0xE0: opcode0xE0, 0xE2: opcode0xE2, 0xE8: opcode0xE8, 0xE9: opcode0xE9,
		0xEA: opcode0xEA, 0xF0: opcode0xF0, 0xF2: opcode0xF2, 0xF3: opcode0xF3,
		0xF8: opcode0xF8, 0xF9: opcode0xF9, 0xFA: opcode0xFA, 0xFB: opcode0xFB,
	}
	for op, fn := range irregular {
		table[op] = fn
	}

	return table
}

// NOP
// 0x00:
func opcode0x00(_ *CPU) int {
	return 4
}

// LD (BC), A
// 0x02:
func opcode0x02(c *CPU) int {
	c.bus.Write(c.getBC(), c.a)
	return 8
}

// RLCA
// 0x07:
func opcode0x07(c *CPU) int {
	c.a = c.rlc(c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// LD (nn), SP
// 0x08:
func opcode0x08(c *CPU) int {
	address := c.readImmediateWord()
	c.bus.Write(address, bit.Low(c.sp))
	c.bus.Write(address+1, bit.High(c.sp))
	return 20
}

// LD A, (BC)
// 0x0A:
func opcode0x0A(c *CPU) int {
	c.a = c.bus.Read(c.getBC())
	return 8
}

// RRCA
// 0x0F:
func opcode0x0F(c *CPU) int {
	c.a = c.rrc(c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// STOP
// 0x10: the second byte is skipped and the divider is reset, as on hardware. Low power
// mode itself is not modelled.
func opcode0x10(c *CPU) int {
	c.pc++
	c.bus.Write(addr.DIV, 0)
	return 4
}

// LD (DE), A
// 0x12:
func opcode0x12(c *CPU) int {
	c.bus.Write(c.getDE(), c.a)
	return 8
}

// RLA
// 0x17:
func opcode0x17(c *CPU) int {
	c.a = c.rl(c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// JR n
// 0x18:
func opcode0x18(c *CPU) int {
	c.jr()
	return 12
}

// LD A, (DE)
// 0x1A:
func opcode0x1A(c *CPU) int {
	c.a = c.bus.Read(c.getDE())
	return 8
}

// RRA
// 0x1F:
func opcode0x1F(c *CPU) int {
	c.a = c.rr(c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// LD (HL+), A
// 0x22:
func opcode0x22(c *CPU) int {
	hl := c.getHL()
	c.bus.Write(hl, c.a)
	c.setHL(hl + 1)
	return 8
}

// DAA
// 0x27:
func opcode0x27(c *CPU) int {
	c.daa()
	return 4
}

// LD A, (HL+)
// 0x2A:
func opcode0x2A(c *CPU) int {
	hl := c.getHL()
	c.a = c.bus.Read(hl)
	c.setHL(hl + 1)
	return 8
}

// CPL
// 0x2F:
func opcode0x2F(c *CPU) int {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
	return 4
}

// LD (HL-), A
// 0x32:
func opcode0x32(c *CPU) int {
	hl := c.getHL()
	c.bus.Write(hl, c.a)
	c.setHL(hl - 1)
	return 8
}

// SCF
// 0x37:
func opcode0x37(c *CPU) int {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlag(carryFlag)
	return 4
}

// LD A, (HL-)
// 0x3A:
func opcode0x3A(c *CPU) int {
	hl := c.getHL()
	c.a = c.bus.Read(hl)
	c.setHL(hl - 1)
	return 8
}

// CCF
// 0x3F:
func opcode0x3F(c *CPU) int {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
	return 4
}

// HALT
// 0x76:
func opcode0x76(c *CPU) int {
	c.halted = true
	return 4
}

// JP nn
// 0xC3:
func opcode0xC3(c *CPU) int {
	c.pc = c.readImmediateWord()
	return 16
}

// RET
// 0xC9:
func opcode0xC9(c *CPU) int {
	c.pc = c.popStack()
	return 16
}

// CALL nn
// 0xCD:
func opcode0xCD(c *CPU) int {
	c.call(c.readImmediateWord())
	return 24
}

// RETI
// 0xD9: unlike EI, IME is set right away.
func opcode0xD9(c *CPU) int {
	c.pc = c.popStack()
	c.ime = true
	c.eiDelay = 0
	return 16
}

// LDH (n), A
// 0xE0:
func opcode0xE0(c *CPU) int {
	c.bus.Write(0xFF00+uint16(c.readImmediate()), c.a)
	return 12
}

// POP AF
// 0xF1:
func opcode0xF1(c *CPU) int {
	c.setAF(c.popStack())
	return 12
}

// LD (C), A
// 0xE2:
func opcode0xE2(c *CPU) int {
	c.bus.Write(0xFF00+uint16(c.c), c.a)
	return 8
}

// ADD SP, n
// 0xE8:
func opcode0xE8(c *CPU) int {
	c.sp = c.spPlusImmediate()
	return 16
}

// JP (HL)
// 0xE9:
func opcode0xE9(c *CPU) int {
	c.pc = c.getHL()
	return 4
}

// LD (nn), A
// 0xEA:
func opcode0xEA(c *CPU) int {
	c.bus.Write(c.readImmediateWord(), c.a)
	return 16
}

// LDH A, (n)
// 0xF0:
func opcode0xF0(c *CPU) int {
	c.a = c.bus.Read(0xFF00 + uint16(c.readImmediate()))
	return 12
}

// LD A, (C)
// 0xF2:
func opcode0xF2(c *CPU) int {
	c.a = c.bus.Read(0xFF00 + uint16(c.c))
	return 8
}

// DI
// 0xF3: also cancels an EI that has not taken effect yet.
func opcode0xF3(c *CPU) int {
	c.ime = false
	c.eiDelay = 0
	return 4
}

// PUSH AF
// 0xF5:
func opcode0xF5(c *CPU) int {
	c.pushStack(c.getAF())
	return 16
}

// LD HL, SP+n
// 0xF8:
func opcode0xF8(c *CPU) int {
	c.setHL(c.spPlusImmediate())
	return 12
}

// LD SP, HL
// 0xF9:
func opcode0xF9(c *CPU) int {
	c.sp = c.getHL()
	return 8
}

// LD A, (nn)
// 0xFA:
func opcode0xFA(c *CPU) int {
	c.a = c.bus.Read(c.readImmediateWord())
	return 16
}

// EI
// 0xFB: IME is set once the following instruction has completed.
func opcode0xFB(c *CPU) int {
	if !c.ime {
		c.eiDelay = 2
	}
	return 4
}
