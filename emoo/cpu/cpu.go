package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

// Bus is the CPU's view of the address space.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// Flag is one of the 4 possible flags used in the flag register (low part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

const (
	interruptDispatchCycles = 20
	haltCycles              = 4
	unknownOpcodeCycles     = 4
)

// Registers is a snapshot of the register file, used for tracing and debug views.
type Registers struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
	IME                    bool
	Halted                 bool
}

// Option configures a CPU.
type Option func(*CPU)

// WithTracer installs a callback invoked with the register file right before each
// instruction is fetched.
func WithTracer(fn func(Registers)) Option {
	return func(c *CPU) { c.tracer = fn }
}

// WithLogger sets the logger used for unknown opcode warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *CPU) { c.logger = l }
}

// CPU is the SM83 core. It runs one instruction at a time but is clocked per dot: an
// instruction executes atomically on its first tick and then the CPU sits idle for the
// remaining ticks of its cost.
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// metadata
	ime    bool
	halted bool
	// eiDelay counts the instructions left before a pending EI takes effect.
	eiDelay       int
	remaining     int
	currentOpcode uint16
	cycles        uint64

	bus    Bus
	tracer func(Registers)
	logger *slog.Logger
}

// New returns a CPU with the register values the DMG boot ROM leaves behind.
func New(bus Bus, opts ...Option) *CPU {
	c := &CPU{
		bus:    bus,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100

	return c
}

// Tick advances the CPU by one dot.
func (c *CPU) Tick() {
	if c.remaining > 0 {
		c.remaining--
		return
	}

	cost := c.step()
	c.cycles += uint64(cost)
	c.remaining = cost - 1
}

// step makes one scheduling decision: dispatch an interrupt, idle in HALT, or execute
// one instruction. It returns the cost in dots.
func (c *CPU) step() int {
	pending := c.bus.Read(addr.IF) & c.bus.Read(addr.IE) & addr.InterruptMask

	if pending != 0 {
		c.halted = false
	}

	if c.ime && pending != 0 {
		return c.dispatch(pending)
	}

	if c.halted {
		return haltCycles
	}

	if c.tracer != nil {
		c.tracer(c.Registers())
	}

	instruction := c.decode()
	var cycles int
	if instruction == nil {
		cycles = c.unknownOpcode()
	} else {
		cycles = instruction(c)
	}

	if c.eiDelay > 0 {
		c.eiDelay--
		if c.eiDelay == 0 {
			c.ime = true
		}
	}

	return cycles
}

// dispatch services the highest priority pending interrupt.
func (c *CPU) dispatch(pending uint8) int {
	irq, _ := addr.Highest(pending)

	flags := c.bus.Read(addr.IF)
	c.bus.Write(addr.IF, flags&^uint8(irq))

	c.ime = false
	c.eiDelay = 0
	c.pushStack(c.pc)
	c.pc = irq.Vector()

	return interruptDispatchCycles
}

// decode fetches the opcode at PC, advancing past it and any 0xCB prefix.
func (c *CPU) decode() Opcode {
	code := c.readImmediate()
	if code == 0xCB {
		code = c.readImmediate()
		c.currentOpcode = bit.Combine(0xCB, code)
		return opcodesCB[code]
	}
	c.currentOpcode = uint16(code)
	return opcodes[code]
}

func (c *CPU) unknownOpcode() int {
	c.logger.Warn("Unknown opcode",
		"opcode", fmt.Sprintf("0x%02X", c.currentOpcode),
		"pc", fmt.Sprintf("0x%04X", c.pc-1))
	return unknownOpcodeCycles
}

// readImmediate returns the byte at PC and advances PC.
func (c *CPU) readImmediate() uint8 {
	n := c.bus.Read(c.pc)
	c.pc++
	return n
}

// readImmediateWord returns the little endian word at PC and advances PC twice.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise
func (c CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if !condition {
		c.resetFlag(flag)
		return
	}
	c.setFlag(flag)
}

// setFlags overwrites all four flags.
func (c *CPU) setFlags(z, n, h, carry bool) {
	c.f = 0
	c.setFlagToCondition(zeroFlag, z)
	c.setFlagToCondition(subFlag, n)
	c.setFlagToCondition(halfCarryFlag, h)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// F register lower 4 bits must be 0
	c.f = bit.Low(value) & 0xF0
}

func (c CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Registers returns a snapshot of the register file.
func (c *CPU) Registers() Registers {
	return Registers{
		A: c.a, F: c.f, B: c.b, C: c.c, D: c.d, E: c.e, H: c.h, L: c.l,
		SP: c.sp, PC: c.pc,
		IME:    c.ime,
		Halted: c.halted,
	}
}

// Cycles returns the total dots consumed since power on.
func (c *CPU) Cycles() uint64 { return c.cycles }

// PendingInterrupts returns which interrupts are both enabled and requested
func (c *CPU) PendingInterrupts() uint8 {
	return c.bus.Read(addr.IE) & c.bus.Read(addr.IF) & addr.InterruptMask
}

// FlagString returns a human-readable representation of the flag register
func (c *CPU) FlagString() string {
	flags := []byte("----")
	for i, f := range []Flag{zeroFlag, subFlag, halfCarryFlag, carryFlag} {
		if c.isSetFlag(f) {
			flags[i] = "ZNHC"[i]
		}
	}
	return string(flags)
}

// State is the serialisable form of the CPU.
type State struct {
	Registers
	EIDelay   int
	Remaining int
	Cycles    uint64
}

func (c *CPU) State() State {
	return State{
		Registers: c.Registers(),
		EIDelay:   c.eiDelay,
		Remaining: c.remaining,
		Cycles:    c.cycles,
	}
}

func (c *CPU) Restore(s State) {
	r := s.Registers
	c.a, c.b, c.c, c.d, c.e, c.h, c.l = r.A, r.B, r.C, r.D, r.E, r.H, r.L
	c.f = r.F & 0xF0
	c.sp, c.pc = r.SP, r.PC
	c.ime, c.halted = r.IME, r.Halted
	c.eiDelay, c.remaining, c.cycles = s.EIDelay, s.Remaining, s.Cycles
}
