package memory

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-emoo/emoo/addr"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

const dmaLength = 160

// Device is a register block mapped into the I/O page, such as the serial port or the
// sound unit. It only sees addresses inside its own range.
type Device interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

type dma struct {
	source    uint16
	dest      uint16
	remaining int
}

// Option configures an MMU.
type Option func(*MMU)

// WithClock sets the time source for cartridge real-time clocks.
func WithClock(c Clock) Option {
	return func(m *MMU) { m.clock = c }
}

// WithLogger sets the logger used for bus events.
func WithLogger(l *slog.Logger) Option {
	return func(m *MMU) { m.logger = l }
}

// MMU allows access to all memory mapped I/O and data/registers.
//
// The whole address space is held in a flat view. The switchable ROM and RAM areas of the
// view hold copies of the selected banks, maintained by the bank controller.
type MMU struct {
	view      [0x10000]byte
	regionMap [256]memRegion

	cart *Cartridge
	mbc  *bankController

	Joypad *Joypad
	Timer  *Timer

	serial Device
	audio  Device

	dma dma

	clock  Clock
	logger *slog.Logger
}

// New creates a memory unit with the cartridge mapped in and the registers set to the
// values left behind by the boot ROM. A nil cartridge behaves like an empty slot.
func New(cart *Cartridge, opts ...Option) *MMU {
	m := &MMU{
		clock:  SystemClock,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if cart == nil {
		cart = blankCartridge()
	}
	m.cart = cart

	initRegionMap(m)
	copy(m.view[:romBankSize], cart.rom[:romBankSize])
	m.mbc = newBankController(cart, m.view[0x4000:0x8000], m.view[0xA000:0xC000], m.clock)

	m.Joypad = NewJoypad()
	m.Joypad.InterruptHandler = func() { m.RequestInterrupt(addr.JoypadInterrupt) }
	m.Timer = NewTimer(func() { m.RequestInterrupt(addr.TimerInterrupt) })

	m.view[addr.IF] = 0x01
	m.view[addr.LCDC] = 0x91
	m.view[addr.STAT] = 0x81
	m.view[addr.BGP] = 0xFC
	m.view[addr.OBP0] = 0xFF
	m.view[addr.OBP1] = 0xFF

	return m
}

func blankCartridge() *Cartridge {
	c, _ := NewCartridge(make([]byte, 2*romBankSize))
	return c
}

func initRegionMap(m *MMU) {
	for i := range m.regionMap {
		switch {
		case i < 0x80:
			m.regionMap[i] = regionROM
		case i < 0xA0:
			m.regionMap[i] = regionVRAM
		case i < 0xC0:
			m.regionMap[i] = regionExtRAM
		case i < 0xE0:
			m.regionMap[i] = regionWRAM
		case i < 0xFE:
			m.regionMap[i] = regionEcho
		case i == 0xFE:
			m.regionMap[i] = regionOAM
		default:
			m.regionMap[i] = regionIO
		}
	}
}

// AttachSerial maps a serial device onto SB/SC.
func (m *MMU) AttachSerial(d Device) { m.serial = d }

// AttachAudio maps the sound unit onto 0xFF10-0xFF3F.
func (m *MMU) AttachAudio(d Device) { m.audio = d }

// Cartridge returns the inserted cartridge.
func (m *MMU) Cartridge() *Cartridge { return m.cart }

// ROMBank returns the bank currently mapped at 0x4000-0x7FFF.
func (m *MMU) ROMBank() int { return m.mbc.romBank }

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.view[addr.IF] |= uint8(interrupt) & addr.InterruptMask
}

// PendingInterrupts returns IF & IE restricted to the five implemented sources.
func (m *MMU) PendingInterrupts() byte {
	return m.view[addr.IF] & m.view[addr.IE] & addr.InterruptMask
}

// Peek reads the view without any side effects or access rules.
func (m *MMU) Peek(address uint16) byte {
	return m.view[address]
}

// Poke writes the view without any side effects or access rules.
func (m *MMU) Poke(address uint16, value byte) {
	m.view[address] = value
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionVRAM, regionWRAM:
		return m.view[address]
	case regionExtRAM:
		return m.mbc.readRAM(address)
	case regionEcho:
		return m.view[address-addr.EchoMirrorOffset]
	case regionOAM:
		if address >= addr.UnusableStart {
			return 0xFF
		}
		return m.view[address]
	default:
		return m.readIO(address)
	}
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.Joypad.Read()
	case address == addr.SB || address == addr.SC:
		if m.serial == nil {
			return 0xFF
		}
		return m.serial.Read(address)
	case address >= addr.DIV && address <= addr.TAC:
		return m.Timer.Read(address)
	case address == addr.IF:
		return m.view[address] | 0xE0
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		if m.audio == nil {
			return m.view[address]
		}
		return m.audio.Read(address)
	case address == addr.STAT:
		return m.view[address] | 0x80
	}
	return m.view[address]
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		m.mbc.write(address, value)
	case regionVRAM, regionWRAM:
		m.view[address] = value
	case regionExtRAM:
		m.mbc.writeRAM(address, value)
	case regionEcho:
		m.view[address-addr.EchoMirrorOffset] = value
	case regionOAM:
		if address < addr.UnusableStart {
			m.view[address] = value
		}
	default:
		m.writeIO(address, value)
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.Joypad.Write(value)
	case address == addr.SB || address == addr.SC:
		if m.serial != nil {
			m.serial.Write(address, value)
		}
	case address >= addr.DIV && address <= addr.TAC:
		m.Timer.Write(address, value)
	case address == addr.IF:
		m.view[address] = value & addr.InterruptMask
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		if m.audio == nil {
			m.view[address] = value
			return
		}
		m.audio.Write(address, value)
	case address == addr.STAT:
		// mode and coincidence bits belong to the PPU
		m.view[address] = value&0x78 | m.view[address]&0x07
	case address == addr.LY:
	case address == addr.DMA:
		m.view[address] = value
		m.startDMA(value)
	default:
		m.view[address] = value
	}
}

func (m *MMU) startDMA(value byte) {
	m.dma = dma{
		source:    uint16(value) << 8,
		dest:      addr.OAMStart,
		remaining: dmaLength,
	}
	m.logger.Debug("OAM DMA started", "source", fmt.Sprintf("0x%04X", m.dma.source))
}

// TickDMA copies one byte of an active OAM DMA transfer. The source goes through the
// normal read path and the CPU is not blocked from the bus while the copy runs.
func (m *MMU) TickDMA() {
	if m.dma.remaining == 0 {
		return
	}
	m.view[m.dma.dest] = m.Read(m.dma.source)
	m.dma.source++
	m.dma.dest++
	m.dma.remaining--
}

// DMAActive reports whether an OAM transfer is in flight.
func (m *MMU) DMAActive() bool {
	return m.dma.remaining > 0
}

// Flush writes the live external RAM window back to the cartridge RAM image.
func (m *MMU) Flush() {
	m.mbc.flush()
}

// LoadRAM replaces the cartridge RAM with a save file and refreshes the mapped window.
func (m *MMU) LoadRAM(r io.Reader) error {
	if err := m.cart.LoadRAM(r); err != nil {
		return err
	}
	m.mbc.loadRAMWindow()
	return nil
}

// SaveRAM flushes the window and writes the cartridge RAM.
func (m *MMU) SaveRAM(w io.Writer) error {
	m.Flush()
	return m.cart.SaveRAM(w)
}

// State is the serialisable form of the bus, including cartridge RAM.
type State struct {
	View         []byte
	CartRAM      []byte
	ROMBank      int
	RAMBank      int
	RAMEnabled   bool
	RTCSelect    uint8
	DMASource    uint16
	DMADest      uint16
	DMARemaining int
	JoypadSelect uint8
	Timer        TimerState
}

// State captures the bus. The RAM window is flushed first so CartRAM is current.
func (m *MMU) State() State {
	m.Flush()
	return State{
		View:         append([]byte(nil), m.view[:]...),
		CartRAM:      append([]byte(nil), m.cart.ram...),
		ROMBank:      m.mbc.romBank,
		RAMBank:      m.mbc.ramBank,
		RAMEnabled:   m.mbc.ramEnabled,
		RTCSelect:    m.mbc.rtcSelect,
		DMASource:    m.dma.source,
		DMADest:      m.dma.dest,
		DMARemaining: m.dma.remaining,
		JoypadSelect: m.Joypad.sel,
		Timer:        m.Timer.State(),
	}
}

// Restore loads a captured bus state. The cartridge must be the one the state was taken
// with.
func (m *MMU) Restore(s State) error {
	if len(s.View) != len(m.view) {
		return fmt.Errorf("bus state has %d bytes, want %d", len(s.View), len(m.view))
	}
	if len(s.CartRAM) != len(m.cart.ram) {
		return fmt.Errorf("restoring cartridge RAM: %w", ErrRAMSizeMismatch)
	}
	copy(m.view[:], s.View)
	copy(m.cart.ram, s.CartRAM)
	m.mbc.setROMBankRegister(s.ROMBank)
	m.mbc.ramBank = s.RAMBank
	m.mbc.ramEnabled = s.RAMEnabled
	m.mbc.rtcSelect = s.RTCSelect
	m.dma = dma{source: s.DMASource, dest: s.DMADest, remaining: s.DMARemaining}
	m.Joypad.Write(s.JoypadSelect)
	m.Timer.Restore(s.Timer)
	return nil
}
