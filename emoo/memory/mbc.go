package memory

import (
	"log/slog"
	"time"
)

// Clock is the time source used by the MBC3 real-time clock.
type Clock interface {
	Now() time.Time
}

type systemClockFunc func() time.Time

func (s systemClockFunc) Now() time.Time {
	return s()
}

// SystemClock reads wall time.
var SystemClock Clock = systemClockFunc(time.Now)

const (
	rtcSeconds uint8 = 0x08
	rtcMinutes uint8 = 0x09
	rtcHours   uint8 = 0x0A
	rtcDayLow  uint8 = 0x0B
	rtcDayHigh uint8 = 0x0C
)

const mbc2RAMMask = 0x01FF

// bankController implements the cartridge side of the bus: it interprets writes into the
// ROM region and keeps the switchable ROM and RAM windows of the address space filled with
// copies of the selected banks.
//
// The RAM window is write-back: the bus writes straight into the window and the bytes only
// reach the RAM image when the bank is switched out or flush is called. Selecting a clock
// register leaves the window untouched; reads are redirected to the clock instead.
type bankController struct {
	cart *Cartridge

	romWindow []byte // view of 0x4000-0x7FFF
	ramWindow []byte // view of 0xA000-0xBFFF

	romBank int
	// raw MBC5 bank register halves
	romLow  int
	romHigh int

	ramBank    int
	ramEnabled bool

	// rtcSelect is the RTC register mapped into the RAM window, 0 when RAM is mapped.
	rtcSelect uint8
	rtc       rtc
}

func newBankController(cart *Cartridge, romWindow, ramWindow []byte, clock Clock) *bankController {
	b := &bankController{
		cart:      cart,
		romWindow: romWindow,
		ramWindow: ramWindow,
		romBank:   1,
		romLow:    1,
		// carts without a controller have no enable register
		ramEnabled: cart.Mapper == MapperNone,
		rtc:        newRTC(clock),
	}

	copy(b.romWindow, b.romBankData(1))
	b.loadRAMWindow()
	return b
}

func (b *bankController) romBankData(bank int) []byte {
	start := bank * romBankSize
	if start+romBankSize > len(b.cart.rom) {
		return nil
	}
	return b.cart.rom[start : start+romBankSize]
}

func (b *bankController) ramBanks() int {
	return b.cart.RAMBanks()
}

// loadRAMWindow copies the current RAM bank into the window, or fills it with 0xFF when the
// cartridge has no RAM.
func (b *bankController) loadRAMWindow() {
	for i := range b.ramWindow {
		b.ramWindow[i] = 0xFF
	}
	if len(b.cart.ram) == 0 {
		return
	}
	start := b.ramBank * ramBankSize
	end := min(start+ramBankSize, len(b.cart.ram))
	copy(b.ramWindow, b.cart.ram[start:end])
}

// flush writes the live RAM window back into the RAM image.
func (b *bankController) flush() {
	if len(b.cart.ram) == 0 {
		return
	}
	start := b.ramBank * ramBankSize
	end := min(start+ramBankSize, len(b.cart.ram))
	copy(b.cart.ram[start:end], b.ramWindow[:end-start])
}

// selectROMBank masks the requested bank to the cartridge size and never maps bank 0 into
// the switchable window.
func (b *bankController) selectROMBank(bank int) {
	bank &= b.cart.ROMBanks - 1
	if bank == 0 {
		bank = 1
	}
	if bank == b.romBank {
		return
	}
	copy(b.romWindow, b.romBankData(bank))
	slog.Debug("ROM bank switch", "from", b.romBank, "to", bank)
	b.romBank = bank
}

func (b *bankController) selectRAMBank(bank int) {
	b.rtcSelect = 0
	banks := b.ramBanks()
	if banks <= 1 {
		return
	}
	bank &= banks - 1
	if bank == b.ramBank {
		return
	}
	b.flush()
	b.ramBank = bank
	b.loadRAMWindow()
	slog.Debug("RAM bank switch", "to", bank)
}

// write handles a CPU write into 0x0000-0x7FFF.
func (b *bankController) write(address uint16, value byte) {
	if b.cart.Mapper == MapperMBC2 && address < 0x4000 {
		b.writeMBC2(address, value)
		return
	}

	switch {
	case address < 0x2000:
		if b.cart.Mapper == MapperNone {
			return
		}
		b.ramEnabled = value&0x0F == 0x0A
	case address < 0x4000:
		if b.cart.ROMBanks <= 2 {
			return
		}
		if b.cart.Mapper == MapperMBC5 {
			b.writeMBC5ROMBank(address, value)
			return
		}
		b.selectROMBank(b.narrowROMBank(value))
	case address < 0x6000:
		if b.cart.Mapper == MapperMBC3 && b.cart.HasRTC && value >= rtcSeconds && value <= rtcDayHigh {
			b.rtcSelect = value
			return
		}
		if b.cart.Mapper == MapperMBC5 {
			b.selectRAMBank(int(value & 0x0F))
			return
		}
		b.selectRAMBank(int(value & 0x03))
	default:
		if b.cart.Mapper == MapperMBC3 && b.cart.HasRTC {
			b.rtc.writeLatch(value)
		}
	}
}

// writeMBC2 decodes the single MBC2 register range: address bit 8 clear is RAM enable,
// set is the 4-bit ROM bank.
func (b *bankController) writeMBC2(address uint16, value byte) {
	if address&0x0100 == 0 {
		b.ramEnabled = value&0x0F == 0x0A
		return
	}
	if b.cart.ROMBanks <= 2 {
		return
	}
	b.selectROMBank(int(value & 0x0F))
}

// writeMBC5ROMBank updates one half of the 9-bit MBC5 bank register: 0x2000-0x2FFF holds
// the low 8 bits, 0x3000-0x3FFF bit 8.
func (b *bankController) writeMBC5ROMBank(address uint16, value byte) {
	if address < 0x3000 {
		b.romLow = int(value)
	} else {
		b.romHigh = int(value & 0x01)
	}
	b.selectROMBank(b.romHigh<<8 | b.romLow)
}

// narrowROMBank keeps only the bits the mapper's bank register implements.
func (b *bankController) narrowROMBank(value byte) int {
	switch b.cart.Mapper {
	case MapperMBC1:
		return int(value & 0x1F)
	case MapperMBC3:
		return int(value & 0x7F)
	default:
		return int(value)
	}
}

// setROMBankRegister reloads the raw register halves after the bank was set directly.
func (b *bankController) setROMBankRegister(bank int) {
	b.romBank = bank
	b.romLow = bank & 0xFF
	b.romHigh = bank >> 8
}

// readRAM serves a read from the external RAM window.
func (b *bankController) readRAM(address uint16) byte {
	if !b.ramEnabled {
		return 0xFF
	}
	if b.rtcSelect != 0 {
		return b.rtc.read(b.rtcSelect)
	}
	if b.cart.Mapper == MapperMBC2 {
		// 512 half-bytes, echoed through the whole window; the upper nibble floats high
		return b.ramWindow[(address-0xA000)&mbc2RAMMask] | 0xF0
	}
	return b.ramWindow[address-0xA000]
}

// writeRAM stores into the live window, or into a clock register.
func (b *bankController) writeRAM(address uint16, value byte) {
	if !b.ramEnabled || (len(b.cart.ram) == 0 && b.rtcSelect == 0) {
		return
	}
	if b.rtcSelect != 0 {
		b.rtc.write(b.rtcSelect, value)
		return
	}
	if b.cart.Mapper == MapperMBC2 {
		b.ramWindow[(address-0xA000)&mbc2RAMMask] = value & 0x0F
		return
	}
	b.ramWindow[address-0xA000] = value
}

// rtc is the MBC3 clock. Time is measured from a base instant, adjusted by offset when the
// game writes the clock registers.
type rtc struct {
	clock   Clock
	base    time.Time
	offset  time.Duration
	latched time.Duration
	latch   byte
	halted  bool
	// until the game latches once, reads follow the running clock
	hasLatched bool
}

func newRTC(clock Clock) rtc {
	if clock == nil {
		clock = SystemClock
	}
	now := clock.Now()
	return rtc{clock: clock, base: now, latch: 0xFF}
}

func (r *rtc) elapsed() time.Duration {
	if r.halted {
		return r.offset
	}
	return r.clock.Now().Sub(r.base) + r.offset
}

// writeLatch snapshots the clock on a 0x00 -> 0x01 sequence.
func (r *rtc) writeLatch(value byte) {
	if r.latch == 0x00 && value == 0x01 {
		r.latched = r.elapsed()
		r.hasLatched = true
	}
	r.latch = value
}

func (r *rtc) current() time.Duration {
	if r.hasLatched {
		return r.latched
	}
	return r.elapsed()
}

func (r *rtc) fields(d time.Duration) (seconds, minutes, hours, days int) {
	total := int64(d / time.Second)
	seconds = int(total % 60)
	minutes = int(total / 60 % 60)
	hours = int(total / 3600 % 24)
	days = int(total / 86400)
	return
}

func (r *rtc) read(reg uint8) byte {
	seconds, minutes, hours, days := r.fields(r.current())
	switch reg {
	case rtcSeconds:
		return byte(seconds)
	case rtcMinutes:
		return byte(minutes)
	case rtcHours:
		return byte(hours)
	case rtcDayLow:
		return byte(days)
	case rtcDayHigh:
		var v byte
		if days&0x100 != 0 {
			v |= 0x01
		}
		if r.halted {
			v |= 0x40
		}
		if days > 0x1FF {
			v |= 0x80
		}
		return v
	}
	return 0xFF
}

func (r *rtc) write(reg uint8, value byte) {
	seconds, minutes, hours, days := r.fields(r.current())
	switch reg {
	case rtcSeconds:
		seconds = int(value % 60)
	case rtcMinutes:
		minutes = int(value % 60)
	case rtcHours:
		hours = int(value % 24)
	case rtcDayLow:
		days = days&0x100 | int(value)
	case rtcDayHigh:
		days = days&0xFF | int(value&0x01)<<8
		r.halted = value&0x40 != 0
	}

	target := time.Duration(((days*24+hours)*60+minutes)*60+seconds) * time.Second
	r.latched = target
	if r.halted {
		r.offset = target
		return
	}
	r.offset = target - r.clock.Now().Sub(r.base)
}
