package memory

import (
	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

const divPeriod = 256

// timaPeriods maps TAC input clock select (bits 1–0) to the number of ticks between TIMA
// increments.
//
//	00 -> 1024 (4096 Hz)
//	01 -> 16   (262144 Hz)
//	10 -> 64   (65536 Hz)
//	11 -> 256  (16384 Hz)
var timaPeriods = [4]int{1024, 16, 64, 256}

// Timer encapsulates the DIV/TIMA/TMA/TAC behavior. It is ticked once per dot.
//
// Overflow reloads TMA and requests the interrupt in the same tick; hardware delays both
// by one M-cycle.
type Timer struct {
	div         uint8
	divCounter  int
	timaCounter int

	tima byte
	tma  byte
	tac  byte

	// TimerInterruptHandler is called on TIMA overflow.
	TimerInterruptHandler func()
}

// NewTimer returns a timer with DMG post-boot register values.
func NewTimer(irq func()) *Timer {
	return &Timer{
		tac:                   0xF8,
		TimerInterruptHandler: irq,
	}
}

// Tick advances the timer by one dot.
func (t *Timer) Tick() {
	t.divCounter++
	if t.divCounter >= divPeriod {
		t.divCounter = 0
		t.div++
	}

	if !bit.IsSet(2, t.tac) {
		return
	}

	t.timaCounter++
	if t.timaCounter < timaPeriods[t.tac&0x03] {
		return
	}
	t.timaCounter = 0

	if t.tima == 0xFF {
		t.tima = t.tma
		if t.TimerInterruptHandler != nil {
			t.TimerInterruptHandler()
		}
		return
	}
	t.tima++
}

// ResetDivider handles any write to DIV.
func (t *Timer) ResetDivider() {
	t.div = 0
	t.divCounter = 0
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return t.div
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.ResetDivider()
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		if value&0x03 != t.tac&0x03 {
			t.timaCounter = 0
		}
		t.tac = value & 0x07
	}
}

// TimerState is the serialisable form of the timer.
type TimerState struct {
	DIV, TIMA, TMA, TAC     uint8
	DIVCounter, TIMACounter int
}

func (t *Timer) State() TimerState {
	return TimerState{t.div, t.tima, t.tma, t.tac, t.divCounter, t.timaCounter}
}

func (t *Timer) Restore(s TimerState) {
	t.div, t.tima, t.tma, t.tac = s.DIV, s.TIMA, s.TMA, s.TAC
	t.divCounter, t.timaCounter = s.DIVCounter, s.TIMACounter
}
