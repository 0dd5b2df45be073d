package debug

import (
	"fmt"

	"github.com/valerio/go-emoo/emoo/cpu"
)

// DebuggerState represents the current debugger state
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
)

func (s DebuggerState) String() string {
	if s == DebuggerPaused {
		return "PAUSED"
	}
	return "RUNNING"
}

// CompleteDebugData contains all debug information needed by debug displays
type CompleteDebugData struct {
	CPU             cpu.Registers
	Cycles          uint64
	Frames          uint64
	ROMBank         int
	LY              uint8
	PPUMode         string
	OAM             *OAMData
	Audio           *AudioData
	Disassembly     []DisasmLine
	DebuggerState   DebuggerState
	InterruptEnable uint8 // IE register at 0xFFFF
	InterruptFlags  uint8 // IF register at 0xFF0F
}

// FormatLines renders the debug data as short lines for a text panel.
func (d *CompleteDebugData) FormatLines() []string {
	r := d.CPU
	lines := []string{
		fmt.Sprintf("%s  frame %d  bank %d", d.DebuggerState, d.Frames, d.ROMBank),
		fmt.Sprintf("AF %02X%02X  BC %02X%02X", r.A, r.F, r.B, r.C),
		fmt.Sprintf("DE %02X%02X  HL %02X%02X", r.D, r.E, r.H, r.L),
		fmt.Sprintf("SP %04X  PC %04X", r.SP, r.PC),
		fmt.Sprintf("IME %t  IE %02X  IF %02X", r.IME, d.InterruptEnable, d.InterruptFlags),
		fmt.Sprintf("LY %3d  %s", d.LY, d.PPUMode),
	}
	if d.OAM != nil {
		lines = append(lines, d.OAM.FormatSummary())
	}
	for _, l := range d.Disassembly {
		lines = append(lines, l.String())
	}
	if d.Audio != nil {
		lines = append(lines, d.Audio.FormatSummary()...)
	}
	return lines
}
