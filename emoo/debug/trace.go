package debug

import (
	"bufio"
	"fmt"
	"io"

	"github.com/valerio/go-emoo/emoo/cpu"
)

// TraceWriter logs one line per executed instruction in the format used by Gameboy
// Doctor, so traces can be diffed against reference logs:
//
//	A:01 F:B0 B:00 C:13 D:00 E:D8 H:01 L:4D SP:FFFE PC:0100 PCMEM:00,C3,13,02
type TraceWriter struct {
	w     *bufio.Writer
	mem   MemoryReader
	lines uint64
	err   error
}

func NewTraceWriter(w io.Writer, mem MemoryReader) *TraceWriter {
	return &TraceWriter{w: bufio.NewWriter(w), mem: mem}
}

// Trace writes a line for the instruction about to run at r.PC. It matches the
// signature expected by cpu.WithTracer. Halted cycles are not logged.
func (t *TraceWriter) Trace(r cpu.Registers) {
	if t.err != nil || r.Halted {
		return
	}
	pc := r.PC
	_, t.err = fmt.Fprintf(t.w,
		"A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X PCMEM:%02X,%02X,%02X,%02X\n",
		r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L, r.SP, pc,
		t.mem.Peek(pc), t.mem.Peek(pc+1), t.mem.Peek(pc+2), t.mem.Peek(pc+3))
	if t.err == nil {
		t.lines++
	}
}

// Lines returns how many instructions were logged.
func (t *TraceWriter) Lines() uint64 { return t.lines }

// Flush writes buffered lines and returns the first error seen.
func (t *TraceWriter) Flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}
