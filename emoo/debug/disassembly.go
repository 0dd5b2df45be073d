package debug

import (
	"fmt"

	"github.com/valerio/go-emoo/emoo/cpu"
)

// backwardBytes is how far before PC decoding starts. Decoding from an arbitrary address
// can land mid-instruction, so the lines before PC are best effort.
const backwardBytes = 12

type DisasmLine struct {
	Address     uint16
	Instruction string
	IsCurrent   bool
}

func (l DisasmLine) String() string {
	marker := "  "
	if l.IsCurrent {
		marker = "> "
	}
	return fmt.Sprintf("%s%04X  %s", marker, l.Address, l.Instruction)
}

// CreateDisassembly decodes up to maxLines instructions around pc, keeping pc roughly
// centred. If decoding never lands on pc, the listing restarts at pc.
func CreateDisassembly(reader MemoryReader, pc uint16, maxLines int) []DisasmLine {
	if maxLines <= 0 {
		return nil
	}
	bus := peekBus{reader}

	start := pc - backwardBytes
	if pc < backwardBytes {
		start = 0
	}

	all := decodeRange(bus, start, pc, maxLines)
	pcIndex := -1
	for i, line := range all {
		if line.Address == pc {
			pcIndex = i
			break
		}
	}
	if pcIndex < 0 {
		all = decodeRange(bus, pc, pc, maxLines)
		pcIndex = 0
	}

	from := max(0, pcIndex-maxLines/2)
	to := min(len(all), from+maxLines)
	return all[from:to]
}

// decodeRange disassembles from start until maxLines instructions past pc are decoded.
func decodeRange(bus cpu.Bus, start, pc uint16, maxLines int) []DisasmLine {
	var lines []DisasmLine
	after := 0
	address := start
	for after < maxLines {
		name, length := cpu.Disassemble(bus, address)
		lines = append(lines, DisasmLine{
			Address:     address,
			Instruction: name,
			IsCurrent:   address == pc,
		})
		if address >= pc {
			after++
		}
		next := address + uint16(length)
		if next < address {
			break
		}
		address = next
	}
	return lines
}
