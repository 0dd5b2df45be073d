package cpu

// opcodesCB is indexed by the byte following the 0xCB prefix.
//
//	0x00-0x3F  RLC RRC RL RR SLA SRA SWAP SRL
//	0x40-0x7F  BIT b, r
//	0x80-0xBF  RES b, r
//	0xC0-0xFF  SET b, r
var opcodesCB = buildOpcodesCB()

func buildOpcodesCB() [256]Opcode {
	var table [256]Opcode

	shifts := [8]func(*CPU, uint8) uint8{
		(*CPU).rlc, (*CPU).rrc, (*CPU).rl, (*CPU).rr,
		(*CPU).sla, (*CPU).sra, (*CPU).swap, (*CPU).srl,
	}

	for op := 0; op < 0x100; op++ {
		reg := uint8(op) & 7
		index := uint8(op>>3) & 7
		indirect := reg == operandHL

		switch op >> 6 {
		case 0:
			shift := shifts[index]
			table[op] = func(c *CPU) int {
				c.writeOperand(reg, shift(c, c.readOperand(reg)))
				if indirect {
					return 16
				}
				return 8
			}
		case 1:
			table[op] = func(c *CPU) int {
				c.bit(index, c.readOperand(reg))
				if indirect {
					return 12
				}
				return 8
			}
		case 2:
			table[op] = func(c *CPU) int {
				c.writeOperand(reg, c.readOperand(reg)&^(1<<index))
				if indirect {
					return 16
				}
				return 8
			}
		default:
			table[op] = func(c *CPU) int {
				c.writeOperand(reg, c.readOperand(reg)|1<<index)
				if indirect {
					return 16
				}
				return 8
			}
		}
	}

	return table
}
