package cpu

import "github.com/valerio/go-emoo/emoo/bit"

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

// inc increments an 8 bit value. The carry flag is left untouched.
func (c *CPU) inc(value uint8) uint8 {
	result := value + 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(halfCarryFlag, value&0xF == 0xF)
	c.resetFlag(subFlag)
	return result
}

// dec decrements an 8 bit value. The carry flag is left untouched.
func (c *CPU) dec(value uint8) uint8 {
	result := value - 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlagToCondition(halfCarryFlag, value&0xF == 0)
	c.setFlag(subFlag)
	return result
}

// addToA sets the result of adding value (and optionally the carry) to A.
func (c *CPU) addToA(value uint8, withCarry bool) {
	var carry uint8
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	a := c.a
	sum := uint16(a) + uint16(value) + uint16(carry)
	c.a = uint8(sum)
	c.setFlags(c.a == 0, false, bit.HalfCarryAdd(a, value, carry), sum > 0xFF)
}

// subFromA subtracts value (and optionally the carry) from A. When store is false the
// result is discarded, which is how CP works.
func (c *CPU) subFromA(value uint8, withCarry, store bool) {
	var carry uint8
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	a := c.a
	result := a - value - carry
	c.setFlags(result == 0, true, bit.HalfCarrySub(a, value, carry), uint16(a) < uint16(value)+uint16(carry))
	if store {
		c.a = result
	}
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlags(c.a == 0, false, true, false)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlags(c.a == 0, false, false, false)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlags(c.a == 0, false, false, false)
}

// addToHL adds a 16 bit value to HL. Z is preserved, H is the carry out of bit 11.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := uint32(hl) + uint32(value)

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, bit.HalfCarryAdd16(hl, value))
	c.setFlagToCondition(carryFlag, result > 0xFFFF)

	c.setHL(uint16(result))
}

// spPlusImmediate returns SP plus the signed immediate. H and C come from the unsigned
// addition of the low bytes, Z and N are cleared.
func (c *CPU) spPlusImmediate() uint16 {
	offset := uint16(int16(c.readSignedImmediate()))
	sp := c.sp
	c.setFlags(false, false, (sp&0xF)+(offset&0xF) > 0xF, (sp&0xFF)+(offset&0xFF) > 0xFF)
	return sp + offset
}

// daa adjusts A to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	var adjust uint8
	carry := c.isSetFlag(carryFlag)

	if !c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	} else {
		if c.isSetFlag(halfCarryFlag) {
			adjust |= 0x06
		}
		if carry {
			adjust |= 0x60
		}
		a -= adjust
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) rlc(value uint8) uint8 {
	result := value<<1 | value>>7
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	result := value>>1 | value<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.flagToBit(carryFlag)
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

// sra shifts right keeping bit 7.
func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setFlags(result == 0, false, false, false)
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

// bit tests bit index of value. C is preserved.
func (c *CPU) bit(index, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// jr performs a relative jump using the signed immediate.
func (c *CPU) jr() {
	offset := c.readSignedImmediate()
	c.pc = uint16(int32(c.pc) + int32(offset))
}

func (c *CPU) call(address uint16) {
	c.pushStack(c.pc)
	c.pc = address
}
