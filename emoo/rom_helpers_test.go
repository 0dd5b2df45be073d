package emoo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valerio/go-emoo/emoo/memory"
)

const (
	cartROMOnly     = 0x00
	cartMBC1Battery = 0x03
	ramSize8KB      = 0x02
	programStart    = 0x0150
	headerTitle     = 0x0134
	headerCartType  = 0x0147
	headerRAMSize   = 0x0149
	headerChecksum  = 0x014D
)

// loopForever is JR -2.
var loopForever = []byte{0x18, 0xFE}

// buildCartridge assembles a 32KB image that jumps from the entry point to program.
func buildCartridge(t testing.TB, title string, cartType, ramCode uint8, program ...byte) *memory.Cartridge {
	t.Helper()
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], []byte{0x00, 0xC3, programStart & 0xFF, programStart >> 8}) // NOP; JP 0x0150
	copy(rom[headerTitle:], title)
	rom[headerCartType] = cartType
	rom[headerRAMSize] = ramCode
	var sum uint8
	for _, b := range rom[headerTitle:headerChecksum] {
		sum = sum - b - 1
	}
	rom[headerChecksum] = sum
	copy(rom[programStart:], program)

	cart, err := memory.NewCartridge(rom)
	require.NoError(t, err)
	return cart
}

func newIdleDMG(t testing.TB, opts ...Option) *DMG {
	t.Helper()
	return New(buildCartridge(t, "IDLE", cartROMOnly, 0, loopForever...), opts...)
}
