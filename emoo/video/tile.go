package video

import "github.com/valerio/go-emoo/emoo/bit"

// TileRow represents one row of a tile pattern (8 pixels).
//
// Each tile row uses 2 bytes in a bit-plane format:
//
//	Byte 1 (Low):  Bit plane 0 - provides bit 0 of each pixel's color
//	Byte 2 (High): Bit plane 1 - provides bit 1 of each pixel's color
//
// Bit 7 represents the leftmost pixel, bit 0 the rightmost:
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
//
// A complete 8x8 tile occupies 16 bytes in VRAM.
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel extracts a pixel color (0-3) from the tile row.
// pixelX should be 0-7, where 0 is the leftmost pixel.
func (t TileRow) GetPixel(pixelX int) uint8 {
	bitIndex := uint8(7 - pixelX)
	return bit.Value(bitIndex, t.Low) | bit.Value(bitIndex, t.High)<<1
}

// GetPixelFlipped extracts a pixel color with horizontal flip.
func (t TileRow) GetPixelFlipped(pixelX int) uint8 {
	return t.GetPixel(7 - pixelX)
}

// fetchRow reads row (0-7, or 0-15 for tall sprites) of the tile starting at base.
func fetchRow(mem Memory, base uint16, row int) TileRow {
	a := base + uint16(row*2)
	return TileRow{Low: mem.Peek(a), High: mem.Peek(a + 1)}
}
