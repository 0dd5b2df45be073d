package video

import (
	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

const (
	oamEntries        = 40
	maxSpritesPerLine = 10
)

// Sprite represents a single object in OAM (0xFE00-0xFE9F).
type Sprite struct {
	Y         int   // screen row of the top edge (raw Y - 16)
	X         int   // screen column of the left edge (raw X - 8)
	TileIndex uint8 // tile number, always addressed from 0x8000
	Flags     uint8 // attribute byte
	OAMIndex  int   // 0-39
	Height    int   // 8 or 16, from LCDC bit 2

	PaletteOBP1 bool // false = OBP0, true = OBP1
	FlipX       bool
	FlipY       bool
	BehindBG    bool // hidden behind non-zero background/window colors
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// covers reports whether the sprite has a column at screen x.
func (s *Sprite) covers(x int) bool {
	return x >= s.X && x < s.X+8
}

// OAM reads sprite attributes and performs the per-line object scan.
type OAM struct {
	mem          Memory
	spriteBuffer [maxSpritesPerLine]Sprite
}

func NewOAM(mem Memory) *OAM {
	return &OAM{mem: mem}
}

func spriteHeight(lcdc uint8) int {
	if bit.IsSet(2, lcdc) {
		return 16
	}
	return 8
}

// GetSpritesForScanline returns up to 10 sprites whose rows intersect the scanline, in
// OAM order. The returned slice aliases an internal buffer and is valid until the next
// call.
func (o *OAM) GetSpritesForScanline(scanline int) []Sprite {
	sprites := o.spriteBuffer[:0]
	height := spriteHeight(o.mem.Peek(addr.LCDC))

	for i := range oamEntries {
		top := int(o.mem.Peek(addr.OAMStart+uint16(i*4))) - 16
		if scanline < top || scanline >= top+height {
			continue
		}
		sprites = append(sprites, o.readSprite(i, height))
		if len(sprites) == maxSpritesPerLine {
			break
		}
	}

	return sprites
}

func (o *OAM) readSprite(index, height int) Sprite {
	base := addr.OAMStart + uint16(index*4)
	sprite := Sprite{
		Y:         int(o.mem.Peek(base)) - 16,
		X:         int(o.mem.Peek(base+1)) - 8,
		TileIndex: o.mem.Peek(base + 2),
		Flags:     o.mem.Peek(base + 3),
		OAMIndex:  index,
		Height:    height,
	}
	sprite.parseFlags()
	return sprite
}

// GetSprite returns the sprite at the given index (0-39), or nil when out of range.
func (o *OAM) GetSprite(index int) *Sprite {
	if index < 0 || index >= oamEntries {
		return nil
	}
	sprite := o.readSprite(index, spriteHeight(o.mem.Peek(addr.LCDC)))
	return &sprite
}
