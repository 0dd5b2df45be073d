package debug

import (
	"fmt"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

const (
	OAMSpriteCount    = 40
	OAMBytesPerSprite = 4
	SpriteYOffset     = 16
	SpriteXOffset     = 8
	MaxSpritesPerLine = 10
)

// Sprite attribute bit positions
const (
	AttrBackgroundPriority = 7
	AttrFlipY              = 6
	AttrFlipX              = 5
	AttrPaletteNumber      = 4
)

type SpriteInfo struct {
	Index      int
	Y          int
	X          int
	TileIndex  uint8
	Attributes uint8
	IsVisible  bool
}

type SpriteAttributes struct {
	BackgroundPriority bool
	FlipY              bool
	FlipX              bool
	PaletteNumber      int
}

type OAMData struct {
	Sprites       []SpriteInfo
	CurrentLine   int
	ActiveSprites int
	SpriteHeight  int
}

// ExtractOAMData decodes all 40 OAM entries and marks the ones the pixel pipeline would
// select for currentLine. Only the first ten matches count as visible.
func ExtractOAMData(reader MemoryReader, currentLine int) *OAMData {
	height := 8
	if bit.IsSet(2, reader.Peek(addr.LCDC)) {
		height = 16
	}

	data := &OAMData{
		Sprites:      make([]SpriteInfo, OAMSpriteCount),
		CurrentLine:  currentLine,
		SpriteHeight: height,
	}

	for i := range OAMSpriteCount {
		base := addr.OAMStart + uint16(i*OAMBytesPerSprite)
		info := SpriteInfo{
			Index:      i,
			Y:          int(reader.Peek(base)) - SpriteYOffset,
			X:          int(reader.Peek(base+1)) - SpriteXOffset,
			TileIndex:  reader.Peek(base + 2),
			Attributes: reader.Peek(base + 3),
		}
		if data.ActiveSprites < MaxSpritesPerLine && info.Y <= currentLine && info.Y+height > currentLine {
			info.IsVisible = true
			data.ActiveSprites++
		}
		data.Sprites[i] = info
	}

	return data
}

func (s *SpriteInfo) DecodeAttributes() SpriteAttributes {
	return SpriteAttributes{
		BackgroundPriority: bit.IsSet(AttrBackgroundPriority, s.Attributes),
		FlipY:              bit.IsSet(AttrFlipY, s.Attributes),
		FlipX:              bit.IsSet(AttrFlipX, s.Attributes),
		PaletteNumber:      int(bit.Value(AttrPaletteNumber, s.Attributes)),
	}
}

func (s *SpriteInfo) String() string {
	status := "OFF"
	if s.IsVisible {
		status = "ACTIVE"
	}
	return fmt.Sprintf("Sprite %2d: Y=%3d X=%3d  Tile=0x%02X Flags=0x%02X [%s]",
		s.Index, s.Y, s.X, s.TileIndex, s.Attributes, status)
}

func (data *OAMData) GetVisibleSprites() []SpriteInfo {
	visible := make([]SpriteInfo, 0, data.ActiveSprites)
	for _, sprite := range data.Sprites {
		if sprite.IsVisible {
			visible = append(visible, sprite)
		}
	}
	return visible
}

func (data *OAMData) FormatSummary() string {
	return fmt.Sprintf("Current Line: %d | Active Sprites: %d/%d | Height: %dpx",
		data.CurrentLine, data.ActiveSprites, MaxSpritesPerLine, data.SpriteHeight)
}
