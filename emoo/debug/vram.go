package debug

import (
	"fmt"
	"image"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
	"github.com/valerio/go-emoo/emoo/video"
)

const (
	VRAMBaseAddr     = 0x8000
	TileDataSize     = 16
	TilePixelWidth   = 8
	TilePixelHeight  = 8
	TilePatternCount = 384
	TilesPerRow      = 16
	TileRows         = 24

	BackgroundTilemapAddr = 0x9800
	WindowTilemapAddr     = 0x9C00
)

// TilePattern is one decoded tile, pixels holding raw color numbers 0-3.
type TilePattern struct {
	Index  int
	Pixels [TilePixelHeight][TilePixelWidth]uint8
}

type TilemapInfo struct {
	BackgroundActive bool
	WindowActive     bool
	BackgroundMap    uint16
	WindowMap        uint16
	LCDCValue        uint8
}

type VRAMData struct {
	TilePatterns []TilePattern
	TilemapInfo  TilemapInfo
}

// ExtractVRAMData decodes all 384 tile patterns from 0x8000-0x97FF.
func ExtractVRAMData(reader MemoryReader) *VRAMData {
	data := &VRAMData{
		TilePatterns: make([]TilePattern, TilePatternCount),
	}

	for i := range TilePatternCount {
		base := uint16(VRAMBaseAddr + i*TileDataSize)
		tile := TilePattern{Index: i}
		for y := range TilePixelHeight {
			row := video.TileRow{
				Low:  reader.Peek(base + uint16(y*2)),
				High: reader.Peek(base + uint16(y*2) + 1),
			}
			for x := range TilePixelWidth {
				tile.Pixels[y][x] = row.GetPixel(x)
			}
		}
		data.TilePatterns[i] = tile
	}

	lcdc := reader.Peek(addr.LCDC)
	data.TilemapInfo = TilemapInfo{
		BackgroundActive: bit.IsSet(0, lcdc),
		WindowActive:     bit.IsSet(5, lcdc),
		BackgroundMap:    BackgroundTilemapAddr,
		WindowMap:        BackgroundTilemapAddr,
		LCDCValue:        lcdc,
	}
	if bit.IsSet(3, lcdc) {
		data.TilemapInfo.BackgroundMap = WindowTilemapAddr
	}
	if bit.IsSet(6, lcdc) {
		data.TilemapInfo.WindowMap = WindowTilemapAddr
	}

	return data
}

func (data *VRAMData) GetTileGrid() [][]TilePattern {
	grid := make([][]TilePattern, TileRows)
	for row := range TileRows {
		grid[row] = data.TilePatterns[row*TilesPerRow : (row+1)*TilesPerRow]
	}
	return grid
}

// TileSheet renders every tile in a 16x24 grid, shaded through bgp and the palette's
// background colors.
func (data *VRAMData) TileSheet(bgp uint8, palette video.Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, TilesPerRow*TilePixelWidth, TileRows*TilePixelHeight))
	for _, tile := range data.TilePatterns {
		ox := (tile.Index % TilesPerRow) * TilePixelWidth
		oy := (tile.Index / TilesPerRow) * TilePixelHeight
		for y := range TilePixelHeight {
			for x := range TilePixelWidth {
				img.SetRGBA(ox+x, oy+y, palette.Color(video.Shade(bgp, tile.Pixels[y][x])))
			}
		}
	}
	return img
}

func (info *TilemapInfo) FormatSummary() string {
	bgStatus := "INACTIVE"
	if info.BackgroundActive {
		bgStatus = "ACTIVE"
	}

	winStatus := "INACTIVE"
	if info.WindowActive {
		winStatus = "ACTIVE"
	}

	return fmt.Sprintf("Background Map: 0x%04X [%s] | Window Map: 0x%04X [%s] | LCDC: 0x%02X",
		info.BackgroundMap, bgStatus, info.WindowMap, winStatus, info.LCDCValue)
}
