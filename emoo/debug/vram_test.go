package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/video"
)

func TestExtractTilePattern(t *testing.T) {
	tests := []struct {
		name     string
		low      uint8
		high     uint8
		expected [8]uint8
	}{
		{"all zeros", 0x00, 0x00, [8]uint8{0, 0, 0, 0, 0, 0, 0, 0}},
		{"low plane", 0xFF, 0x00, [8]uint8{1, 1, 1, 1, 1, 1, 1, 1}},
		{"high plane", 0x00, 0xFF, [8]uint8{2, 2, 2, 2, 2, 2, 2, 2}},
		{"both planes", 0xFF, 0xFF, [8]uint8{3, 3, 3, 3, 3, 3, 3, 3}},
		{"alternating", 0xAA, 0x55, [8]uint8{1, 2, 1, 2, 1, 2, 1, 2}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &fakeMemory{}
			base := VRAMBaseAddr + i*TileDataSize
			mem.data[base] = tt.low
			mem.data[base+1] = tt.high

			tile := ExtractVRAMData(mem).TilePatterns[i]

			assert.Equal(t, i, tile.Index)
			assert.Equal(t, tt.expected, tile.Pixels[0])
		})
	}
}

func TestExtractTilemapInfo(t *testing.T) {
	tests := []struct {
		name       string
		lcdc       uint8
		background bool
		window     bool
		bgMap      uint16
		windowMap  uint16
	}{
		{"all disabled", 0x00, false, false, 0x9800, 0x9800},
		{"background only", 0x81, true, false, 0x9800, 0x9800},
		{"window on high map", 0xE0, false, true, 0x9800, 0x9C00},
		{"background on high map", 0x89, true, false, 0x9C00, 0x9800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &fakeMemory{}
			mem.data[addr.LCDC] = tt.lcdc

			info := ExtractVRAMData(mem).TilemapInfo

			assert.Equal(t, tt.background, info.BackgroundActive)
			assert.Equal(t, tt.window, info.WindowActive)
			assert.Equal(t, tt.bgMap, info.BackgroundMap)
			assert.Equal(t, tt.windowMap, info.WindowMap)
			assert.Equal(t, tt.lcdc, info.LCDCValue)
		})
	}
}

func TestTileGrid(t *testing.T) {
	grid := ExtractVRAMData(&fakeMemory{}).GetTileGrid()

	assert.Len(t, grid, TileRows)
	assert.Len(t, grid[0], TilesPerRow)
	assert.Equal(t, 17, grid[1][1].Index)
	assert.Equal(t, TilePatternCount-1, grid[TileRows-1][TilesPerRow-1].Index)
}

func TestTileSheet(t *testing.T) {
	mem := &fakeMemory{}
	// tile 17 row 0 entirely color 3
	mem.data[VRAMBaseAddr+17*TileDataSize] = 0xFF
	mem.data[VRAMBaseAddr+17*TileDataSize+1] = 0xFF

	img := ExtractVRAMData(mem).TileSheet(0xE4, video.DefaultPalette)

	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 192, img.Bounds().Dy())
	assert.Equal(t, video.BlackColor, img.RGBAAt(8, 8))
	assert.Equal(t, video.BlackColor, img.RGBAAt(15, 8))
	assert.Equal(t, video.WhiteColor, img.RGBAAt(8, 9))
	assert.Equal(t, video.WhiteColor, img.RGBAAt(0, 0))
}
