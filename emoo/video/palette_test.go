package video

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePalette(t *testing.T) {
	testCases := []struct {
		desc    string
		input   string
		wantErr bool
		check   func(t *testing.T, p Palette)
	}{
		{
			desc:  "four colors repeat across layers",
			input: "e0f8d0,88c070,346856,081820",
			check: func(t *testing.T, p Palette) {
				assert.Equal(t, color.RGBA{0xE0, 0xF8, 0xD0, 0xFF}, p[0])
				assert.Equal(t, p[3], p[7])
				assert.Equal(t, p[3], p[11])
			},
		},
		{
			desc:  "prefixes and spaces",
			input: "#ffffff, 0x000000 ,ff0000,00ff00",
			check: func(t *testing.T, p Palette) {
				assert.Equal(t, WhiteColor, p[0])
				assert.Equal(t, BlackColor, p[1])
				assert.Equal(t, color.RGBA{0xFF, 0, 0, 0xFF}, p[2])
			},
		},
		{
			desc:  "twelve colors",
			input: "000001,000002,000003,000004,000005,000006,000007,000008,000009,00000a,00000b,00000c",
			check: func(t *testing.T, p Palette) {
				for i := range p {
					assert.Equal(t, uint8(i+1), p[i].B)
				}
			},
		},
		{desc: "wrong count", input: "ffffff,000000", wantErr: true},
		{desc: "short color", input: "fff,000000,000000,000000", wantErr: true},
		{desc: "not hex", input: "zzzzzz,000000,000000,000000", wantErr: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			p, err := ParsePalette(tC.input)
			if tC.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tC.check(t, p)
		})
	}
}

func TestParsePaletteCountError(t *testing.T) {
	_, err := ParsePalette("a,b,c")
	assert.ErrorIs(t, err, ErrBadPalette)
}

func TestShade(t *testing.T) {
	testCases := []struct {
		register, color, want uint8
	}{
		{0xE4, 0, 0}, {0xE4, 1, 1}, {0xE4, 2, 2}, {0xE4, 3, 3},
		{0xFC, 0, 0}, {0xFC, 1, 3}, {0x1B, 0, 3}, {0x1B, 3, 0},
	}
	for _, tC := range testCases {
		assert.Equal(t, tC.want, Shade(tC.register, tC.color), "BGP %#02x color %d", tC.register, tC.color)
	}
}

func TestPaletteImage(t *testing.T) {
	fb := NewFrameBuffer()
	fb.SetPixel(1, 0, 3)
	fb.SetPixel(0, 1, 7)

	img := DefaultPalette.Image(fb)

	assert.Equal(t, WhiteColor, img.RGBAAt(0, 0))
	assert.Equal(t, BlackColor, img.RGBAAt(1, 0))
	assert.Equal(t, BlackColor, img.RGBAAt(0, 1))
	assert.Equal(t, BlackColor, DefaultPalette.Color(200))
}

func TestFrameExchange(t *testing.T) {
	e := NewFrameExchange()
	assert.Equal(t, uint64(0), e.Frames())
	require.NotNil(t, e.Latest())

	back := NewFrameBuffer()
	back.SetPixel(10, 10, 2)
	e.Publish(back)
	published := e.Latest()

	back.SetPixel(10, 10, 3)
	back.Clear()

	assert.Equal(t, uint8(2), published.GetPixel(10, 10))
	assert.Equal(t, uint64(1), e.Frames())

	e.Publish(back)
	assert.Equal(t, uint8(2), published.GetPixel(10, 10), "earlier frames are never rewritten")
	assert.Equal(t, uint8(0), e.Latest().GetPixel(10, 10))
}

func TestOAMScan(t *testing.T) {
	mem := &testMemory{}
	setSprite(mem, 0, 16, 8, 1, 0xF0)
	setSprite(mem, 3, 20, 30, 2, 0x00)
	setSprite(mem, 5, 0, 30, 2, 0x00)
	o := NewOAM(mem)

	sprites := o.GetSpritesForScanline(4)
	require.Len(t, sprites, 2)
	assert.Equal(t, 0, sprites[0].OAMIndex)
	assert.Equal(t, 3, sprites[1].OAMIndex)
	assert.True(t, sprites[0].PaletteOBP1)
	assert.True(t, sprites[0].FlipX)
	assert.True(t, sprites[0].FlipY)
	assert.True(t, sprites[0].BehindBG)
	assert.Equal(t, 22, sprites[1].X)

	assert.Len(t, o.GetSpritesForScanline(8), 1)
	assert.Nil(t, o.GetSprite(40))
	assert.Equal(t, -16, o.GetSprite(5).Y)
}
