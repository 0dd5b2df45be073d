package video

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Palette maps the twelve frame buffer indices to display colors.
type Palette [12]color.RGBA

var (
	WhiteColor     = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	LightGreyColor = color.RGBA{0x98, 0x98, 0x98, 0xFF}
	DarkGreyColor  = color.RGBA{0x4C, 0x4C, 0x4C, 0xFF}
	BlackColor     = color.RGBA{0x00, 0x00, 0x00, 0xFF}
)

// DefaultPalette uses the same four greys for all three layers.
var DefaultPalette = Palette{
	WhiteColor, LightGreyColor, DarkGreyColor, BlackColor,
	WhiteColor, LightGreyColor, DarkGreyColor, BlackColor,
	WhiteColor, LightGreyColor, DarkGreyColor, BlackColor,
}

var ErrBadPalette = errors.New("palette needs 4 or 12 colors")

// ParsePalette reads a comma separated list of hex colors, "e0f8d0,88c070,346856,081820".
// Four colors are reused for the sprite layers; twelve set every layer individually.
func ParsePalette(s string) (Palette, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 12 {
		return Palette{}, fmt.Errorf("%w: got %d", ErrBadPalette, len(parts))
	}

	var p Palette
	for i, part := range parts {
		c, err := parseHexColor(strings.TrimSpace(part))
		if err != nil {
			return Palette{}, err
		}
		p[i] = c
	}
	if len(parts) == 4 {
		copy(p[4:8], p[:4])
		copy(p[8:12], p[:4])
	}
	return p, nil
}

func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xFF}, nil
}

// Color returns the display color of a frame buffer index.
func (p Palette) Color(index uint8) color.RGBA {
	if int(index) >= len(p) {
		return BlackColor
	}
	return p[index]
}

// Image renders a frame through the palette.
func (p Palette) Image(fb *FrameBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, FramebufferWidth, FramebufferHeight))
	for i, index := range fb.Pixels() {
		c := p.Color(index)
		copy(img.Pix[i*4:], []uint8{c.R, c.G, c.B, c.A})
	}
	return img
}

// Shade maps a raw 2-bit color through a BGP/OBP palette register.
func Shade(register, colorIndex uint8) uint8 {
	return (register >> (colorIndex * 2)) & 0x03
}
