package video

import (
	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

// Memory is the PPU's side-effect free access to the bus.
type Memory interface {
	Peek(address uint16) byte
	Poke(address uint16, value byte)
	RequestInterrupt(interrupt addr.Interrupt)
}

// Mode is the PPU mode as reported in STAT bits 1-0.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	Transfer
)

func (m Mode) String() string {
	return [...]string{"HBlank", "VBlank", "OAMScan", "Transfer"}[m&3]
}

const (
	ScanlineDots = 456
	OAMScanDots  = 80
	// Mode3Length is the dot at which pixel transfer ends. Hardware stretches mode 3 for
	// scrolling, window and sprite fetches; here it is fixed.
	Mode3Length   = 252
	VBlankLine    = 144
	LinesPerFrame = 154
	FrameDots     = ScanlineDots * LinesPerFrame
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

// STAT interrupt sources
const (
	statHBlankSource  = 3
	statVBlankSource  = 4
	statOAMSource     = 5
	statLYCSource     = 6
	statCoincidence   = 2
	statModeWriteMask = 0xFC
)

// PPU is the pixel pipeline. It is ticked once per dot and composites one pixel per dot
// during mode 3.
type PPU struct {
	mem    Memory
	frames *FrameExchange
	oam    *OAM

	back    *FrameBuffer
	sprites []Sprite

	dot         int
	ly          uint8
	mode        Mode
	windowLine  int
	windowDrawn bool
	lycMatch    bool

	lcdc uint8
}

// NewPPU creates a pixel pipeline drawing into frames. The PPU starts at the top of a
// frame, as the LCD is when the boot ROM hands over.
func NewPPU(mem Memory, frames *FrameExchange) *PPU {
	if frames == nil {
		frames = NewFrameExchange()
	}
	return &PPU{
		mem:    mem,
		frames: frames,
		oam:    NewOAM(mem),
		back:   NewFrameBuffer(),
	}
}

func (p *PPU) lcdcSet(flag lcdcFlag) bool {
	return bit.IsSet(uint8(flag), p.lcdc)
}

// Tick advances the PPU by one dot.
func (p *PPU) Tick() {
	p.lcdc = p.mem.Peek(addr.LCDC)

	if !p.lcdcSet(lcdDisplayEnable) {
		p.dot = 0
		p.ly = 0
		p.windowLine = 0
		p.mode = HBlank
		p.mem.Poke(addr.LY, 0)
		p.mem.Poke(addr.STAT, p.mem.Peek(addr.STAT)&statModeWriteMask)
		return
	}

	p.updateCoincidence()

	if p.ly < VBlankLine {
		switch p.dot {
		case 0:
			p.enterMode(OAMScan)
			p.sprites = p.oam.GetSpritesForScanline(int(p.ly))
		case OAMScanDots:
			p.enterMode(Transfer)
		case Mode3Length:
			p.enterMode(HBlank)
		}
		if p.mode == Transfer {
			if x := p.dot - OAMScanDots; x < FramebufferWidth {
				p.drawPixel(x, int(p.ly))
			}
		}
	} else if p.ly == VBlankLine && p.dot == 0 {
		p.enterMode(VBlank)
		p.mem.RequestInterrupt(addr.VBlankInterrupt)
		p.frames.Publish(p.back)
	}

	p.dot++
	if p.dot < ScanlineDots {
		return
	}

	p.dot = 0
	if p.windowDrawn {
		p.windowLine++
		p.windowDrawn = false
	}
	p.ly++
	if p.ly == LinesPerFrame {
		p.ly = 0
		p.windowLine = 0
	}
	p.mem.Poke(addr.LY, p.ly)
}

// enterMode updates STAT and raises the STAT interrupt if the mode's source is enabled.
func (p *PPU) enterMode(mode Mode) {
	p.mode = mode
	stat := p.mem.Peek(addr.STAT)
	p.mem.Poke(addr.STAT, stat&statModeWriteMask|uint8(mode))

	source := -1
	switch mode {
	case HBlank:
		source = statHBlankSource
	case VBlank:
		source = statVBlankSource
	case OAMScan:
		source = statOAMSource
	}
	if source >= 0 && bit.IsSet(uint8(source), stat) {
		p.mem.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

// updateCoincidence keeps STAT bit 2 in sync with LY == LYC and fires the STAT interrupt
// on the rising edge.
func (p *PPU) updateCoincidence() {
	match := p.ly == p.mem.Peek(addr.LYC)
	stat := bit.SetTo(statCoincidence, p.mem.Peek(addr.STAT), match)
	p.mem.Poke(addr.STAT, stat)

	if match && !p.lycMatch && bit.IsSet(statLYCSource, stat) {
		p.mem.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	p.lycMatch = match
}

// drawPixel composites background, window and sprites for one screen position.
func (p *PPU) drawPixel(x, y int) {
	var raw uint8

	if p.lcdcSet(bgDisplay) {
		scx := int(p.mem.Peek(addr.SCX))
		scy := int(p.mem.Peek(addr.SCY))
		raw = p.tileMapPixel(p.lcdcSet(bgTileMapDisplaySelect), (x+scx)&0xFF, (y+scy)&0xFF)
	}

	if p.lcdcSet(windowDisplayEnable) {
		wy := int(p.mem.Peek(addr.WY))
		wx := int(p.mem.Peek(addr.WX)) - 7
		if y >= wy && x >= wx {
			raw = p.tileMapPixel(p.lcdcSet(windowTileMapSelect), x-wx, p.windowLine)
			p.windowDrawn = true
		}
	}

	out := Shade(p.mem.Peek(addr.BGP), raw)

	if p.lcdcSet(spriteDisplayEnable) {
		if index, ok := p.spritePixel(x, y, raw); ok {
			out = index
		}
	}

	p.back.SetPixel(x, y, out)
}

// tileMapPixel returns the raw color at (x, y) of the 256x256 map selected by highMap.
func (p *PPU) tileMapPixel(highMap bool, x, y int) uint8 {
	mapBase := addr.TileMap0
	if highMap {
		mapBase = addr.TileMap1
	}
	tileNumber := p.mem.Peek(mapBase + uint16((y/8)*32+x/8))

	var tileBase uint16
	if p.lcdcSet(bgWindowTileDataSelect) {
		tileBase = addr.TileData0 + uint16(tileNumber)*16
	} else {
		tileBase = uint16(int(addr.TileData2) + int(int8(tileNumber))*16)
	}

	return fetchRow(p.mem, tileBase, y%8).GetPixel(x % 8)
}

// spritePixel returns the tagged sprite color at x, if any. Sprites are checked in OAM
// order and the first opaque one decides the pixel, including whether it hides behind
// the background.
func (p *PPU) spritePixel(x, y int, bgRaw uint8) (uint8, bool) {
	for i := range p.sprites {
		s := &p.sprites[i]
		if !s.covers(x) {
			continue
		}

		row := y - s.Y
		if s.FlipY {
			row = s.Height - 1 - row
		}
		tile := s.TileIndex
		if s.Height == 16 {
			tile &^= 0x01
		}

		tileRow := fetchRow(p.mem, addr.TileData0+uint16(tile)*16, row)
		col := x - s.X
		var raw uint8
		if s.FlipX {
			raw = tileRow.GetPixelFlipped(col)
		} else {
			raw = tileRow.GetPixel(col)
		}
		if raw == 0 {
			continue
		}

		if s.BehindBG && bgRaw != 0 {
			return 0, false
		}
		if s.PaletteOBP1 {
			return 8 + Shade(p.mem.Peek(addr.OBP1), raw), true
		}
		return 4 + Shade(p.mem.Peek(addr.OBP0), raw), true
	}
	return 0, false
}

// Frames returns the exchange completed frames are published to.
func (p *PPU) Frames() *FrameExchange { return p.frames }

// Mode returns the current PPU mode.
func (p *PPU) Mode() Mode { return p.mode }

// Dot returns the position within the current scanline.
func (p *PPU) Dot() int { return p.dot }

// Line returns the current LY.
func (p *PPU) Line() uint8 { return p.ly }

// WindowLine returns the internal window line counter.
func (p *PPU) WindowLine() int { return p.windowLine }

// OAM gives debug views access to the object table.
func (p *PPU) OAM() *OAM { return p.oam }

// State is the serialisable form of the PPU. The frame under construction is not kept.
type State struct {
	Dot         int
	LY          uint8
	Mode        Mode
	WindowLine  int
	WindowDrawn bool
	LYCMatch    bool
}

func (p *PPU) State() State {
	return State{p.dot, p.ly, p.mode, p.windowLine, p.windowDrawn, p.lycMatch}
}

func (p *PPU) Restore(s State) {
	p.dot, p.ly, p.mode = s.Dot, s.LY, s.Mode
	p.windowLine, p.windowDrawn, p.lycMatch = s.WindowLine, s.WindowDrawn, s.LYCMatch
	p.lcdc = p.mem.Peek(addr.LCDC)
	if p.ly < VBlankLine {
		p.sprites = p.oam.GetSpritesForScanline(int(p.ly))
	}
}
