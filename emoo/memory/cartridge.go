package memory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"
)

const (
	titleAddress          = 0x134
	titleLength           = 16
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	headerEnd             = 0x150

	romBankSize = 0x4000
	ramBankSize = 0x2000
)

var (
	// ErrROMTooSmall is returned for images that do not even contain a full header.
	ErrROMTooSmall = errors.New("rom image is smaller than the cartridge header")
	// ErrRAMSizeMismatch is returned when a save file does not match the cartridge RAM size.
	ErrRAMSizeMismatch = errors.New("save file size does not match cartridge RAM size")
)

// MapperKind identifies the bank controller family found on the cartridge.
type MapperKind uint8

const (
	MapperNone MapperKind = iota
	MapperMBC1
	MapperMBC2
	MapperMBC3
	MapperMBC5
)

func (m MapperKind) String() string {
	switch m {
	case MapperNone:
		return "ROM ONLY"
	case MapperMBC1:
		return "MBC1"
	case MapperMBC2:
		return "MBC2"
	case MapperMBC3:
		return "MBC3"
	case MapperMBC5:
		return "MBC5"
	}
	return fmt.Sprintf("MapperKind(%d)", uint8(m))
}

// Header holds the decoded cartridge header fields.
type Header struct {
	Title          string
	CartType       uint8
	Mapper         MapperKind
	HasBattery     bool
	HasRTC         bool
	ROMSizeCode    uint8
	RAMSizeCode    uint8
	ROMSize        int
	ROMBanks       int
	RAMSize        int
	Version        uint8
	HeaderChecksum uint8
}

// RAMBanks returns the number of 8KB external RAM banks.
func (h Header) RAMBanks() int {
	return (h.RAMSize + ramBankSize - 1) / ramBankSize
}

// ROMSizeFromCode decodes header byte 0x148 into a size in bytes and a count of 16KB banks.
// Unknown codes fall back to 32KB.
func ROMSizeFromCode(code uint8) (size int, banks int) {
	switch {
	case code <= 0x08:
		size = (32 * 1024) << code
	case code == 0x52:
		size = 72 * romBankSize
	case code == 0x53:
		size = 80 * romBankSize
	case code == 0x54:
		size = 96 * romBankSize
	default:
		size = 32 * 1024
	}
	return size, size / romBankSize
}

var ramSizes = [...]int{0, 0, 8 * 1024, 32 * 1024, 128 * 1024, 64 * 1024}

// RAMSizeFromCode decodes header byte 0x149. Unknown codes mean no RAM.
func RAMSizeFromCode(code uint8) int {
	if int(code) >= len(ramSizes) {
		return 0
	}
	return ramSizes[code]
}

func decodeCartType(t uint8) (kind MapperKind, battery, rtc bool) {
	switch t {
	case 0x00, 0x08:
		return MapperNone, false, false
	case 0x09:
		return MapperNone, true, false
	case 0x01, 0x02:
		return MapperMBC1, false, false
	case 0x03:
		return MapperMBC1, true, false
	case 0x05:
		return MapperMBC2, false, false
	case 0x06:
		return MapperMBC2, true, false
	case 0x0F, 0x10:
		return MapperMBC3, true, true
	case 0x11, 0x12:
		return MapperMBC3, false, false
	case 0x13:
		return MapperMBC3, true, false
	case 0x19, 0x1A, 0x1C, 0x1D:
		return MapperMBC5, false, false
	case 0x1B, 0x1E:
		return MapperMBC5, true, false
	}
	slog.Warn("Unsupported cartridge type, treating as ROM only", "type", fmt.Sprintf("0x%02X", t))
	return MapperNone, false, false
}

// ParseHeader decodes the cartridge header from a ROM image.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < headerEnd {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(rom))
	}

	h := Header{
		Title:          cleanTitle(rom[titleAddress : titleAddress+titleLength]),
		CartType:       rom[cartridgeTypeAddress],
		ROMSizeCode:    rom[romSizeAddress],
		RAMSizeCode:    rom[ramSizeAddress],
		Version:        rom[versionNumberAddress],
		HeaderChecksum: rom[headerChecksumAddress],
	}
	h.Mapper, h.HasBattery, h.HasRTC = decodeCartType(h.CartType)
	h.ROMSize, h.ROMBanks = ROMSizeFromCode(h.ROMSizeCode)
	h.RAMSize = RAMSizeFromCode(h.RAMSizeCode)
	if h.Mapper == MapperMBC2 && h.RAMSize == 0 {
		// built-in 512x4 bit RAM
		h.RAMSize = 512
	}
	return h, nil
}

// HeaderChecksumOK verifies the checksum stored at 0x14D.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < headerEnd {
		return false
	}
	var sum uint8
	for _, b := range rom[titleAddress:headerChecksumAddress] {
		sum = sum - b - 1
	}
	return sum == rom[headerChecksumAddress]
}

// Cartridge is a ROM image plus its external RAM.
type Cartridge struct {
	Header
	rom []byte
	ram []byte
}

// NewCartridge builds a cartridge from a ROM image. Images shorter than the size declared in
// the header are padded with 0xFF.
func NewCartridge(rom []byte) (*Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	if !HeaderChecksumOK(rom) {
		slog.Warn("Cartridge header checksum mismatch", "title", h.Title)
	}

	size := h.ROMSize
	if len(rom) > size {
		size = len(rom)
	}
	data := make([]byte, size)
	n := copy(data, rom)
	if n < size {
		slog.Warn("ROM image shorter than declared size, padding", "have", n, "declared", h.ROMSize)
		for i := n; i < size; i++ {
			data[i] = 0xFF
		}
	}

	return &Cartridge{
		Header: h,
		rom:    data,
		ram:    make([]byte, h.RAMSize),
	}, nil
}

// ROM returns the ROM image.
func (c *Cartridge) ROM() []byte { return c.rom }

// RAM returns the external RAM image. The live bank window on the bus is only written back
// on bank switches and flushes.
func (c *Cartridge) RAM() []byte { return c.ram }

// LoadRAM replaces the RAM image with the contents of a save file.
func (c *Cartridge) LoadRAM(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading save data: %w", err)
	}
	if len(data) != len(c.ram) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrRAMSizeMismatch, len(data), len(c.ram))
	}
	copy(c.ram, data)
	return nil
}

// SaveRAM writes the RAM image verbatim.
func (c *Cartridge) SaveRAM(w io.Writer) error {
	if _, err := w.Write(c.ram); err != nil {
		return fmt.Errorf("writing save data: %w", err)
	}
	return nil
}

// cleanTitle turns the raw title bytes into a printable string.
func cleanTitle(raw []byte) string {
	runes := make([]rune, 0, len(raw))
	for _, b := range raw {
		if b == 0 || b >= 0x80 {
			// CGB flag byte overlaps the last title character
			break
		}
		r := rune(b)
		if !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
