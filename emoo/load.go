package emoo

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-emoo/emoo/memory"
)

// ErrNoBatteryRAM is returned when saving or loading RAM for a cartridge that has no
// battery-backed RAM to persist.
var ErrNoBatteryRAM = errors.New("cartridge has no battery-backed RAM")

// LoadCartridge reads a ROM image from disk.
func LoadCartridge(path string) (*memory.Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}
	slog.Debug("Loaded ROM data", "path", path, "bytes", len(data))

	cart, err := memory.NewCartridge(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	return cart, nil
}

// NewWithFile loads the ROM at path and wires a session around it.
func NewWithFile(path string, opts ...Option) (*DMG, error) {
	cart, err := LoadCartridge(path)
	if err != nil {
		return nil, err
	}
	return New(cart, opts...), nil
}

// SavePath returns the conventional save file for a ROM: the same name with a .sav
// extension.
func SavePath(romPath string) string {
	return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
}

func (d *DMG) hasBatteryRAM() bool {
	cart := d.mmu.Cartridge()
	return cart.HasBattery && len(cart.RAM()) > 0
}

// LoadRAM restores cartridge RAM from r.
func (d *DMG) LoadRAM(r io.Reader) error {
	if !d.hasBatteryRAM() {
		return ErrNoBatteryRAM
	}
	return d.mmu.LoadRAM(r)
}

// SaveRAM flushes the live RAM window and writes the cartridge RAM to w.
func (d *DMG) SaveRAM(w io.Writer) error {
	if !d.hasBatteryRAM() {
		return ErrNoBatteryRAM
	}
	return d.mmu.SaveRAM(w)
}

// LoadSaveFile restores cartridge RAM from path. A missing file is not an error: the
// game simply starts without a save.
func (d *DMG) LoadSaveFile(path string) error {
	if !d.hasBatteryRAM() {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No save file", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening save file: %w", err)
	}
	defer f.Close()

	if err := d.LoadRAM(f); err != nil {
		return fmt.Errorf("loading save file %s: %w", path, err)
	}
	slog.Info("Loaded save file", "path", path)
	return nil
}

// WriteSaveFile writes cartridge RAM to path through a temporary file, so a crash
// never leaves a truncated save behind. Cartridges without battery RAM are skipped.
func (d *DMG) WriteSaveFile(path string) error {
	if !d.hasBatteryRAM() {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating save file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.SaveRAM(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing save file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing save file: %w", err)
	}
	slog.Info("Wrote save file", "path", path)
	return nil
}
