package emoo

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/valerio/go-emoo/emoo/audio"
	"github.com/valerio/go-emoo/emoo/cpu"
	"github.com/valerio/go-emoo/emoo/memory"
	"github.com/valerio/go-emoo/emoo/serial"
	"github.com/valerio/go-emoo/emoo/video"
)

const stateVersion = 1

var (
	ErrStateVersion  = errors.New("unsupported save state version")
	ErrStateMismatch = errors.New("save state belongs to a different cartridge")
)

// snapshot is the gob payload of a save state.
type snapshot struct {
	Version int
	Title   string
	Ticks   uint64

	CPU    cpu.State
	MMU    memory.State
	PPU    video.State
	APU    audio.State
	Serial serial.State
}

// SaveState encodes the whole machine, cartridge RAM included. The frame being drawn is
// not kept; the next published frame after a restore may be partly stale.
func (d *DMG) SaveState(w io.Writer) error {
	s := snapshot{
		Version: stateVersion,
		Title:   d.mmu.Cartridge().Title,
		Ticks:   d.ticks,
		CPU:     d.cpu.State(),
		MMU:     d.mmu.State(),
		PPU:     d.ppu.State(),
		APU:     d.apu.State(),
		Serial:  d.serial.State(),
	}
	if err := gob.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("encoding save state: %w", err)
	}
	return nil
}

// LoadState restores a state written by SaveState for the same cartridge. On error the
// session is left untouched.
func (d *DMG) LoadState(r io.Reader) error {
	var s snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("decoding save state: %w", err)
	}
	if s.Version != stateVersion {
		return fmt.Errorf("%w: %d", ErrStateVersion, s.Version)
	}
	if title := d.mmu.Cartridge().Title; s.Title != title {
		return fmt.Errorf("%w: state is for %q, loaded %q", ErrStateMismatch, s.Title, title)
	}

	if err := d.mmu.Restore(s.MMU); err != nil {
		return fmt.Errorf("restoring save state: %w", err)
	}
	d.cpu.Restore(s.CPU)
	d.ppu.Restore(s.PPU)
	d.apu.Restore(s.APU)
	d.serial.Restore(s.Serial)
	d.ticks = s.Ticks
	return nil
}

// SaveStateFile writes a save state to path.
func (d *DMG) SaveStateFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating save state: %w", err)
	}
	if err := d.SaveState(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadStateFile restores a save state from path.
func (d *DMG) LoadStateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening save state: %w", err)
	}
	defer f.Close()
	return d.LoadState(f)
}
