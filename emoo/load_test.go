package emoo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatteryDMG(t *testing.T) *DMG {
	t.Helper()
	d := New(buildCartridge(t, "BATTERY", cartMBC1Battery, ramSize8KB, loopForever...))
	d.MMU().Write(0x0000, 0x0A) // enable external RAM
	return d
}

func TestSavePath(t *testing.T) {
	tests := []struct {
		rom  string
		want string
	}{
		{"tetris.gb", "tetris.sav"},
		{"/roms/Pokemon Red.gb", "/roms/Pokemon Red.sav"},
		{"noext", "noext.sav"},
	}
	for _, tt := range tests {
		t.Run(tt.rom, func(t *testing.T) {
			assert.Equal(t, tt.want, SavePath(tt.rom))
		})
	}
}

func TestBatteryRAMRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")

	d := newBatteryDMG(t)
	d.MMU().Write(0xA000, 0x42)
	d.MMU().Write(0xBFFF, 0x99)
	require.NoError(t, d.WriteSaveFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 8*1024)
	assert.Equal(t, byte(0x42), data[0])
	assert.Equal(t, byte(0x99), data[0x1FFF])

	restored := newBatteryDMG(t)
	require.NoError(t, restored.LoadSaveFile(path))
	assert.Equal(t, byte(0x42), restored.MMU().Read(0xA000))
	assert.Equal(t, byte(0x99), restored.MMU().Read(0xBFFF))
}

func TestLoadSaveFileMissingIsNotAnError(t *testing.T) {
	d := newBatteryDMG(t)
	assert.NoError(t, d.LoadSaveFile(filepath.Join(t.TempDir(), "missing.sav")))
}

func TestLoadSaveFileWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.sav")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	d := newBatteryDMG(t)
	assert.Error(t, d.LoadSaveFile(path))
}

func TestNoBatteryRAM(t *testing.T) {
	d := newIdleDMG(t)

	var buf bytes.Buffer
	assert.ErrorIs(t, d.SaveRAM(&buf), ErrNoBatteryRAM)
	assert.ErrorIs(t, d.LoadRAM(&buf), ErrNoBatteryRAM)

	path := filepath.Join(t.TempDir(), "idle.sav")
	require.NoError(t, d.WriteSaveFile(path))
	assert.NoFileExists(t, path)
}

func TestNewWithFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewWithFile(filepath.Join(t.TempDir(), "nope.gb"))
		assert.Error(t, err)
	})

	t.Run("too small", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tiny.gb")
		require.NoError(t, os.WriteFile(path, make([]byte, 0x40), 0o644))
		_, err := NewWithFile(path)
		assert.Error(t, err)
	})

	t.Run("valid image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.gb")
		require.NoError(t, os.WriteFile(path, buildCartridge(t, "FILE", cartROMOnly, 0).ROM(), 0o644))

		d, err := NewWithFile(path)
		require.NoError(t, err)
		assert.Equal(t, "FILE", d.Cartridge().Title)
	})
}
