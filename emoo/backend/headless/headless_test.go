package headless_test

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-emoo/emoo/backend"
	"github.com/valerio/go-emoo/emoo/backend/headless"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/video"
)

var _ backend.Backend = (*headless.Backend)(nil)

func TestHeadlessBackend(t *testing.T) {
	t.Run("quits after max frames", func(t *testing.T) {
		h := headless.New(3, headless.SnapshotConfig{})
		require.NoError(t, h.Init(backend.BackendConfig{Title: "Test"}))

		frame := video.NewFrameBuffer()
		for i := range 3 {
			events, err := h.Update(frame)
			require.NoError(t, err)

			if i < 2 {
				assert.Empty(t, events)
			} else {
				require.Len(t, events, 1)
				assert.Equal(t, action.EmulatorQuit, events[0].Action)
				assert.Equal(t, event.Press, events[0].Type)
			}
		}
		assert.Equal(t, 3, h.FrameCount())
		assert.NoError(t, h.Cleanup())
	})

	t.Run("zero frames runs until stopped", func(t *testing.T) {
		h := headless.New(0, headless.SnapshotConfig{})
		require.NoError(t, h.Init(backend.BackendConfig{}))

		frame := video.NewFrameBuffer()
		for range 200 {
			events, err := h.Update(frame)
			require.NoError(t, err)
			require.Empty(t, events)
		}
	})
}

func TestHeadlessSnapshots(t *testing.T) {
	dir := t.TempDir()
	cfg, err := headless.CreateSnapshotConfig(2, dir, "/roms/tetris.gb", 2)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "tetris", cfg.ROMName)

	h := headless.New(3, cfg)
	require.NoError(t, h.Init(backend.BackendConfig{}))

	frame := video.NewFrameBuffer()
	for range 3 {
		_, err := h.Update(frame)
		require.NoError(t, err)
	}

	for _, name := range []string{"tetris_frame_2.png", "tetris_frame_3.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err, name)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, video.FramebufferWidth*2, img.Bounds().Dx())
	}

	_, err = os.Stat(filepath.Join(dir, "tetris_frame_1.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateSnapshotConfig(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg, err := headless.CreateSnapshotConfig(0, "", "rom.gb", 1)
		require.NoError(t, err)
		assert.False(t, cfg.Enabled)
		assert.Empty(t, cfg.Directory)
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "shots")
		cfg, err := headless.CreateSnapshotConfig(10, dir, "rom.gb", 1)
		require.NoError(t, err)
		assert.Equal(t, dir, cfg.Directory)
		assert.DirExists(t, dir)
	})

	t.Run("temporary directory", func(t *testing.T) {
		cfg, err := headless.CreateSnapshotConfig(10, "", "rom.gb", 1)
		require.NoError(t, err)
		assert.DirExists(t, cfg.Directory)
		os.RemoveAll(cfg.Directory)
	})
}
