package debug

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-emoo/emoo/video"
)

func TestSaveFramePNGToDir(t *testing.T) {
	dir := t.TempDir()
	frame := video.NewFrameBuffer()
	frame.SetPixel(0, 0, 3)
	frame.SetPixel(1, 0, 7)

	require.NoError(t, SaveFramePNGToDir(frame, video.DefaultPalette, 2, "frame", dir))

	f, err := os.Open(filepath.Join(dir, "frame.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 288, img.Bounds().Dy())
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0, 0, 0}, []uint32{r, g, b})
	r, _, _, _ = img.At(2, 0).RGBA()
	assert.Zero(t, r)
	r, _, _, _ = img.At(4, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
}

func TestEncodePNGUnscaled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, video.DefaultPalette.Image(video.NewFrameBuffer()), 1))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, video.FramebufferWidth, img.Bounds().Dx())
}

func TestSavePNGMissingDirectory(t *testing.T) {
	_, err := SavePNG(video.DefaultPalette.Image(video.NewFrameBuffer()), 1, "x", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
