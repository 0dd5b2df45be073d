package debug

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/valerio/go-emoo/emoo/video"
)

// EncodePNG writes img scaled by an integer factor with nearest-neighbour sampling.
func EncodePNG(w io.Writer, img image.Image, scale int) error {
	if scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SavePNG writes img to directory/baseName.png, or to the working directory when
// directory is empty. It returns the path written.
func SavePNG(img image.Image, scale int, baseName, directory string) (string, error) {
	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		directory = cwd
	}

	path := filepath.Join(directory, baseName+".png")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodePNG(file, img, scale); err != nil {
		return "", err
	}
	return path, file.Close()
}

// SaveFramePNGToDir renders a frame through the palette and saves it as PNG.
func SaveFramePNGToDir(frame *video.FrameBuffer, palette video.Palette, scale int, baseName, directory string) error {
	path, err := SavePNG(palette.Image(frame), scale, baseName, directory)
	if err != nil {
		return err
	}
	slog.Debug("Snapshot saved", "path", path,
		"size", fmt.Sprintf("%dx%d", video.FramebufferWidth*max(scale, 1), video.FramebufferHeight*max(scale, 1)))
	return nil
}

// TakeSnapshot saves the frame with a timestamped name, logging instead of failing.
func TakeSnapshot(frame *video.FrameBuffer, palette video.Palette, scale int, directory string) {
	if frame == nil {
		slog.Warn("No frame data available for snapshot")
		return
	}

	baseName := "emoo_snapshot_" + time.Now().Format("20060102_150405")
	if err := SaveFramePNGToDir(frame, palette, scale, baseName, directory); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
		return
	}
	slog.Info("Snapshot saved", "name", baseName)
}
