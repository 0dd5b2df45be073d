package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-emoo/emoo/backend"
	"github.com/valerio/go-emoo/emoo/debug"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/video"
)

// progressInterval is how often, in frames, progress is logged.
const progressInterval = 60

// Backend runs without any display, for automated testing and batch processing. It asks
// to quit once maxFrames frames have been shown; a maxFrames of 0 runs until stopped.
type Backend struct {
	config         backend.BackendConfig
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
}

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N frames
	Directory string // Directory to save snapshots
	ROMName   string // ROM name for snapshot filenames
	Scale     int
}

func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config
	if h.config.Palette == (video.Palette{}) {
		h.config.Palette = video.DefaultPalette
	}
	h.frameCount = 0

	slog.Info("Running headless mode",
		"title", config.Title,
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

// Update counts the frame, saves snapshots on the configured interval and returns a quit
// event once the frame budget is spent.
func (h *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	h.frameCount++

	snapped := false
	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		if err := h.saveSnapshot(frame); err != nil {
			return nil, err
		}
		snapped = true
	}

	if h.frameCount%progressInterval == 0 {
		slog.Debug("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.maxFrames <= 0 || h.frameCount < h.maxFrames {
		return nil, nil
	}

	// always keep the last frame
	if h.snapshotConfig.Enabled && !snapped {
		if err := h.saveSnapshot(frame); err != nil {
			return nil, err
		}
	}
	if h.snapshotConfig.Enabled {
		slog.Info("Headless execution completed", "frames", h.frameCount, "png_snapshots_saved_to", h.snapshotConfig.Directory)
	} else {
		slog.Info("Headless execution completed", "frames", h.frameCount)
	}
	return []backend.InputEvent{{Action: action.EmulatorQuit, Type: event.Press}}, nil
}

// FrameCount returns how many frames have been shown.
func (h *Backend) FrameCount() int { return h.frameCount }

func (h *Backend) Cleanup() error {
	return nil
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters. An empty
// directory gets a fresh temporary one.
func CreateSnapshotConfig(interval int, directory, romPath string, scale int) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
		Scale:    scale,
	}
	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "emoo-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		directory = tempDir
	} else if err := os.MkdirAll(directory, 0o755); err != nil {
		return config, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	config.Directory = directory

	config.ROMName = strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	return config, nil
}

func (h *Backend) saveSnapshot(frame *video.FrameBuffer) error {
	name := fmt.Sprintf("%s_frame_%d", h.snapshotConfig.ROMName, h.frameCount)
	if err := debug.SaveFramePNGToDir(frame, h.config.Palette, h.snapshotConfig.Scale, name, h.snapshotConfig.Directory); err != nil {
		return fmt.Errorf("snapshot at frame %d: %w", h.frameCount, err)
	}
	return nil
}
