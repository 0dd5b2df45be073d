package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-emoo/emoo"
	"github.com/valerio/go-emoo/emoo/audio"
	"github.com/valerio/go-emoo/emoo/audio/speaker"
	"github.com/valerio/go-emoo/emoo/audio/wavout"
	"github.com/valerio/go-emoo/emoo/backend"
	"github.com/valerio/go-emoo/emoo/backend/headless"
	"github.com/valerio/go-emoo/emoo/backend/terminal"
	"github.com/valerio/go-emoo/emoo/backend/window"
	"github.com/valerio/go-emoo/emoo/display"
	"github.com/valerio/go-emoo/emoo/timing"
	"github.com/valerio/go-emoo/emoo/video"
)

// speakerBufferFrames is roughly 100ms of audio at the default rate.
const speakerBufferFrames = 4096

func main() {
	app := cli.NewApp()
	app.Name = "emoo"
	app.Description = "A cycle-stepped Game Boy (DMG) emulator"
	app.Usage = "emoo [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "Battery RAM file (default: ROM path with .sav extension)",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window and snapshot scale factor",
			Value: display.DefaultPixelScale,
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Interactive backend: terminal or window",
			Value: "terminal",
		},
		cli.StringFlag{
			Name:  "audio",
			Usage: "Audio output: none, speaker or wav",
			Value: "none",
		},
		cli.StringFlag{
			Name:  "wav-out",
			Usage: "WAV file written when --audio=wav",
			Value: "emoo.wav",
		},
		cli.StringFlag{
			Name:  "palette",
			Usage: "4 or 12 comma separated hex colors, lightest first",
		},
		cli.StringFlag{
			Name:  "trace",
			Usage: "Write a per-instruction CPU log to this file",
		},
		cli.StringFlag{
			Name:  "load-state",
			Usage: "Load a save state before starting",
		},
		cli.StringFlag{
			Name:  "save-state",
			Usage: "Save state slot used by the save/load state keys (default: ROM path with .state extension)",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		cli.BoolFlag{
			Name:  "no-limit",
			Usage: "Run as fast as possible instead of at 59.7 fps",
		},
		cli.BoolFlag{
			Name:  "test-pattern",
			Usage: "Display a test pattern instead of emulation (for debugging display)",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

// session collects what has to be closed once the emulator stops.
type session struct {
	closers []io.Closer
}

func (s *session) add(c io.Closer) { s.closers = append(s.closers, c) }

func (s *session) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

func runEmulator(c *cli.Context) (err error) {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	palette := video.DefaultPalette
	if p := c.String("palette"); p != "" {
		if palette, err = video.ParsePalette(p); err != nil {
			return err
		}
	}

	romPath := c.String("rom")
	if romPath == "" && c.NArg() > 0 {
		romPath = c.Args().Get(0)
	}
	if romPath == "" && !c.Bool("test-pattern") {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	s := &session{}
	defer func() { err = errors.Join(err, s.close()) }()

	var emu emoo.Emulator
	runCfg := emoo.RunConfig{
		SnapshotDir:   c.String("snapshot-dir"),
		SnapshotScale: c.Int("scale"),
	}
	title := "emoo"

	if c.Bool("test-pattern") {
		slog.Info("Running in test pattern mode")
		emu = emoo.NewTestPatternEmulator()
		title = "emoo test pattern"
	} else {
		dmg, err := openDMG(c, romPath, palette, s)
		if err != nil {
			return err
		}
		emu = dmg
		if t := dmg.Cartridge().Header.Title; t != "" {
			title = t
		}
		runCfg.SavePath = saveFile(c, romPath)
		runCfg.StatePath = c.String("save-state")
		if runCfg.StatePath == "" {
			runCfg.StatePath = strings.TrimSuffix(emoo.SavePath(romPath), ".sav") + ".state"
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bcfg := backend.BackendConfig{
		Title:   title,
		Scale:   c.Int("scale"),
		Palette: palette,
	}

	backendName := c.String("backend")
	if c.Bool("headless") || (backendName == "terminal" && !term.IsTerminal(int(os.Stdout.Fd()))) {
		return runHeadless(ctx, c, emu, romPath, runCfg, bcfg)
	}

	var limiter timing.Limiter = timing.NewAdaptiveLimiter(1.0)
	if c.Bool("no-limit") {
		limiter = timing.NewNoOpLimiter()
	}

	switch backendName {
	case "terminal":
		bcfg.ShowDebug = true
		return emoo.Run(ctx, emu, terminal.New(), limiter, runCfg, bcfg)
	case "window":
		return runWindow(ctx, emu, runCfg, bcfg)
	default:
		return fmt.Errorf("unknown backend %q (want terminal or window)", backendName)
	}
}

func saveFile(c *cli.Context, romPath string) string {
	if p := c.String("save"); p != "" {
		return p
	}
	return emoo.SavePath(romPath)
}

func openDMG(c *cli.Context, romPath string, palette video.Palette, s *session) (*emoo.DMG, error) {
	opts := []emoo.Option{emoo.WithPalette(palette)}

	sink, err := openAudio(c, s)
	if err != nil {
		return nil, err
	}
	if sink != nil {
		opts = append(opts, emoo.WithAudioSink(sink))
	}

	if path := c.String("trace"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating trace file: %w", err)
		}
		s.add(f)
		opts = append(opts, emoo.WithTrace(f))
	}

	dmg, err := emoo.NewWithFile(romPath, opts...)
	if err != nil {
		return nil, err
	}

	if err := dmg.LoadSaveFile(saveFile(c, romPath)); err != nil {
		return nil, err
	}
	if path := c.String("load-state"); path != "" {
		if err := dmg.LoadStateFile(path); err != nil {
			return nil, err
		}
		slog.Info("State loaded", "path", path)
	}
	return dmg, nil
}

func openAudio(c *cli.Context, s *session) (audio.Sink, error) {
	switch mode := c.String("audio"); mode {
	case "none", "":
		return nil, nil
	case "speaker":
		sp, err := speaker.New(audio.DefaultSampleRate, speakerBufferFrames)
		if err != nil {
			return nil, err
		}
		s.add(sp)
		return sp, nil
	case "wav":
		f, err := os.Create(c.String("wav-out"))
		if err != nil {
			return nil, fmt.Errorf("creating wav file: %w", err)
		}
		w := wavout.New(f, audio.DefaultSampleRate)
		// the encoder finalizes the header before the file is closed
		s.add(f)
		s.add(w)
		slog.Info("Recording audio", "path", c.String("wav-out"))
		return w, nil
	default:
		return nil, fmt.Errorf("unknown audio output %q (want none, speaker or wav)", mode)
	}
}

func runHeadless(ctx context.Context, c *cli.Context, emu emoo.Emulator, romPath string, runCfg emoo.RunConfig, bcfg backend.BackendConfig) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath, c.Int("scale"))
	if err != nil {
		return err
	}

	var limiter timing.Limiter = timing.NewNoOpLimiter()
	if c.String("audio") == "speaker" && !c.Bool("no-limit") {
		// nothing to look at, but the speaker still needs real-time pacing
		ticker := timing.NewTickerLimiter()
		defer ticker.Stop()
		limiter = ticker
	}
	return emoo.Run(ctx, emu, headless.New(frames, snapshots), limiter, runCfg, bcfg)
}

// runWindow lets ebiten drive the runner; the window's tick rate paces emulation.
func runWindow(ctx context.Context, emu emoo.Emulator, runCfg emoo.RunConfig, bcfg backend.BackendConfig) error {
	wb := window.New()
	runner := emoo.NewRunner(emu, wb, nil, runCfg)
	if err := runner.Start(bcfg); err != nil {
		return err
	}

	err := wb.Run(func() error {
		err := runner.Step(ctx)
		if errors.Is(err, emoo.ErrQuit) {
			return ebiten.Termination
		}
		return err
	})
	return errors.Join(err, runner.Stop())
}
