package emoo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/valerio/go-emoo/emoo/backend"
	"github.com/valerio/go-emoo/emoo/debug"
	"github.com/valerio/go-emoo/emoo/input"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/timing"
)

// RunConfig holds the file locations the run loop uses for its emulator actions. Empty
// paths disable the corresponding feature.
type RunConfig struct {
	// SavePath receives battery RAM when the loop exits.
	SavePath string
	// StatePath is the quick save slot used by the save/load state keys.
	StatePath string
	// SnapshotDir is where snapshot PNGs go; empty means the working directory.
	SnapshotDir   string
	SnapshotScale int
}

// Runner drives an emulator frame by frame: it hands each frame to the backend, applies
// the input the backend reports and paces the loop with a limiter.
type Runner struct {
	emu     Emulator
	backend backend.Backend
	limiter timing.Limiter
	input   *input.Manager
	cfg     RunConfig

	paused bool
	step   bool
	quit   atomic.Bool
	frames uint64
}

// NewRunner wires the default actions: pause, frame step, quit, snapshots, and, for a DMG,
// save states and the audio channel controls. A nil limiter runs unthrottled.
func NewRunner(emu Emulator, be backend.Backend, limiter timing.Limiter, cfg RunConfig) *Runner {
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	r := &Runner{
		emu:     emu,
		backend: be,
		limiter: limiter,
		input:   input.NewManager(nil),
		cfg:     cfg,
	}

	for act := action.GBButtonA; act <= action.GBDPadRight; act++ {
		r.input.On(act, event.Press, func() { emu.HandleAction(act, event.Press) })
		r.input.On(act, event.Release, func() { emu.HandleAction(act, event.Release) })
	}
	r.input.On(action.EmulatorTestPatternCycle, event.Press, func() {
		emu.HandleAction(action.EmulatorTestPatternCycle, event.Press)
	})
	r.input.On(action.EmulatorPauseToggle, event.Press, r.togglePause)
	r.input.On(action.EmulatorStepFrame, event.Press, func() {
		if r.paused {
			r.step = true
		}
	})
	r.input.On(action.EmulatorQuit, event.Press, func() { r.quit.Store(true) })
	r.input.On(action.EmulatorSnapshot, event.Press, r.snapshot)

	if dmg, ok := emu.(*DMG); ok {
		r.wireDMG(dmg)
	}
	return r
}

func (r *Runner) wireDMG(d *DMG) {
	if r.cfg.StatePath != "" {
		r.input.On(action.EmulatorSaveState, event.Press, func() {
			if err := d.SaveStateFile(r.cfg.StatePath); err != nil {
				slog.Error("Failed to save state", "path", r.cfg.StatePath, "error", err)
				return
			}
			slog.Info("State saved", "path", r.cfg.StatePath)
		})
		r.input.On(action.EmulatorLoadState, event.Press, func() {
			if err := d.LoadStateFile(r.cfg.StatePath); err != nil {
				slog.Error("Failed to load state", "path", r.cfg.StatePath, "error", err)
				return
			}
			r.limiter.Reset()
			slog.Info("State loaded", "path", r.cfg.StatePath)
		})
	}

	apu := d.APU()
	for ch := range 4 {
		r.input.On(action.AudioToggleChannel1+action.Action(ch), event.Press, func() { apu.ToggleChannel(ch + 1) })
		r.input.On(action.AudioSoloChannel1+action.Action(ch), event.Press, func() { apu.SoloChannel(ch + 1) })
	}
	r.input.On(action.AudioUnmuteAll, event.Press, apu.UnmuteAll)
}

// Input exposes the action router so callers can add their own bindings.
func (r *Runner) Input() *input.Manager { return r.input }

func (r *Runner) Paused() bool { return r.paused }

// Frames returns how many frames have been emulated by this runner.
func (r *Runner) Frames() uint64 { return r.frames }

func (r *Runner) togglePause() {
	r.paused = !r.paused
	if d, ok := r.emu.(*DMG); ok {
		d.SetPaused(r.paused)
	}
	if !r.paused {
		r.limiter.Reset()
	}
	slog.Info("Pause toggled", "paused", r.paused)
}

func (r *Runner) snapshot() {
	palette := DefaultConfig().Palette
	d, ok := r.emu.(*DMG)
	if ok {
		palette = d.Palette()
	}
	debug.TakeSnapshot(r.emu.Frame(), palette, r.cfg.SnapshotScale, r.cfg.SnapshotDir)
	if !ok {
		return
	}

	name := "emoo_tiles_" + time.Now().Format("20060102_150405")
	path, err := debug.SavePNG(d.TileSheet(), r.cfg.SnapshotScale, name, r.cfg.SnapshotDir)
	if err != nil {
		slog.Error("Failed to save tile sheet", "error", err)
		return
	}
	slog.Info("Tile sheet saved", "path", path)
}

// ErrQuit is returned by Step once a quit action has been handled.
var ErrQuit = errors.New("quit requested")

// Start initialises the backend with bcfg. Callbacks left nil are filled in by the
// runner.
func (r *Runner) Start(bcfg backend.BackendConfig) error {
	if bcfg.Callbacks.DebugData == nil {
		bcfg.Callbacks.DebugData = r.emu.DebugData
	}
	if bcfg.Callbacks.OnQuit == nil {
		bcfg.Callbacks.OnQuit = func() { r.quit.Store(true) }
	}
	if err := r.backend.Init(bcfg); err != nil {
		return fmt.Errorf("initializing backend: %w", err)
	}
	return nil
}

// Step emulates one frame unless paused, shows it and applies the input the backend
// returns. It does not pace; callers either wait on a limiter or are paced by the
// backend itself.
func (r *Runner) Step(ctx context.Context) error {
	if r.quit.Load() || ctx.Err() != nil {
		return ErrQuit
	}

	if !r.paused || r.step {
		if err := r.emu.RunFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", r.frames, err)
		}
		r.frames++
		r.step = false
	}

	events, err := r.backend.Update(r.emu.Frame())
	if err != nil {
		return fmt.Errorf("backend update: %w", err)
	}
	for _, ev := range events {
		r.input.Trigger(ev.Action, ev.Type)
	}

	if r.quit.Load() {
		return ErrQuit
	}
	return nil
}

// Stop cleans up the backend, writes battery RAM to SavePath and closes the session.
func (r *Runner) Stop() error {
	return r.shutdown()
}

// Run loops until ctx is cancelled or a quit action arrives, pacing frames with the
// limiter. The backend is cleaned up and battery RAM saved on return.
func (r *Runner) Run(ctx context.Context, bcfg backend.BackendConfig) (err error) {
	if err := r.Start(bcfg); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, r.Stop())
	}()

	for {
		if err := r.Step(ctx); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (r *Runner) shutdown() error {
	var errs []error
	if err := r.backend.Cleanup(); err != nil {
		errs = append(errs, fmt.Errorf("backend cleanup: %w", err))
	}
	if d, ok := r.emu.(*DMG); ok {
		if r.cfg.SavePath != "" {
			if err := d.WriteSaveFile(r.cfg.SavePath); err != nil {
				errs = append(errs, err)
			}
		}
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing session: %w", err))
		}
	}
	slog.Info("Emulation stopped", "frames", r.frames)
	return errors.Join(errs...)
}

// Run drives emu on be until ctx is done or the backend asks to quit.
func Run(ctx context.Context, emu Emulator, be backend.Backend, limiter timing.Limiter, cfg RunConfig, bcfg backend.BackendConfig) error {
	return NewRunner(emu, be, limiter, cfg).Run(ctx, bcfg)
}
