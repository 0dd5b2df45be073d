// Package window shows the emulator in a desktop window using ebiten. Ebiten owns the
// main loop, so frames are driven from Run rather than by calling Update in a loop.
package window

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/valerio/go-emoo/emoo/backend"
	"github.com/valerio/go-emoo/emoo/display"
	"github.com/valerio/go-emoo/emoo/input"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	ticksPerSecond = 60
	debugLineStep  = 14
)

// keyNames maps the default key names onto ebiten keys.
var keyNames = map[string]ebiten.Key{
	"z":      ebiten.KeyZ,
	"x":      ebiten.KeyX,
	"w":      ebiten.KeyW,
	"a":      ebiten.KeyA,
	"s":      ebiten.KeyS,
	"d":      ebiten.KeyD,
	"p":      ebiten.KeyP,
	"r":      ebiten.KeyR,
	"o":      ebiten.KeyO,
	"f":      ebiten.KeyF,
	"t":      ebiten.KeyT,
	"q":      ebiten.KeyQ,
	"0":      ebiten.KeyDigit0,
	"1":      ebiten.KeyDigit1,
	"2":      ebiten.KeyDigit2,
	"3":      ebiten.KeyDigit3,
	"4":      ebiten.KeyDigit4,
	"Enter":  ebiten.KeyEnter,
	"Shift":  ebiten.KeyShift,
	"Space":  ebiten.KeySpace,
	"Escape": ebiten.KeyEscape,
	"Up":     ebiten.KeyArrowUp,
	"Down":   ebiten.KeyArrowDown,
	"Left":   ebiten.KeyArrowLeft,
	"Right":  ebiten.KeyArrowRight,
	"F1":     ebiten.KeyF1,
	"F2":     ebiten.KeyF2,
	"F3":     ebiten.KeyF3,
	"F4":     ebiten.KeyF4,
	"F6":     ebiten.KeyF6,
	"F7":     ebiten.KeyF7,
	"F9":     ebiten.KeyF9,
}

// Backend renders into an ebiten window and polls the keyboard once per frame.
type Backend struct {
	config  backend.BackendConfig
	keys    map[ebiten.Key]action.Action
	tracker *backend.ActionTracker

	img *image.RGBA
	tex *ebiten.Image
}

func New() *Backend {
	return &Backend{}
}

func (w *Backend) Init(config backend.BackendConfig) error {
	if config.Scale <= 0 {
		config.Scale = display.DefaultPixelScale
	}
	if config.Palette == (video.Palette{}) {
		config.Palette = video.DefaultPalette
	}
	w.config = config
	w.tracker = backend.NewActionTracker()

	w.keys = make(map[ebiten.Key]action.Action, len(keyNames))
	for name, key := range keyNames {
		if act, ok := input.GetDefaultMapping(name); ok {
			w.keys[key] = act
		}
	}

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(width*config.Scale, height*config.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(ticksPerSecond)
	return nil
}

// Update stores the frame for the next Draw and returns the keyboard changes since the
// previous tick. Closing the window reports a quit.
func (w *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	w.img = w.config.Palette.Image(frame)

	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		w.config.ShowDebug = !w.config.ShowDebug
	}

	current := make(map[action.Action]bool, len(w.keys))
	for key, act := range w.keys {
		if ebiten.IsKeyPressed(key) {
			current[act] = true
		}
	}
	if ebiten.IsWindowBeingClosed() {
		current[action.EmulatorQuit] = true
	}
	return w.tracker.Update(current), nil
}

func (w *Backend) Cleanup() error {
	if w.tex != nil {
		w.tex.Deallocate()
		w.tex = nil
	}
	return nil
}

// Run hands the main loop to ebiten. step is called once per tick and should emulate a
// frame and call Update; returning ebiten.Termination closes the window cleanly.
func (w *Backend) Run(step func() error) error {
	if err := ebiten.RunGame(&game{backend: w, step: step}); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

type game struct {
	backend *Backend
	step    func() error
}

func (g *game) Update() error {
	return g.step()
}

func (g *game) Draw(screen *ebiten.Image) {
	w := g.backend
	if w.img == nil {
		screen.Fill(color.Black)
		return
	}
	if w.tex == nil {
		w.tex = ebiten.NewImage(width, height)
	}
	w.tex.WritePixels(w.img.Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w.config.Scale), float64(w.config.Scale))
	screen.DrawImage(w.tex, op)

	if w.config.ShowDebug && w.config.Callbacks.DebugData != nil {
		if data := w.config.Callbacks.DebugData(); data != nil {
			for i, line := range data.FormatLines() {
				ebitenutil.DebugPrintAt(screen, line, 4, 4+i*debugLineStep)
			}
		}
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	s := g.backend.config.Scale
	return width * s, height * s
}
