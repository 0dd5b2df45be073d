package emoo

import (
	"github.com/valerio/go-emoo/emoo/debug"
	"github.com/valerio/go-emoo/emoo/display"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/video"
)

const (
	shadeWhite uint8 = iota
	shadeLight
	shadeDark
	shadeBlack
)

// TestPatternEmulator displays test patterns without actual emulation, for checking a
// backend's rendering and input without a ROM.
type TestPatternEmulator struct {
	frameBuffer      *video.FrameBuffer
	patternType      int
	animationCounter int
}

func NewTestPatternEmulator() *TestPatternEmulator {
	e := &TestPatternEmulator{frameBuffer: video.NewFrameBuffer()}
	e.generateTestPattern()
	return e
}

func (e *TestPatternEmulator) RunFrame() error {
	e.animationCounter++
	if e.animationCounter%display.TestPatternAnimationFrames == 0 {
		e.generateTestPattern()
	}
	return nil
}

func (e *TestPatternEmulator) Frame() *video.FrameBuffer {
	return e.frameBuffer
}

func (e *TestPatternEmulator) HandleAction(act action.Action, evt event.Type) {
	if act == action.EmulatorTestPatternCycle && evt == event.Press {
		e.CycleTestPattern()
	}
}

func (e *TestPatternEmulator) DebugData() *debug.CompleteDebugData {
	return &debug.CompleteDebugData{DebuggerState: debug.DebuggerRunning}
}

func (e *TestPatternEmulator) Pattern() int { return e.patternType }

func (e *TestPatternEmulator) CycleTestPattern() {
	e.patternType = (e.patternType + 1) % display.TestPatternCount
	e.generateTestPattern()
}

// generateTestPattern redraws the current pattern; stripes and diagonals scroll with
// the animation counter.
func (e *TestPatternEmulator) generateTestPattern() {
	step := e.animationCounter / display.TestPatternAnimationFrames
	for y := range video.FramebufferHeight {
		for x := range video.FramebufferWidth {
			e.frameBuffer.SetPixel(x, y, e.patternPixel(x, y, step))
		}
	}
}

func (e *TestPatternEmulator) patternPixel(x, y, step int) uint8 {
	switch e.patternType {
	case 0: // checkerboard
		if (x/display.TestPatternTileSize+y/display.TestPatternTileSize)%2 == 0 {
			return shadeWhite
		}
		return shadeBlack
	case 1: // gradient, darkest on the left
		return shadeBlack - uint8(x*4/video.FramebufferWidth)
	case 2: // vertical stripes
		if ((x+step*display.TestPatternStripeSpeed)/display.TestPatternStripeWidth)%2 == 0 {
			return shadeWhite
		}
		return shadeDark
	default: // diagonal lines
		if ((x+y+step*display.TestPatternDiagonalSpeed)/display.TestPatternTileSize)%2 == 0 {
			return shadeLight
		}
		return shadeDark
	}
}

var _ Emulator = (*TestPatternEmulator)(nil)
