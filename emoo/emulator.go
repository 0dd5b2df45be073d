package emoo

import (
	"github.com/valerio/go-emoo/emoo/debug"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/video"
)

// Emulator is what the run loop drives: something that produces one frame per call.
type Emulator interface {
	RunFrame() error
	Frame() *video.FrameBuffer
	HandleAction(act action.Action, evt event.Type)
	DebugData() *debug.CompleteDebugData
}

var _ Emulator = (*DMG)(nil)
