package backend

import (
	"github.com/valerio/go-emoo/emoo/debug"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/video"
)

// Backend represents a complete emulator platform (rendering + input).
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, window, files)
// - Translating platform-specific input into InputEvents
// - Handling backend-specific features (snapshots, debug panels)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update renders the frame and returns the input collected since the last call.
	// Backends should:
	// 1. Poll for platform-specific events (keyboard, window events, etc.)
	// 2. Translate them into InputEvents
	// 3. Render the provided frame
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// InputEvent is one action reported by a backend.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title     string
	Scale     int
	Palette   video.Palette
	ShowDebug bool             // Backends may ignore unsupported features
	Callbacks BackendCallbacks // Callbacks for backend communication
}

// BackendCallbacks allows backends to communicate with the emulator
type BackendCallbacks struct {
	// OnQuit is called when the backend requests shutdown (e.g. window close)
	OnQuit func()

	// DebugData supplies the contents of debug panels (optional)
	DebugData func() *debug.CompleteDebugData
}
