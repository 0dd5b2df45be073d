package input

import (
	"time"

	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/memory"
)

const (
	// debounceDuration is the minimum time between debounced events
	debounceDuration = 300 * time.Millisecond
)

// Manager routes input actions: console buttons go to the joypad when one is attached,
// everything else to registered callbacks.
type Manager struct {
	handlers  map[action.Action]map[event.Type][]func()
	debouncer *Debouncer
	joypad    *memory.Joypad
}

func NewManager(j *memory.Joypad) *Manager {
	return &Manager{
		handlers:  make(map[action.Action]map[event.Type][]func()),
		debouncer: NewDebouncer(debounceDuration),
		joypad:    j,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if !m.debouncer.Allow(act, evt) {
		return
	}

	// without a joypad, buttons are delivered to callbacks like any other action
	if key, ok := JoypadKey(act); ok && m.joypad != nil {
		switch evt {
		case event.Press:
			m.joypad.Press(key)
		case event.Release:
			m.joypad.Release(key)
		}
		return
	}

	for _, callback := range m.handlers[act][evt] {
		callback()
	}
}

// JoypadKey maps a console button action to its joypad key.
func JoypadKey(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	}
	return 0, false
}
