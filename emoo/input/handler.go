package input

import (
	"time"

	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
)

// Debouncer filters repeated Press events for emulator actions. Terminals deliver key
// repeats as fresh presses, which would otherwise toggle pause several times per key hit.
type Debouncer struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
	now            func() time.Time
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  delay,
		now:            time.Now,
	}
}

// Allow returns true if the event should be handled, false if it was debounced.
// Game Boy buttons, releases and holds always pass.
func (d *Debouncer) Allow(act action.Action, evt event.Type) bool {
	if evt != event.Press || act.IsGameBoy() {
		return true
	}
	now := d.now()
	if lastTime, exists := d.lastActionTime[act]; exists && now.Sub(lastTime) < d.debounceDelay {
		return false
	}
	d.lastActionTime[act] = now
	return true
}
