package backend

import (
	"maps"
	"slices"

	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
)

// ActionTracker turns snapshots of which actions are active into input events. Console
// buttons get Press, Hold and Release; other actions only fire a Press on the rising edge.
type ActionTracker struct {
	active map[action.Action]bool
}

func NewActionTracker() *ActionTracker {
	return &ActionTracker{active: make(map[action.Action]bool)}
}

// Update compares current with the previous call and returns the resulting events,
// ordered by action.
func (t *ActionTracker) Update(current map[action.Action]bool) []InputEvent {
	seen := maps.Clone(t.active)
	for act, on := range current {
		if on {
			seen[act] = true
		}
	}

	var events []InputEvent
	next := make(map[action.Action]bool, len(current))
	for _, act := range slices.Sorted(maps.Keys(seen)) {
		was, is := t.active[act], current[act]
		switch {
		case is && !was:
			events = append(events, InputEvent{Action: act, Type: event.Press})
		case is && was && act.IsGameBoy():
			events = append(events, InputEvent{Action: act, Type: event.Hold})
		case !is && was && act.IsGameBoy():
			events = append(events, InputEvent{Action: act, Type: event.Release})
		}
		if is {
			next[act] = true
		}
	}
	t.active = next
	return events
}

// Reset forgets every active action without emitting releases.
func (t *ActionTracker) Reset() {
	clear(t.active)
}
