package input

import "github.com/valerio/go-emoo/emoo/input/action"

// defaultBindings lists the key names bound to each action. Names are backend neutral:
// single characters for printable keys, words for the rest.
var defaultBindings = []struct {
	action action.Action
	keys   []string
}{
	{action.GBButtonA, []string{"z"}},
	{action.GBButtonB, []string{"x"}},
	{action.GBButtonStart, []string{"Enter"}},
	{action.GBButtonSelect, []string{"Shift", "Select"}},
	{action.GBDPadUp, []string{"Up", "w"}},
	{action.GBDPadDown, []string{"Down", "s"}},
	{action.GBDPadLeft, []string{"Left", "a"}},
	{action.GBDPadRight, []string{"Right", "d"}},

	{action.EmulatorPauseToggle, []string{"Space", "p", "r"}},
	{action.EmulatorStepFrame, []string{"o", "f"}},
	{action.EmulatorSnapshot, []string{"F9"}},
	{action.EmulatorSaveState, []string{"F6"}},
	{action.EmulatorLoadState, []string{"F7"}},
	{action.EmulatorTestPatternCycle, []string{"t"}},
	{action.EmulatorQuit, []string{"Escape", "q"}},

	{action.AudioToggleChannel1, []string{"F1"}},
	{action.AudioToggleChannel2, []string{"F2"}},
	{action.AudioToggleChannel3, []string{"F3"}},
	{action.AudioToggleChannel4, []string{"F4"}},
	{action.AudioSoloChannel1, []string{"1"}},
	{action.AudioSoloChannel2, []string{"2"}},
	{action.AudioSoloChannel3, []string{"3"}},
	{action.AudioSoloChannel4, []string{"4"}},
	{action.AudioUnmuteAll, []string{"0"}},
}

// DefaultKeyMap maps key names to actions. Backends translate their own key codes to
// these names and may add bindings of their own.
var DefaultKeyMap = buildDefaultKeyMap()

func buildDefaultKeyMap() map[string]action.Action {
	m := make(map[string]action.Action)
	for _, b := range defaultBindings {
		for _, key := range b.keys {
			m[key] = b.action
		}
	}
	return m
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (action.Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}
