package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-emoo/emoo/backend"
	"github.com/valerio/go-emoo/emoo/backend/terminal/render"
	"github.com/valerio/go-emoo/emoo/input"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	debugPanelHeight = 26
	minTermWidth     = width + 2
	minTermHeight    = height/2 + 2
	logCapacity      = 200
)

// Key expiry timeout - slightly longer than typical key repeat interval. Terminals only
// report presses, so a button counts as held while repeats keep arriving.
const keyTimeout = 100 * time.Millisecond

// Backend renders frames with half-block characters in a terminal using tcell, with a
// side panel for debug data and recent logs.
type Backend struct {
	screen    tcell.Screen
	logBuffer *render.LogBuffer
	logLevel  slog.Level
	config    backend.BackendConfig
	palette   [12]tcell.Color

	mu         sync.Mutex
	eventQueue []backend.InputEvent // non-button events, also fed by the signal handler

	keyStates map[action.Action]time.Time // last time each button was reported
	buttons   *backend.ActionTracker

	stopSignals chan struct{}
	now         func() time.Time

	// prevLogger is the default logger replaced while the screen is active
	prevLogger *slog.Logger
}

// New creates a new terminal backend
func New() *Backend {
	return &Backend{
		logLevel: slog.LevelInfo,
		now:      time.Now,
	}
}

// newWithScreen uses the given screen instead of the real terminal.
func newWithScreen(screen tcell.Screen) *Backend {
	b := New()
	b.screen = screen
	return b
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.keyStates = make(map[action.Action]time.Time)
	t.buttons = backend.NewActionTracker()

	palette := config.Palette
	if palette == (video.Palette{}) {
		palette = video.DefaultPalette
	}
	for i, c := range palette {
		t.palette[i] = tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// logs go to the side panel while the screen is owned by tcell
	t.logBuffer = render.NewLogBuffer(logCapacity)
	t.prevLogger = slog.Default()
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))
	slog.Info("Terminal backend initialized", "title", config.Title)

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.stopSignals = make(chan struct{})
	go t.handleSignals(t.stopSignals)

	return nil
}

// Update renders a frame and returns the input collected since the last call.
func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.buttonEvents(now)

	t.mu.Lock()
	events = append(events, t.eventQueue...)
	t.eventQueue = nil
	t.mu.Unlock()

	t.render(frame)
	t.screen.Show()

	return events, nil
}

// buttonEvents turns the key timestamps into press, hold and release events.
func (t *Backend) buttonEvents(now time.Time) []backend.InputEvent {
	current := make(map[action.Action]bool, len(t.keyStates))
	for act, lastPressed := range t.keyStates {
		if now.Sub(lastPressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		current[act] = true
	}
	return t.buttons.Update(current)
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.stopSignals != nil {
		close(t.stopSignals)
		t.stopSignals = nil
	}
	if t.screen != nil {
		t.screen.Fini()
		t.screen = nil
	}
	if t.prevLogger != nil {
		slog.SetDefault(t.prevLogger)
		t.prevLogger = nil
	}
	return nil
}

func (t *Backend) handleSignals(stop <-chan struct{}) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(signals)

	select {
	case <-signals:
		t.queue(action.EmulatorQuit)
		if t.config.Callbacks.OnQuit != nil {
			t.config.Callbacks.OnQuit()
		}
	case <-stop:
	}
}

func (t *Backend) queue(act action.Action) {
	t.mu.Lock()
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
	t.mu.Unlock()
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	if ev.Key() == tcell.KeyRune {
		if t.handleLocalRune(ev.Rune()) {
			return
		}
		if act, ok := runeMapping[ev.Rune()]; ok {
			t.processAction(act, now)
		}
		return
	}
	if act, ok := keyMapping[ev.Key()]; ok {
		t.processAction(act, now)
	}
}

func (t *Backend) processAction(act action.Action, now time.Time) {
	if !act.IsGameBoy() {
		t.queue(act)
		return
	}
	if isDPad(act) {
		// a terminal only repeats the last key, so directions are exclusive
		for _, d := range []action.Action{action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight} {
			delete(t.keyStates, d)
		}
	}
	t.keyStates[act] = now
}

func isDPad(act action.Action) bool {
	return act >= action.GBDPadUp && act <= action.GBDPadRight
}

// handleLocalRune handles keys that only affect the terminal display.
func (t *Backend) handleLocalRune(r rune) bool {
	switch r {
	case 'i':
		t.config.ShowDebug = !t.config.ShowDebug
	case '+', '=':
		t.changeLogLevel(1)
	case '-', '_':
		t.changeLogLevel(-1)
	default:
		return false
	}
	return true
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF1:     "F1",
	tcell.KeyF2:     "F2",
	tcell.KeyF3:     "F3",
	tcell.KeyF4:     "F4",
	tcell.KeyF6:     "F6",
	tcell.KeyF7:     "F7",
	tcell.KeyF9:     "F9",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, keyName := range tcellKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}
	mapping[tcell.KeyCtrlC] = action.EmulatorQuit
	// terminals cannot report Shift on its own
	mapping[tcell.KeyBackspace2] = action.GBButtonSelect
	return mapping
}

// buildRuneMapping creates the rune mapping from the single-character default keys
func buildRuneMapping() map[rune]action.Action {
	mapping := make(map[rune]action.Action)
	for keyName, act := range input.DefaultKeyMap {
		if r := []rune(keyName); len(r) == 1 {
			mapping[r[0]] = act
		}
	}
	mapping[' '] = action.EmulatorPauseToggle
	return mapping
}

var (
	keyMapping  = buildKeyMapping()
	runeMapping = buildRuneMapping()
)

func (t *Backend) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug}
	for i, l := range levels {
		if l != t.logLevel {
			continue
		}
		next := i + direction
		if next >= 0 && next < len(levels) {
			slog.Info("Log filter changed", "from", t.logLevel, "to", levels[next])
			t.logLevel = levels[next]
		}
		return
	}
}

func (t *Backend) render(frame *video.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	dividerX := width + 1
	panelX := dividerX + 2
	panelWidth := termWidth - panelX

	t.drawBorders(termHeight, dividerX)
	t.drawGameBoy(frame)

	logsY := 1
	if t.config.ShowDebug && t.config.Callbacks.DebugData != nil {
		logsY = t.drawDebug(panelX, 1, panelWidth, min(debugPanelHeight, termHeight-2)) + 2
	}
	t.drawLogs(panelX, logsY, panelWidth, termHeight)
}

func (t *Backend) drawBorders(termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := range termHeight {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	title := t.config.Title
	if title == "" {
		title = "Game Boy"
	}
	t.drawText(1, 0, dividerX-1, " "+title+" ", titleStyle)
}

// drawGameBoy packs two frame rows into each terminal row: the upper half block takes
// the top pixel as foreground and the bottom pixel as background.
func (t *Backend) drawGameBoy(frame *video.FrameBuffer) {
	for y := 0; y < height; y += 2 {
		for x := range width {
			top := t.palette[frame.GetPixel(x, y)%12]
			bottom := t.palette[frame.GetPixel(x, y+1)%12]
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			t.screen.SetContent(x, y/2+1, render.HalfBlock, nil, style)
		}
	}
}

// drawDebug writes the debug lines and returns the last row used.
func (t *Backend) drawDebug(x, y, w, maxLines int) int {
	data := t.config.Callbacks.DebugData()
	if data == nil || w <= 0 {
		return y
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	lines := data.FormatLines()
	for i, line := range lines {
		if i >= maxLines {
			break
		}
		t.drawText(x, y+i, w, line, style)
	}
	return y + min(len(lines), maxLines)
}

func (t *Backend) drawLogs(startX, startY, w, termHeight int) {
	available := termHeight - startY - 1
	if w <= 0 || available <= 0 {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}

	row := 0
	for _, entry := range t.logBuffer.GetRecent(0) {
		if row >= available {
			break
		}
		if entry.Level < t.logLevel {
			continue
		}
		t.drawText(startX, startY+row, w, render.FormatLogEntry(entry), styles[entry.Level])
		row++
	}
}

// drawText writes s at (x, y), truncated to w cells.
func (t *Backend) drawText(x, y, w int, s string, style tcell.Style) {
	runes := []rune(s)
	if len(runes) > w {
		if w > 3 {
			runes = append(runes[:w-3], '.', '.', '.')
		} else {
			runes = runes[:max(w, 0)]
		}
	}
	for i, r := range runes {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}
