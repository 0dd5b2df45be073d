package emoo

import (
	"image"
	"log/slog"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/audio"
	"github.com/valerio/go-emoo/emoo/cpu"
	"github.com/valerio/go-emoo/emoo/debug"
	"github.com/valerio/go-emoo/emoo/input"
	"github.com/valerio/go-emoo/emoo/input/action"
	"github.com/valerio/go-emoo/emoo/input/event"
	"github.com/valerio/go-emoo/emoo/memory"
	"github.com/valerio/go-emoo/emoo/serial"
	"github.com/valerio/go-emoo/emoo/video"
)

// disasmLines is how many instructions the debug view shows around PC.
const disasmLines = 9

// DMG is one emulation session: the components of the handheld wired to a single bus and
// stepped together one dot at a time.
type DMG struct {
	cfg Config

	cpu    *cpu.CPU
	mmu    *memory.MMU
	ppu    *video.PPU
	apu    *audio.APU
	serial *serial.Port
	frames *video.FrameExchange
	trace  *debug.TraceWriter

	ticks  uint64
	paused bool
}

// New wires a session around cart. A nil cartridge runs with an empty slot.
func New(cart *memory.Cartridge, opts ...Option) *DMG {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &DMG{cfg: cfg}
	d.mmu = memory.New(cart, memory.WithClock(cfg.Clock), memory.WithLogger(cfg.Logger))
	d.frames = video.NewFrameExchange()
	d.ppu = video.NewPPU(d.mmu, d.frames)
	d.apu = audio.New(cfg.AudioSink,
		audio.WithSampleRate(cfg.SampleRate),
		audio.WithChunkFrames(cfg.ChunkFrames),
		audio.WithLogger(cfg.Logger))

	serialOpts := []serial.Option{serial.WithLogger(cfg.Logger)}
	if cfg.SerialOutput != nil {
		serialOpts = append(serialOpts, serial.WithOutput(cfg.SerialOutput))
	}
	if cfg.ImmediateSerial {
		serialOpts = append(serialOpts, serial.WithImmediateTransfer())
	}
	d.serial = serial.New(func() { d.mmu.RequestInterrupt(addr.SerialInterrupt) }, serialOpts...)

	d.mmu.AttachSerial(d.serial)
	d.mmu.AttachAudio(d.apu)

	cpuOpts := []cpu.Option{cpu.WithLogger(cfg.Logger)}
	if cfg.TraceOutput != nil {
		d.trace = debug.NewTraceWriter(cfg.TraceOutput, d.mmu)
		cpuOpts = append(cpuOpts, cpu.WithTracer(d.trace.Trace))
	}
	d.cpu = cpu.New(d.mmu, cpuOpts...)

	if h := d.mmu.Cartridge().Header; h.Title != "" {
		cfg.Logger.Info("Cartridge loaded", "title", h.Title, "mapper", h.Mapper, "rom_banks", h.ROMBanks, "ram", h.RAMSize)
	}
	return d
}

// Tick advances every component by one dot, in bus order.
func (d *DMG) Tick() {
	d.cpu.Tick()
	d.ppu.Tick()
	d.mmu.TickDMA()
	d.mmu.Timer.Tick()
	d.apu.Tick()
	d.serial.Tick()
	d.ticks++
}

// RunFrame ticks until the pixel pipeline publishes a frame. With the LCD off nothing is
// published, so it gives up after one frame's worth of dots.
func (d *DMG) RunFrame() error {
	start := d.frames.Frames()
	for range video.FrameDots {
		d.Tick()
		if d.frames.Frames() != start {
			break
		}
	}
	return nil
}

// Frame returns the last published frame.
func (d *DMG) Frame() *video.FrameBuffer {
	return d.frames.Latest()
}

func (d *DMG) Frames() *video.FrameExchange { return d.frames }

func (d *DMG) Palette() video.Palette { return d.cfg.Palette }

// Image returns the last published frame rendered through the session palette.
func (d *DMG) Image() *image.RGBA { return d.cfg.Palette.Image(d.frames.Latest()) }

// TileSheet renders the 384 tiles in VRAM through BGP and the session palette.
func (d *DMG) TileSheet() *image.RGBA {
	return debug.ExtractVRAMData(d.mmu).TileSheet(d.mmu.Peek(addr.BGP), d.cfg.Palette)
}

func (d *DMG) Ticks() uint64 { return d.ticks }

func (d *DMG) CPU() *cpu.CPU { return d.cpu }

func (d *DMG) MMU() *memory.MMU { return d.mmu }

func (d *DMG) PPU() *video.PPU { return d.ppu }

func (d *DMG) APU() *audio.APU { return d.apu }

func (d *DMG) Joypad() *memory.Joypad { return d.mmu.Joypad }

func (d *DMG) Cartridge() *memory.Cartridge { return d.mmu.Cartridge() }

// HandleAction presses or releases a console button. Other actions are ignored.
func (d *DMG) HandleAction(act action.Action, evt event.Type) {
	key, ok := input.JoypadKey(act)
	if !ok {
		return
	}
	switch evt {
	case event.Press:
		d.mmu.Joypad.Press(key)
	case event.Release:
		d.mmu.Joypad.Release(key)
	}
}

func (d *DMG) SetPaused(paused bool) { d.paused = paused }

// DebugData collects the state shown by debug panels.
func (d *DMG) DebugData() *debug.CompleteDebugData {
	regs := d.cpu.Registers()
	state := debug.DebuggerRunning
	if d.paused {
		state = debug.DebuggerPaused
	}
	return &debug.CompleteDebugData{
		CPU:             regs,
		Cycles:          d.cpu.Cycles(),
		Frames:          d.frames.Frames(),
		ROMBank:         d.mmu.ROMBank(),
		LY:              d.ppu.Line(),
		PPUMode:         d.ppu.Mode().String(),
		OAM:             debug.ExtractOAMData(d.mmu, int(d.ppu.Line())),
		Audio:           debug.ExtractAudioData(d.apu),
		Disassembly:     debug.CreateDisassembly(d.mmu, regs.PC, disasmLines),
		DebuggerState:   state,
		InterruptEnable: d.mmu.Peek(addr.IE),
		InterruptFlags:  d.mmu.Peek(addr.IF),
	}
}

// Close flushes the trace log and any partial serial line. Cartridge RAM is not written;
// use SaveRAM for that.
func (d *DMG) Close() error {
	d.serial.Flush()
	if d.trace != nil {
		return d.trace.Flush()
	}
	return nil
}
