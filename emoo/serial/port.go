// Package serial implements the link port as a one-way sink: outgoing bytes are captured
// and no partner ever answers.
package serial

import (
	"io"
	"log/slog"

	"github.com/valerio/go-emoo/emoo/addr"
	"github.com/valerio/go-emoo/emoo/bit"
)

// transferTicks is the duration of a byte transfer on the internal 8192 Hz clock.
const transferTicks = 4096

// Port implements SB/SC with the internal clock. Test ROMs print their results through
// it, so outgoing bytes are copied to an optional writer and logged line by line.
type Port struct {
	irqHandler     func()
	sb, sc         byte
	transferActive bool
	countdown      int
	logger         *slog.Logger
	out            io.Writer

	// settings
	immediate bool
	defaultRX byte // shifted in from the missing partner

	line []byte
}

type Option func(*Port)

// WithImmediateTransfer completes transfers as soon as they start instead of after the
// 4096 ticks a byte takes on hardware.
func WithImmediateTransfer() Option { return func(p *Port) { p.immediate = true } }

// WithOutput copies every transmitted byte to w.
func WithOutput(w io.Writer) Option { return func(p *Port) { p.out = w } }

func WithLogger(logger *slog.Logger) Option { return func(p *Port) { p.logger = logger } }

// New creates a link port. irq is called when a transfer completes and should request
// the Serial interrupt.
func New(irq func(), opts ...Option) *Port {
	p := &Port{
		irqHandler: irq,
		defaultRX:  0xFF,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

func (p *Port) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		p.sb = value
	case addr.SC:
		p.sc = value
		p.maybeStartTransfer()
	}
}

func (p *Port) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return p.sb
	case addr.SC:
		// only bits 7 and 0 exist on DMG
		return p.sc | 0x7E
	}
	return 0xFF
}

// Tick advances an active transfer by one tick.
func (p *Port) Tick() {
	if !p.transferActive {
		return
	}
	p.countdown--
	if p.countdown <= 0 {
		p.completeTransfer()
	}
}

func (p *Port) Reset() {
	p.sb = 0x00
	p.sc = 0x00
	p.transferActive = false
	p.countdown = 0
	p.line = p.line[:0]
}

func (p *Port) maybeStartTransfer() {
	if p.transferActive {
		return
	}
	// a transfer starts when bit 7 (start) and bit 0 (internal clock) of SC are set;
	// with the external clock selected nothing ever drives it
	if !bit.IsSet(7, p.sc) || !bit.IsSet(0, p.sc) {
		return
	}

	p.emit(p.sb)

	if p.immediate {
		p.completeTransfer()
		return
	}
	p.transferActive = true
	p.countdown = transferTicks
}

func (p *Port) emit(b byte) {
	if p.out != nil {
		if _, err := p.out.Write([]byte{b}); err != nil {
			p.logger.Warn("serial output failed, detaching writer", "error", err)
			p.out = nil
		}
	}

	// buffer until newline for readability
	if b == 0 || b == '\n' || b == '\r' {
		p.Flush()
		return
	}
	p.line = append(p.line, b)
}

// Flush logs any partial line.
func (p *Port) Flush() {
	if len(p.line) > 0 {
		p.logger.Info("serial", "line", string(p.line))
		p.line = p.line[:0]
	}
}

func (p *Port) completeTransfer() {
	p.sb = p.defaultRX
	p.sc = bit.Clear(7, p.sc)
	p.transferActive = false
	p.countdown = 0
	if p.irqHandler != nil {
		p.irqHandler()
	}
}

// State is the serialisable form of the port.
type State struct {
	SB, SC    byte
	Active    bool
	Countdown int
}

func (p *Port) State() State {
	return State{p.sb, p.sc, p.transferActive, p.countdown}
}

func (p *Port) Restore(s State) {
	p.sb, p.sc, p.transferActive, p.countdown = s.SB, s.SC, s.Active, s.Countdown
}
