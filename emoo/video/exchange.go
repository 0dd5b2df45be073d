package video

import "sync/atomic"

// FrameExchange hands completed frames from the pixel pipeline to a presentation
// goroutine. Published frames are never written again, so a reader can keep the pointer
// returned by Latest for as long as it likes.
type FrameExchange struct {
	front  atomic.Pointer[FrameBuffer]
	frames atomic.Uint64
}

func NewFrameExchange() *FrameExchange {
	e := &FrameExchange{}
	e.front.Store(NewFrameBuffer())
	return e
}

// Publish makes a copy of back visible to readers.
func (e *FrameExchange) Publish(back *FrameBuffer) {
	frame := *back
	e.front.Store(&frame)
	e.frames.Add(1)
}

// Latest returns the most recently published frame.
func (e *FrameExchange) Latest() *FrameBuffer {
	return e.front.Load()
}

// Frames returns how many frames have been published.
func (e *FrameExchange) Frames() uint64 {
	return e.frames.Load()
}
