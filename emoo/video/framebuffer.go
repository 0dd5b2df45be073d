package video

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// FrameBuffer is a 160x144 frame of palette indices. Values 0-3 are background/window
// shades, 4-7 are shades drawn through OBP0 and 8-11 through OBP1.
type FrameBuffer struct {
	pixels [FramebufferWidth * FramebufferHeight]uint8
}

// NewFrameBuffer creates a blank frame.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (fb *FrameBuffer) GetPixel(x, y int) uint8 {
	return fb.pixels[y*FramebufferWidth+x]
}

func (fb *FrameBuffer) SetPixel(x, y int, index uint8) {
	fb.pixels[y*FramebufferWidth+x] = index
}

// Pixels exposes the frame in row-major order.
func (fb *FrameBuffer) Pixels() []uint8 {
	return fb.pixels[:]
}

// Clear resets every pixel to index 0.
func (fb *FrameBuffer) Clear() {
	fb.pixels = [FramebufferWidth * FramebufferHeight]uint8{}
}
