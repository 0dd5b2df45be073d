package speaker

// ring is a fixed size sample queue that overwrites the oldest samples when full.
type ring struct {
	buf   []int16
	start int
	size  int
}

func newRing(capacity int) *ring {
	if capacity < 2 {
		capacity = 2
	}
	return &ring{buf: make([]int16, capacity)}
}

func (r *ring) write(samples []int16) {
	for _, s := range samples {
		end := (r.start + r.size) % len(r.buf)
		r.buf[end] = s
		if r.size == len(r.buf) {
			r.start = (r.start + 1) % len(r.buf)
		} else {
			r.size++
		}
	}
}

// read fills dst and returns how many queued samples were used. The rest of dst is
// zeroed.
func (r *ring) read(dst []int16) int {
	n := min(len(dst), r.size)
	for i := range n {
		dst[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	clear(dst[n:])
	r.start = (r.start + n) % len(r.buf)
	r.size -= n
	return n
}

func (r *ring) len() int { return r.size }
