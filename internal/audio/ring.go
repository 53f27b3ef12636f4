package audio

import "sync"

// SampleRing is a thread-safe circular buffer of mono samples. The audio side
// writes, the render loop reads the newest window.
type SampleRing struct {
	mu     sync.Mutex
	buf    []float64
	w      int
	filled int
}

// NewSampleRing creates a ring holding size samples.
func NewSampleRing(size int) *SampleRing {
	return &SampleRing{buf: make([]float64, size)}
}

// Write appends samples, overwriting the oldest ones when full.
func (r *SampleRing) Write(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.buf[r.w] = s
		r.w = (r.w + 1) % len(r.buf)
	}
	r.filled = min(r.filled+len(samples), len(r.buf))
}

// Latest copies the newest len(dst) samples into dst, oldest first, zero-padding
// the front when fewer are available. It returns the number of real samples.
func (r *SampleRing) Latest(dst []float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(len(dst), r.filled)
	pad := len(dst) - n
	clear(dst[:pad])

	start := (r.w - n + len(r.buf)) % len(r.buf)
	for i := range n {
		dst[pad+i] = r.buf[(start+i)%len(r.buf)]
	}
	return n
}
