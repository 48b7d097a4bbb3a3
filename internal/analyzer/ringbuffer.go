package analyzer

import "sync"

// sampleRing is a thread-safe circular buffer of interleaved int16 samples.
// Writers may outpace readers; only the most recent samples are retained.
type sampleRing struct {
	buf  []int16
	size int
	w    int
	len  int
	mu   sync.Mutex
}

func newSampleRing(size int) *sampleRing {
	return &sampleRing{
		buf:  make([]int16, size),
		size: size,
	}
}

// Write appends samples, overwriting the oldest data when full.
func (r *sampleRing) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.buf[r.w] = s
		r.w = (r.w + 1) % r.size
	}
	r.len += len(samples)
	if r.len > r.size {
		r.len = r.size
	}
}

// ReadLast copies the n most recent samples into dst's tail; older slots are
// zero-filled when fewer than n samples have been written. len(dst) == n.
func (r *sampleRing) ReadLast(dst []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(dst)
	avail := n
	if avail > r.len {
		avail = r.len
	}
	for i := 0; i < n-avail; i++ {
		dst[i] = 0
	}
	start := (r.w - avail + r.size) % r.size
	for i := 0; i < avail; i++ {
		dst[n-avail+i] = r.buf[(start+i)%r.size]
	}
}

// Clear drops all buffered samples.
func (r *sampleRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = 0
	r.len = 0
}
