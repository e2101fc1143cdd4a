package tracking

// Sample is a single timestamped position. Timestamps are host seconds.
type Sample struct {
	Position  Vec3
	Timestamp float64
}

// History is a fixed-capacity ring buffer of samples ordered oldest to newest.
// Pushing onto a full history overwrites the oldest sample; it never grows.
type History struct {
	buf   []Sample
	start int // index of the oldest sample
	n     int
}

// NewHistory allocates a ring buffer holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Sample, capacity)}
}

// Len returns the number of samples held.
func (h *History) Len() int { return h.n }

// Cap returns the fixed capacity.
func (h *History) Cap() int { return len(h.buf) }

// Push appends s as the newest sample, evicting the oldest when full.
func (h *History) Push(s Sample) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

// At returns the i-th sample, 0 being the oldest. It panics when out of range.
func (h *History) At(i int) Sample {
	if i < 0 || i >= h.n {
		panic("tracking: history index out of range")
	}
	return h.buf[(h.start+i)%len(h.buf)]
}

// Newest returns the most recent sample.
func (h *History) Newest() (Sample, bool) {
	if h.n == 0 {
		return Sample{}, false
	}
	return h.At(h.n - 1), true
}

// DropBefore evicts samples with Timestamp < cutoff, oldest first, and
// returns how many were removed. The newest sample is always kept.
func (h *History) DropBefore(cutoff float64) int {
	dropped := 0
	for h.n > 1 && h.buf[h.start].Timestamp < cutoff {
		h.buf[h.start] = Sample{}
		h.start = (h.start + 1) % len(h.buf)
		h.n--
		dropped++
	}
	return dropped
}

// Samples returns a copy of the held samples, oldest first.
func (h *History) Samples() []Sample {
	out := make([]Sample, h.n)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}

// Clone returns an independent copy with the same capacity.
func (h *History) Clone() *History {
	c := &History{buf: make([]Sample, len(h.buf)), n: h.n}
	for i := 0; i < h.n; i++ {
		c.buf[i] = h.At(i)
	}
	return c
}
