package delay

import (
	"fmt"

	"github.com/cwbudde/algo-reversegate/dsp/core"
)

// History is a ring buffer of past samples, newest first.
type History struct {
	buffer []float64
	head   int // index of the newest sample
	snap   float64
}

// Option configures a History.
type Option func(*History)

// WithSnapThreshold sets the magnitude below which pushed samples are stored
// as exact zero. A threshold <= 0 disables snapping.
func WithSnapThreshold(threshold float64) Option {
	return func(h *History) {
		if threshold < 0 {
			threshold = 0
		}
		h.snap = threshold
	}
}

// NewHistory returns a zero-filled history able to address offsets
// 0..maxOffset.
func NewHistory(maxOffset int, opts ...Option) (*History, error) {
	if maxOffset < 0 {
		return nil, fmt.Errorf("delay: max offset must be >= 0: %d", maxOffset)
	}

	h := &History{
		buffer: make([]float64, maxOffset+1),
		snap:   core.DefaultSnapThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Len returns the number of addressable samples.
func (h *History) Len() int {
	return len(h.buffer)
}

// Push stores sample as the newest entry, dropping the oldest one.
func (h *History) Push(sample float64) {
	if h.snap > 0 {
		sample = core.SnapToZero(sample, h.snap)
	}

	h.head--
	if h.head < 0 {
		h.head = len(h.buffer) - 1
	}
	h.buffer[h.head] = sample
}

// At returns the sample pushed offset calls ago. It panics when offset is
// outside [0, Len()).
func (h *History) At(offset int) float64 {
	size := len(h.buffer)
	if offset < 0 || offset >= size {
		panic(fmt.Sprintf("delay: history offset %d out of range [0, %d)", offset, size))
	}

	idx := h.head + offset
	if idx >= size {
		idx -= size
	}
	return h.buffer[idx]
}

// EnsureCapacity grows the history so offsets up to maxOffset are
// addressable. Existing samples keep their offsets and the new, older
// positions read as zero. It never shrinks and is a no-op when the capacity
// already suffices.
func (h *History) EnsureCapacity(maxOffset int) {
	need := maxOffset + 1
	size := len(h.buffer)
	if need <= size {
		return
	}

	grown := make([]float64, need)
	// Unroll the ring so the newest sample lands at index 0.
	n := copy(grown, h.buffer[h.head:])
	copy(grown[n:], h.buffer[:h.head])

	h.buffer = grown
	h.head = 0
}

// Reset clears all stored samples without changing capacity.
func (h *History) Reset() {
	core.Zero(h.buffer)
	h.head = 0
}
