package param

import (
	"math"
	"sync/atomic"
)

// Slot is a single-producer, single-consumer latest-value cell.
type Slot struct {
	bits atomic.Uint64
	seq  atomic.Uint64
}

// Store publishes v. Only one goroutine may store into a slot.
func (s *Slot) Store(v float64) {
	s.bits.Store(math.Float64bits(v))
	s.seq.Add(1)
}

// Load returns the latest value and its sequence number.
func (s *Slot) Load() (float64, uint64) {
	seq := s.seq.Load()
	return math.Float64frombits(s.bits.Load()), seq
}

// Bank holds one Slot per parameter plus the consumer's view of them.
type Bank struct {
	slots [Count]Slot
	seen  [Count]uint64 // consumer-owned
}

// Snapshot is one consumer-side view of all parameters.
type Snapshot struct {
	Values  [Count]float64
	Changed [Count]bool
}

// Any reports whether any value changed since the previous snapshot.
func (s Snapshot) Any() bool {
	for _, c := range s.Changed {
		if c {
			return true
		}
	}
	return false
}

// NewBank returns a bank holding every parameter's default. The defaults
// are reported as changed by the first Snapshot.
func NewBank() *Bank {
	b := &Bank{}
	for _, s := range specs {
		b.slots[s.ID].Store(s.Default)
	}
	return b
}

// Set clamps v to the parameter range and publishes it. Call it from the
// control thread only.
func (b *Bank) Set(id ID, v float64) error {
	spec, err := Lookup(id)
	if err != nil {
		return err
	}
	b.slots[id].Store(spec.Clamp(v))
	return nil
}

// Get returns the latest published value of id without affecting the
// consumer's change tracking.
func (b *Bank) Get(id ID) float64 {
	if id < 0 || int(id) >= Count {
		return math.NaN()
	}
	v, _ := b.slots[id].Load()
	return v
}

// Snapshot reads every slot once and marks values published since the
// previous Snapshot as changed. Call it from the audio thread only.
func (b *Bank) Snapshot() Snapshot {
	var snap Snapshot
	for i := range b.slots {
		v, seq := b.slots[i].Load()
		snap.Values[i] = v
		if seq != b.seen[i] {
			snap.Changed[i] = true
			b.seen[i] = seq
		}
	}
	return snap
}
