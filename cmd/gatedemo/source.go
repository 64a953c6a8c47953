package main

import "math"

// drumLoop is a deterministic four-step pattern of decaying sine hits.
type drumLoop struct {
	sampleRate float64
	step       int // samples per step
	pos        int
}

var drumPattern = [4]struct {
	freq, decay, gain float64
}{
	{55, 0.12, 0.9},
	{180, 0.04, 0.5},
	{110, 0.08, 0.7},
	{180, 0.04, 0.5},
}

// newDrumLoop plays one hit every quarter note at 120 BPM.
func newDrumLoop(sampleRate float64) *drumLoop {
	return &drumLoop{sampleRate: sampleRate, step: int(sampleRate / 2)}
}

// Fill writes the next len(buf) samples.
func (d *drumLoop) Fill(buf []float64) {
	for i := range buf {
		hit := drumPattern[(d.pos/d.step)%len(drumPattern)]
		t := float64(d.pos%d.step) / d.sampleRate
		buf[i] = hit.gain * math.Exp(-t/hit.decay) * math.Sin(2*math.Pi*hit.freq*t)
		d.pos++
	}
}
