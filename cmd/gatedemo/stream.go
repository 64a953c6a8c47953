package main

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-reversegate/dsp/processor"
)

// stream renders interleaved float32 little-endian frames for the audio
// device. Read runs on the device goroutine and is the only caller of
// ProcessBlock.
type stream struct {
	proc  *processor.Processor
	src   *drumLoop
	block int

	scratch [][]float64
	views   [][]float64
}

func newStream(proc *processor.Processor, src *drumLoop, channels, block int) *stream {
	s := &stream{
		proc:    proc,
		src:     src,
		block:   block,
		scratch: make([][]float64, channels),
		views:   make([][]float64, channels),
	}
	for ch := range s.scratch {
		s.scratch[ch] = make([]float64, block)
	}

	return s
}

func (s *stream) Read(p []byte) (int, error) {
	frameBytes := 4 * len(s.scratch)
	frames := len(p) / frameBytes
	n := 0

	for done := 0; done < frames; {
		m := min(s.block, frames-done)
		for ch := range s.views {
			s.views[ch] = s.scratch[ch][:m]
		}

		s.src.Fill(s.views[0])
		for ch := 1; ch < len(s.views); ch++ {
			copy(s.views[ch], s.views[0])
		}

		s.proc.ProcessBlock(s.views)

		for i := 0; i < m; i++ {
			for ch := range s.views {
				binary.LittleEndian.PutUint32(p[n:], math.Float32bits(float32(s.views[ch][i])))
				n += 4
			}
		}
		done += m
	}

	return n, nil
}
