package main

import (
	"context"
	"math"
	"time"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-reversegate/dsp/processor"
)

type stats struct {
	seconds    float64
	peak       float64
	rms        float64
	recomputes uint64
	failures   uint64
}

// renderOffline processes cfg.duration of the loop without a device. With
// sweeping enabled the sweep advances at the same block-time rate it would
// during playback; otherwise the whole buffer goes through Render at once.
func renderOffline(ctx context.Context, cfg config, proc *processor.Processor, src *drumLoop) (stats, error) {
	duration := cfg.duration
	if duration <= 0 {
		duration = 10 * time.Second
	}

	n := int(duration.Seconds() * float64(cfg.sampleRate))
	bufs := make([][]float64, cfg.channels)
	for ch := range bufs {
		bufs[ch] = make([]float64, n)
	}

	src.Fill(bufs[0])
	for ch := 1; ch < len(bufs); ch++ {
		copy(bufs[ch], bufs[0])
	}

	if cfg.sweep > 0 {
		if err := renderSwept(ctx, cfg, proc, bufs); err != nil {
			return stats{}, err
		}
	} else if err := proc.Render(ctx, bufs); err != nil {
		return stats{}, err
	}

	st := stats{
		seconds:    float64(n) / float64(cfg.sampleRate),
		recomputes: proc.Channel(0).Recomputes(),
		failures:   proc.Failures(),
	}
	var energy float64
	for _, buf := range bufs {
		if len(buf) == 0 {
			continue
		}
		st.peak = math.Max(st.peak, vecmath.MaxAbs(buf))
		energy += vecmath.DotProduct(buf, buf)
	}
	if total := n * len(bufs); total > 0 {
		st.rms = math.Sqrt(energy / float64(total))
	}

	return st, nil
}

func renderSwept(ctx context.Context, cfg config, proc *processor.Processor, bufs [][]float64) error {
	s := &sweeper{proc: proc}
	n := len(bufs[0])
	sweepEvery := int(cfg.sweep.Seconds() * float64(cfg.sampleRate))
	nextSweep := sweepEvery
	views := make([][]float64, len(bufs))

	for start := 0; start < n; start += cfg.blockSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		if start >= nextSweep {
			if _, _, err := s.advance(); err != nil {
				return err
			}
			nextSweep += sweepEvery
		}

		end := min(start+cfg.blockSize, n)
		for ch := range bufs {
			views[ch] = bufs[ch][start:end]
		}
		proc.ProcessBlock(views)
	}

	return nil
}
