package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reversegate/dsp/effects/reversegate"
	"github.com/cwbudde/algo-reversegate/dsp/param"
	"github.com/cwbudde/algo-reversegate/measure/response"
)

var octaveFrequencies = []float64{31.25, 62.5, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

func run(w io.Writer, o options) error {
	if o.listParams {
		return printParams(w)
	}

	if o.cpu {
		if err := printCPU(w); err != nil {
			return err
		}
	}

	ch, err := reversegate.NewChannel(o.sampleRate,
		reversegate.WithBounds(o.bounds),
		reversegate.WithParams(o.params),
	)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "run",
		"sample_rate": o.sampleRate,
		"delay_ms":    o.params.DelayTime,
		"room_ms":     o.params.RoomSize,
		"history":     ch.HistoryLen(),
	}).Debug("Created channel")

	if err := printTaps(w, ch.Geometry(), o); err != nil {
		return err
	}

	if !o.arrivals && !o.response {
		return nil
	}

	// The last tap sits at most MaxOffset samples after the impulse.
	h, err := response.Capture(ch, ch.Geometry().MaxOffset+1)
	if err != nil {
		return err
	}

	a := response.NewAnalyzer(o.sampleRate)

	if o.arrivals {
		if err := printArrivals(w, a, h); err != nil {
			return err
		}
	}

	if o.response {
		return printResponse(w, a, h)
	}

	return nil
}

func printParams(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Parameter\tMin\tMax\tDefault\tStep\tUnit\n")
	fmt.Fprintf(tw, "---------\t---\t---\t-------\t----\t----\n")

	for _, s := range param.Specs() {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%s\n", s.Name, s.Min, s.Max, s.Default, s.Step, s.Unit)
	}

	return tw.Flush()
}

func printCPU(w io.Writer) error {
	f := cpu.DetectFeatures()

	_, err := fmt.Fprintf(w, "CPU: %s  SSE2=%t AVX=%t AVX2=%t NEON=%t\n\n",
		f.Architecture, f.HasSSE2, f.HasAVX, f.HasAVX2, f.HasNEON)

	return err
}

func printTaps(w io.Writer, g reversegate.Geometry, o options) error {
	fmt.Fprintf(w, "Sample rate %.0f Hz, delay %.2f ms, room %.2f ms, history %d samples\n\n",
		o.sampleRate, o.params.DelayTime, o.params.RoomSize, g.MaxOffset+1)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Tap\tBase [ms]\tOffset [samples]\tTime [ms]\tWeight\t\n")

	for i, off := range g.Offsets {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.3f\t%.2f\t\n",
			i+1, reversegate.BaseOffsets[i], off, 1000*float64(off)/o.sampleRate, g.Weights[i])
	}

	return tw.Flush()
}

func printArrivals(w io.Writer, a *response.Analyzer, h []float64) error {
	m, err := a.Analyze(h)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "\nImpulse response: %d arrivals from %.2f ms to %.2f ms, peak %.2f dB at %.2f ms, energy %.4f\n",
		m.Arrivals, 1000*m.OnsetTime, 1000*m.EndTime, m.PeakDB, 1000*float64(m.PeakIndex)/a.SampleRate, m.Energy)

	return err
}

func printResponse(w io.Writer, a *response.Analyzer, h []float64) error {
	s, err := a.MagnitudeResponse(h)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nMagnitude response:\n")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Freq [Hz]\tLevel [dB]\t\n")

	binHz := s.Freqs[1]
	for _, f := range octaveFrequencies {
		k := int(math.Round(f / binHz))
		if k >= len(s.DB) {
			break
		}
		fmt.Fprintf(tw, "%.0f\t%.2f\t\n", f, s.DB[k])
	}

	return tw.Flush()
}
