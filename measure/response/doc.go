// Package response inspects the impulse and frequency response of sparse
// multi-tap effects.
//
// A tapped delay has an impulse response made of isolated arrivals, one per
// tap. Capture records that response from any in-place processor, Arrivals
// lists the individual taps, and MagnitudeResponse shows the comb filtering
// the taps produce when they overlap with the dry signal.
//
// # Usage
//
//	ch, _ := reversegate.NewChannel(48000, reversegate.WithParams(p))
//	h, _ := response.Capture(ch, 48000)
//	metrics, _ := response.NewAnalyzer(48000).Analyze(h)
//	fmt.Printf("first arrival at %.1f ms\n", 1000*metrics.OnsetTime)
package response
