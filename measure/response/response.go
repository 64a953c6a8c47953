package response

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-reversegate/dsp/core"
)

// DefaultThreshold is the absolute level above which a sample counts as an
// arrival.
const DefaultThreshold = 1e-9

// Errors returned by response functions.
var (
	ErrEmptyIR           = errors.New("response: impulse response is empty")
	ErrInvalidSampleRate = errors.New("response: sample rate must be positive")
	ErrInvalidLength     = errors.New("response: length must be positive")
	ErrNoArrivals        = errors.New("response: no sample above threshold")
)

// InPlaceProcessor processes a mono buffer in place.
type InPlaceProcessor interface {
	ProcessInPlace(buf []float64)
}

// Capture feeds a unit impulse followed by silence through p and returns
// the first n output samples. p keeps whatever state the impulse leaves
// behind.
func Capture(p InPlaceProcessor, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	buf := make([]float64, n)
	buf[0] = 1
	p.ProcessInPlace(buf)

	return buf, nil
}

// Arrival is one isolated non-zero sample of an impulse response.
type Arrival struct {
	Index     int
	Time      float64 // seconds
	Amplitude float64
}

// Metrics summarises an impulse response.
type Metrics struct {
	Peak      float64 // absolute maximum
	PeakDB    float64
	PeakIndex int
	Onset     int // first sample above threshold
	OnsetTime float64
	End       int // last sample above threshold
	EndTime   float64
	Energy    float64 // sum of squares
	Arrivals  int
}

// Spectrum is a one-sided magnitude response.
type Spectrum struct {
	Freqs     []float64 // Hz, bins 0..Nyquist
	Magnitude []float64
	DB        []float64
}

// Analyzer computes response metrics at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
	Threshold  float64
}

// NewAnalyzer creates an analyzer using DefaultThreshold.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate, Threshold: DefaultThreshold}
}

// Analyze computes peak, onset, extent and energy of ir.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if err := a.validate(ir); err != nil {
		return Metrics{}, err
	}

	arrivals := a.arrivals(ir)
	if len(arrivals) == 0 {
		return Metrics{}, ErrNoArrivals
	}

	peak := vecmath.MaxAbs(ir)
	m := Metrics{
		Peak:      peak,
		PeakDB:    core.LinearToDB(peak),
		PeakIndex: -1,
		Onset:     arrivals[0].Index,
		OnsetTime: arrivals[0].Time,
		End:       arrivals[len(arrivals)-1].Index,
		EndTime:   arrivals[len(arrivals)-1].Time,
		Energy:    vecmath.DotProduct(ir, ir),
		Arrivals:  len(arrivals),
	}

	for i, v := range ir {
		if math.Abs(v) == peak {
			m.PeakIndex = i
			break
		}
	}

	return m, nil
}

// Arrivals returns every sample of ir whose magnitude exceeds the analyzer
// threshold, in time order.
func (a *Analyzer) Arrivals(ir []float64) ([]Arrival, error) {
	if err := a.validate(ir); err != nil {
		return nil, err
	}

	return a.arrivals(ir), nil
}

// MagnitudeResponse returns the one-sided magnitude of the DFT of ir,
// zero-padded to the next power of two.
func (a *Analyzer) MagnitudeResponse(ir []float64) (Spectrum, error) {
	if err := a.validate(ir); err != nil {
		return Spectrum{}, err
	}

	fftSize := nextPowerOf2(len(ir))

	in := make([]complex128, fftSize)
	for i, v := range ir {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Spectrum{}, fmt.Errorf("response: fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Spectrum{}, fmt.Errorf("response: fft: %w", err)
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for k := range bins {
		re[k] = real(out[k])
		im[k] = imag(out[k])
	}

	s := Spectrum{
		Freqs:     make([]float64, bins),
		Magnitude: make([]float64, bins),
		DB:        make([]float64, bins),
	}
	vecmath.Magnitude(s.Magnitude, re, im)

	binHz := a.SampleRate / float64(fftSize)
	for k := range bins {
		s.Freqs[k] = float64(k) * binHz
		s.DB[k] = core.LinearToDB(s.Magnitude[k])
	}

	return s, nil
}

func (a *Analyzer) validate(ir []float64) error {
	if len(ir) == 0 {
		return ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	return nil
}

func (a *Analyzer) arrivals(ir []float64) []Arrival {
	var out []Arrival

	for i, v := range ir {
		if math.Abs(v) > a.Threshold {
			out = append(out, Arrival{
				Index:     i,
				Time:      float64(i) / a.SampleRate,
				Amplitude: v,
			})
		}
	}

	return out
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
