package reversegate

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-reversegate/dsp/core"
	"github.com/cwbudde/algo-reversegate/dsp/delay"
)

const fadeSeconds = 0.05

// Errors returned by Channel construction and setters.
var (
	ErrInvalidSampleRate = errors.New("reversegate: sample rate must be > 0")
	ErrInvalidBounds     = errors.New("reversegate: bounds must be finite and >= 0")
	ErrOutOfRange        = errors.New("reversegate: parameter out of range")
)

// Params is one snapshot of the user parameters. DelayTime and RoomSize are
// in ms, Mix (wet fraction) and Volume in [0, 1].
type Params struct {
	DelayTime float64
	RoomSize  float64
	Mix       float64
	Volume    float64
}

// DefaultParams returns the stock parameter values.
func DefaultParams() Params {
	return Params{DelayTime: 30, RoomSize: 15, Mix: 0.5, Volume: 0.8}
}

type config struct {
	bounds Bounds
	params Params
}

// Option configures a Channel.
type Option func(*config)

// WithBounds sets the parameter maxima used to size the history.
func WithBounds(b Bounds) Option {
	return func(c *config) { c.bounds = b }
}

// WithParams sets the initial parameters. They take effect immediately,
// without a fade.
func WithParams(p Params) Option {
	return func(c *config) { c.params = p }
}

// Channel is the per-channel delay engine.
type Channel struct {
	sampleRate float64
	bounds     Bounds
	params     Params

	geometry   Geometry
	history    *delay.History
	fade       Fade
	recomputes uint64

	taps [TapCount]float64
}

// NewChannel creates an engine for one audio channel.
func NewChannel(sampleRate float64, opts ...Option) (*Channel, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	cfg := config{bounds: DefaultBounds(), params: DefaultParams()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateBounds(cfg.bounds); err != nil {
		return nil, err
	}
	if err := validateParams(cfg.params, cfg.bounds); err != nil {
		return nil, err
	}

	history, err := delay.NewHistory(MaxOffset(sampleRate, cfg.bounds))
	if err != nil {
		return nil, fmt.Errorf("reversegate: create history: %w", err)
	}

	c := &Channel{
		sampleRate: sampleRate,
		bounds:     cfg.bounds,
		params:     cfg.params,
		history:    history,
		fade:       NewFade(fadeLength(sampleRate)),
	}
	c.geometry = Recompute(c.params.DelayTime, c.params.RoomSize, sampleRate, c.bounds)
	return c, nil
}

// ProcessSample processes one sample.
func (c *Channel) ProcessSample(input float64) float64 {
	next, gain, swap := c.fade.Step()
	c.fade = next
	if swap {
		c.swapGeometry()
	}

	c.history.Push(input)

	for i, offset := range c.geometry.Offsets {
		c.taps[i] = c.history.At(offset)
	}
	wet := gain * vecmath.DotProduct(c.taps[:], c.geometry.Weights[:])
	if wet > 1 {
		wet = 1
	} else if wet < -1 {
		wet = -1
	}

	mix := c.params.Mix
	return ((1-mix)*input + mix*wet) * c.params.Volume
}

// ProcessInPlace processes buf in place.
func (c *Channel) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// Process writes the processed src into dst and returns the number of
// samples processed, min(len(dst), len(src)).
func (c *Channel) Process(dst, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] = c.ProcessSample(src[i])
	}
	return n
}

// SetDelayTime sets the delay time in ms and schedules a geometry fade.
func (c *Channel) SetDelayTime(ms float64) error {
	if err := checkRange("delay time", ms, 0, c.bounds.MaxDelayTime); err != nil {
		return err
	}
	if ms == c.params.DelayTime {
		return nil
	}
	c.params.DelayTime = ms
	c.fade = c.fade.Request()
	return nil
}

// SetRoomSize sets the tap spacing in ms and schedules a geometry fade.
func (c *Channel) SetRoomSize(ms float64) error {
	if err := checkRange("room size", ms, 0, c.bounds.MaxRoomSize); err != nil {
		return err
	}
	if ms == c.params.RoomSize {
		return nil
	}
	c.params.RoomSize = ms
	c.fade = c.fade.Request()
	return nil
}

// SetMix sets the wet fraction in [0, 1]. It applies on the next sample.
func (c *Channel) SetMix(mix float64) error {
	if err := checkRange("mix", mix, 0, 1); err != nil {
		return err
	}
	c.params.Mix = mix
	return nil
}

// SetVolume sets the output gain in [0, 1]. It applies on the next sample.
func (c *Channel) SetVolume(volume float64) error {
	if err := checkRange("volume", volume, 0, 1); err != nil {
		return err
	}
	c.params.Volume = volume
	return nil
}

// SetParams applies a full parameter snapshot. Nothing is changed when any
// value is out of range. A snapshot that moves both delay time and room size
// starts a single fade.
func (c *Channel) SetParams(p Params) error {
	if err := validateParams(p, c.bounds); err != nil {
		return err
	}
	moved := p.DelayTime != c.params.DelayTime || p.RoomSize != c.params.RoomSize
	c.params = p
	if moved {
		c.fade = c.fade.Request()
	}
	return nil
}

// SetSampleRate changes the sample rate. The history is grown right away so
// the processing path never has to; the taps move at the next fade boundary.
func (c *Channel) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return err
	}
	if sampleRate == c.sampleRate {
		return nil
	}
	c.sampleRate = sampleRate
	c.history.EnsureCapacity(MaxOffset(sampleRate, c.bounds))
	c.fade = c.fade.WithLength(fadeLength(sampleRate)).Request()
	return nil
}

// SetBounds changes the parameter maxima. Current parameters above the new
// maxima are pulled down to them.
func (c *Channel) SetBounds(b Bounds) error {
	if err := validateBounds(b); err != nil {
		return err
	}
	if b == c.bounds {
		return nil
	}
	c.bounds = b
	c.params.DelayTime = math.Min(c.params.DelayTime, b.MaxDelayTime)
	c.params.RoomSize = math.Min(c.params.RoomSize, b.MaxRoomSize)
	c.history.EnsureCapacity(MaxOffset(c.sampleRate, b))
	c.fade = c.fade.Request()
	return nil
}

// Reset clears the history, cancels any fade and applies the current
// parameters immediately.
func (c *Channel) Reset() {
	c.history.Reset()
	c.fade = NewFade(c.fade.Length())
	c.geometry = Recompute(c.params.DelayTime, c.params.RoomSize, c.sampleRate, c.bounds)
}

// SampleRate returns the sample rate in Hz.
func (c *Channel) SampleRate() float64 { return c.sampleRate }

// Bounds returns the configured parameter maxima.
func (c *Channel) Bounds() Bounds { return c.bounds }

// Params returns the latest parameters, which may not be audible yet.
func (c *Channel) Params() Params { return c.params }

// Geometry returns the tap layout currently in use.
func (c *Channel) Geometry() Geometry { return c.geometry }

// Fade returns the fade controller state.
func (c *Channel) Fade() Fade { return c.fade }

// HistoryLen returns the number of samples kept in the history.
func (c *Channel) HistoryLen() int { return c.history.Len() }

// Recomputes returns how many times geometry was swapped at a fade boundary.
func (c *Channel) Recomputes() uint64 { return c.recomputes }

// TailSamples returns how long the wet signal can ring after the input
// stops, in samples, for the current sample rate and bounds.
func (c *Channel) TailSamples() int { return MaxOffset(c.sampleRate, c.bounds) }

func (c *Channel) swapGeometry() {
	maxOffset := MaxOffset(c.sampleRate, c.bounds)
	c.history.EnsureCapacity(maxOffset)
	c.geometry = Recompute(c.params.DelayTime, c.params.RoomSize, c.sampleRate, c.bounds)
	c.recomputes++
}

func fadeLength(sampleRate float64) int {
	n := int(fadeSeconds * sampleRate)
	if n < 1 {
		n = 1
	}
	return n
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}
	return nil
}

func validateBounds(b Bounds) error {
	if b.MaxDelayTime < 0 || b.MaxRoomSize < 0 || !core.IsFinite(b.MaxDelayTime) || !core.IsFinite(b.MaxRoomSize) {
		return fmt.Errorf("%w: %+v", ErrInvalidBounds, b)
	}
	return nil
}

func validateParams(p Params, b Bounds) error {
	if err := checkRange("delay time", p.DelayTime, 0, b.MaxDelayTime); err != nil {
		return err
	}
	if err := checkRange("room size", p.RoomSize, 0, b.MaxRoomSize); err != nil {
		return err
	}
	if err := checkRange("mix", p.Mix, 0, 1); err != nil {
		return err
	}
	return checkRange("volume", p.Volume, 0, 1)
}

func checkRange(name string, v, lo, hi float64) error {
	if v < lo || v > hi || math.IsNaN(v) {
		return fmt.Errorf("%w: %s must be in [%g, %g]: %g", ErrOutOfRange, name, lo, hi, v)
	}
	return nil
}
