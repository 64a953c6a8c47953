package processor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-reversegate/dsp/core"
	"github.com/cwbudde/algo-reversegate/dsp/effects/reversegate"
	"github.com/cwbudde/algo-reversegate/dsp/param"
)

// Errors returned by Processor.
var (
	ErrInvalidConfig = errors.New("processor: invalid configuration")
	ErrBlockFailed   = errors.New("processor: block failed")
)

// Processor owns the per-channel engines and the parameter bank.
type Processor struct {
	cfg    core.ProcessorConfig
	bounds reversegate.Bounds
	params *param.Bank

	channels []*reversegate.Channel
	current  reversegate.Params

	log      *logrus.Entry
	peak     atomic.Uint64
	failures atomic.Uint64
}

// New creates a Processor with default parameter values.
func New(opts ...Option) (*Processor, error) {
	o := options{bounds: reversegate.DefaultBounds()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = defaultLogger()
	}

	p := &Processor{
		cfg:    core.ApplyProcessorOptions(o.config...),
		bounds: o.bounds,
		params: param.NewBank(),
		log:    logrus.NewEntry(o.logger).WithField("component", "reversegate"),
	}
	p.current = engineParams(p.params.Snapshot().Values, p.bounds)

	if err := p.resizeChannels(p.cfg.Channels); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"function":    "New",
		"sample_rate": p.cfg.SampleRate,
		"block_size":  p.cfg.BlockSize,
		"channels":    p.cfg.Channels,
	}).Info("Created processor")

	return p, nil
}

// SupportsLayout reports whether an input/output channel layout can be
// processed: mono or stereo, with matching input and output.
func SupportsLayout(in, out int) bool {
	return in == out && (out == 1 || out == 2)
}

// Prepare configures the processor for playback. Histories are grown here
// so that ProcessBlock never has to.
func (p *Processor) Prepare(sampleRate float64, blockSize, channels int) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: sample rate %f", ErrInvalidConfig, sampleRate)
	}
	if blockSize <= 0 || channels < 0 {
		return fmt.Errorf("%w: block size %d, channels %d", ErrInvalidConfig, blockSize, channels)
	}

	for i, ch := range p.channels {
		if err := ch.SetSampleRate(sampleRate); err != nil {
			return fmt.Errorf("processor: channel %d: %w", i, err)
		}
	}
	p.cfg.SampleRate = sampleRate
	p.cfg.BlockSize = blockSize

	if err := p.resizeChannels(channels); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"function":    "Prepare",
		"sample_rate": sampleRate,
		"block_size":  blockSize,
		"channels":    channels,
	}).Info("Prepared processor")

	return nil
}

// SetBounds changes the delay time and room size maxima on every channel.
func (p *Processor) SetBounds(b reversegate.Bounds) error {
	for i, ch := range p.channels {
		if err := ch.SetBounds(b); err != nil {
			return fmt.Errorf("processor: channel %d: %w", i, err)
		}
	}
	p.bounds = b
	p.current = engineParams(paramValues(p.params), b)
	return nil
}

// SetParameter publishes a new host value for id, clamped to its range.
// It is safe to call from one control goroutine while ProcessBlock runs.
func (p *Processor) SetParameter(id param.ID, value float64) error {
	return p.params.Set(id, value)
}

// SetParameterByName is SetParameter keyed by host parameter name.
func (p *Processor) SetParameterByName(name string, value float64) error {
	spec, err := param.LookupName(name)
	if err != nil {
		return err
	}
	return p.params.Set(spec.ID, value)
}

// Parameter returns the latest published host value of id.
func (p *Processor) Parameter(id param.ID) float64 {
	return p.params.Get(id)
}

// ProcessBlock processes one host block in place, one buffer per channel.
// A change in len(buffers) rebuilds the channel set first. If processing
// fails the block is replaced with silence.
func (p *Processor) ProcessBlock(buffers [][]float64) {
	defer p.recoverBlock(buffers)

	if len(buffers) != len(p.channels) {
		if err := p.resizeChannels(len(buffers)); err != nil {
			p.failBlock(buffers, err)
			return
		}
	}

	if snap := p.params.Snapshot(); snap.Any() {
		p.apply(snap)
	}

	peak := 0.0
	for i, ch := range p.channels {
		buf := buffers[i]
		ch.ProcessInPlace(buf)
		if len(buf) > 0 {
			if m := vecmath.MaxAbs(buf); m > peak {
				peak = m
			}
		}
	}
	p.peak.Store(math.Float64bits(peak))
}

// Process reads src and writes dst. Output channels without a matching
// input are cleared.
func (p *Processor) Process(dst, src [][]float64) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		core.CopyInto(dst[i], src[i])
	}
	for i := n; i < len(dst); i++ {
		core.Zero(dst[i])
	}
	p.ProcessBlock(dst[:n])
}

// Render processes whole buffers offline in block-size chunks. Channels run
// in parallel; parameters are read once at the start.
func (p *Processor) Render(ctx context.Context, buffers [][]float64) error {
	if len(buffers) != len(p.channels) {
		if err := p.resizeChannels(len(buffers)); err != nil {
			return err
		}
	}
	if snap := p.params.Snapshot(); snap.Any() {
		p.apply(snap)
	}

	block := p.cfg.BlockSize
	g, ctx := errgroup.WithContext(ctx)
	for i, ch := range p.channels {
		buf := buffers[i]
		g.Go(func() error {
			for start := 0; start < len(buf); start += block {
				if err := ctx.Err(); err != nil {
					return err
				}
				ch.ProcessInPlace(buf[start:min(start+block, len(buf))])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("processor: render: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"function": "Render",
		"channels": len(buffers),
	}).Debug("Rendered buffers")

	return nil
}

// Reset clears every channel's history and pending fades.
func (p *Processor) Reset() {
	for _, ch := range p.channels {
		ch.Reset()
	}
	p.peak.Store(0)
}

// Channels returns the number of processed channels.
func (p *Processor) Channels() int { return len(p.channels) }

// Channel returns the engine for channel i. The engine is owned by the
// audio thread: only call it from the goroutine that runs ProcessBlock, or
// while no block is being processed.
func (p *Processor) Channel(i int) *reversegate.Channel { return p.channels[i] }

// SampleRate returns the sample rate in Hz.
func (p *Processor) SampleRate() float64 { return p.cfg.SampleRate }

// Bounds returns the parameter maxima.
func (p *Processor) Bounds() reversegate.Bounds { return p.bounds }

// Peak returns the absolute peak of the last processed block.
func (p *Processor) Peak() float64 { return math.Float64frombits(p.peak.Load()) }

// Failures returns how many blocks were replaced with silence plus how many
// parameter updates a channel rejected.
func (p *Processor) Failures() uint64 { return p.failures.Load() }

// TailSeconds returns how long output can continue after input stops.
func (p *Processor) TailSeconds() float64 {
	return float64(reversegate.MaxOffset(p.cfg.SampleRate, p.bounds)) / p.cfg.SampleRate
}

func (p *Processor) apply(snap param.Snapshot) {
	p.current = engineParams(snap.Values, p.bounds)
	for _, ch := range p.channels {
		if err := ch.SetParams(p.current); err != nil {
			p.failures.Add(1)
		}
	}
}

func (p *Processor) resizeChannels(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidConfig, n)
	}
	if n == len(p.channels) {
		return nil
	}

	old := len(p.channels)
	channels := make([]*reversegate.Channel, n)
	copy(channels, p.channels)
	for i := old; i < n; i++ {
		ch, err := reversegate.NewChannel(p.cfg.SampleRate,
			reversegate.WithBounds(p.bounds),
			reversegate.WithParams(p.current),
		)
		if err != nil {
			return fmt.Errorf("processor: create channel %d: %w", i, err)
		}
		channels[i] = ch
	}
	p.channels = channels
	p.cfg.Channels = n

	p.log.WithFields(logrus.Fields{
		"function": "resizeChannels",
		"from":     old,
		"to":       n,
	}).Info("Channel count changed")

	return nil
}

func (p *Processor) recoverBlock(buffers [][]float64) {
	r := recover()
	if r == nil {
		return
	}
	p.failBlock(buffers, fmt.Errorf("%w: %v", ErrBlockFailed, r))
}

func (p *Processor) failBlock(buffers [][]float64, err error) {
	for _, buf := range buffers {
		core.Zero(buf)
	}
	p.peak.Store(0)
	p.failures.Add(1)

	p.log.WithFields(logrus.Fields{
		"function": "ProcessBlock",
		"error":    err.Error(),
	}).Error("Block replaced with silence")
}

func paramValues(b *param.Bank) [param.Count]float64 {
	var values [param.Count]float64
	for i := range values {
		values[i] = b.Get(param.ID(i))
	}
	return values
}

func engineParams(values [param.Count]float64, b reversegate.Bounds) reversegate.Params {
	return reversegate.Params{
		DelayTime: core.Clamp(values[param.DelayTime], 0, b.MaxDelayTime),
		RoomSize:  core.Clamp(values[param.RoomSize], 0, b.MaxRoomSize),
		Mix:       core.Clamp(values[param.Mix]/100, 0, 1),
		Volume:    core.Clamp(values[param.Volume], 0, 1),
	}
}
