package processor

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reversegate/dsp/core"
	"github.com/cwbudde/algo-reversegate/dsp/effects/reversegate"
)

type options struct {
	config []core.ProcessorOption
	bounds reversegate.Bounds
	logger *logrus.Logger
}

// Option configures a Processor.
type Option func(*options)

// WithConfig sets sample rate, block size and channel count.
func WithConfig(opts ...core.ProcessorOption) Option {
	return func(o *options) { o.config = append(o.config, opts...) }
}

// WithBounds sets the delay time and room size maxima.
func WithBounds(b reversegate.Bounds) Option {
	return func(o *options) { o.bounds = b }
}

// WithLogger sets the logger used for lifecycle and failure events.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
