// Command gatedemo plays a synthetic drum loop through the reverse gate
// while a control goroutine sweeps the delay and room parameters.
//
// Usage:
//
//	gatedemo [flags]
//
// Without -play the loop is rendered offline and summarised.
//
// Examples:
//
//	gatedemo -play
//	gatedemo -play -duration 30s -sweep 250ms
//	gatedemo -duration 5s -sweep 0
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reversegate/dsp/core"
	"github.com/cwbudde/algo-reversegate/dsp/processor"
)

type config struct {
	sampleRate int
	blockSize  int
	channels   int
	duration   time.Duration
	sweep      time.Duration
	play       bool
}

func main() {
	var cfg config

	flag.IntVar(&cfg.sampleRate, "rate", 48000, "sample rate in Hz")
	flag.IntVar(&cfg.blockSize, "block", 256, "processing block size in samples")
	flag.IntVar(&cfg.channels, "channels", 2, "output channels (1 or 2)")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "run time, 0 plays until interrupted")
	flag.DurationVar(&cfg.sweep, "sweep", 500*time.Millisecond, "parameter sweep interval, 0 disables sweeping")
	flag.BoolVar(&cfg.play, "play", false, "play through the default audio device")
	verbose := flag.Bool("v", false, "verbose diagnostics")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gatedemo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a drum loop through the reverse gate.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(cfg, log); err != nil {
		log.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("gatedemo failed")
		os.Exit(1)
	}
}

func run(cfg config, log *logrus.Logger) error {
	if !processor.SupportsLayout(cfg.channels, cfg.channels) {
		return fmt.Errorf("gatedemo: unsupported channel count %d", cfg.channels)
	}

	proc, err := processor.New(
		processor.WithConfig(
			core.WithSampleRate(float64(cfg.sampleRate)),
			core.WithBlockSize(cfg.blockSize),
			core.WithChannels(cfg.channels),
		),
		processor.WithLogger(log),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src := newDrumLoop(float64(cfg.sampleRate))

	if cfg.play {
		if cfg.duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.duration)
			defer cancel()
		}
		return play(ctx, cfg, proc, src, log)
	}

	st, err := renderOffline(ctx, cfg, proc, src)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"function":   "run",
		"seconds":    st.seconds,
		"peak_db":    core.LinearToDB(st.peak),
		"rms_db":     core.LinearToDB(st.rms),
		"recomputes": st.recomputes,
		"failures":   st.failures,
	}).Info("Rendered offline")

	return nil
}
