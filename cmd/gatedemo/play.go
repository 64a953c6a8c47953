package main

import (
	"context"
	"errors"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-reversegate/dsp/core"
	"github.com/cwbudde/algo-reversegate/dsp/param"
	"github.com/cwbudde/algo-reversegate/dsp/processor"
)

const meterInterval = time.Second

func play(ctx context.Context, cfg config, proc *processor.Processor, src *drumLoop, log *logrus.Logger) error {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.sampleRate,
		ChannelCount: cfg.channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return err
	}
	<-ready

	player := otoCtx.NewPlayer(newStream(proc, src, cfg.channels, cfg.blockSize))
	player.Play()

	log.WithFields(logrus.Fields{
		"function":    "play",
		"sample_rate": cfg.sampleRate,
		"channels":    cfg.channels,
		"tail_s":      proc.TailSeconds(),
	}).Info("Playback started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runSweeps(ctx, proc, cfg.sweep, log)
	})
	g.Go(func() error {
		return runMeter(ctx, proc, meterInterval, log)
	})

	err = g.Wait()
	if cerr := player.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}

	log.WithFields(logrus.Fields{
		"function": "play",
		"failures": proc.Failures(),
	}).Info("Playback stopped")

	return err
}

// runMeter logs the output level every interval. It runs beside the audio
// goroutine, so it only reads the processor's atomic state.
func runMeter(ctx context.Context, proc *processor.Processor, interval time.Duration, log *logrus.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			log.WithFields(logrus.Fields{
				"function": "runMeter",
				"peak_db":  core.LinearToDB(proc.Peak()),
				"delay_ms": proc.Parameter(param.DelayTime),
				"room_ms":  proc.Parameter(param.RoomSize),
			}).Info("Level")
		}
	}
}
