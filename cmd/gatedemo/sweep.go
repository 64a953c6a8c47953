package main

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reversegate/dsp/param"
	"github.com/cwbudde/algo-reversegate/dsp/processor"
)

// sweeper walks delay time and room size along slow triangle waves with
// co-prime periods, so the pair never repeats quickly.
type sweeper struct {
	proc *processor.Processor
	tick int
}

const (
	delayPeriod = 16
	roomPeriod  = 23
)

func triangle(tick, period int) float64 {
	phase := float64(tick%period) / float64(period)
	return 1 - math.Abs(2*phase-1)
}

// advance publishes the next pair of values and returns them.
func (s *sweeper) advance() (delayMS, roomMS float64, err error) {
	s.tick++

	delaySpec, err := param.Lookup(param.DelayTime)
	if err != nil {
		return 0, 0, err
	}
	roomSpec, err := param.Lookup(param.RoomSize)
	if err != nil {
		return 0, 0, err
	}

	delayMS = delaySpec.Quantize(delaySpec.Denormalize(triangle(s.tick, delayPeriod)))
	// Room sizes past a quarter of the range smear the taps into a wash.
	roomMS = roomSpec.Quantize(roomSpec.Denormalize(0.25 * triangle(s.tick, roomPeriod)))

	if err := s.proc.SetParameter(param.DelayTime, delayMS); err != nil {
		return 0, 0, err
	}
	if err := s.proc.SetParameter(param.RoomSize, roomMS); err != nil {
		return 0, 0, err
	}

	return delayMS, roomMS, nil
}

// runSweeps advances the sweep every interval until ctx is done.
func runSweeps(ctx context.Context, proc *processor.Processor, interval time.Duration, log *logrus.Logger) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	s := &sweeper{proc: proc}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			delayMS, roomMS, err := s.advance()
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"function": "runSweeps",
				"delay_ms": delayMS,
				"room_ms":  roomMS,
			}).Debug("Swept parameters")
		}
	}
}
