// Command gateinfo prints the tap layout and response of a reverse gate.
//
// Usage:
//
//	gateinfo [flags]
//
// Examples:
//
//	gateinfo
//	gateinfo -rate 48000 -delay 10 -room 40
//	gateinfo -arrivals -response
//	gateinfo -params
//	gateinfo -cpu
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reversegate/dsp/effects/reversegate"
)

type options struct {
	sampleRate float64
	params     reversegate.Params
	bounds     reversegate.Bounds
	arrivals   bool
	response   bool
	listParams bool
	cpu        bool
}

func main() {
	var o options

	defaults := reversegate.DefaultParams()
	bounds := reversegate.DefaultBounds()

	flag.Float64Var(&o.sampleRate, "rate", 44100, "sample rate in Hz")
	flag.Float64Var(&o.params.DelayTime, "delay", defaults.DelayTime, "delay time in ms")
	flag.Float64Var(&o.params.RoomSize, "room", defaults.RoomSize, "room size in ms")
	mix := flag.Float64("mix", 100*defaults.Mix, "mix in percent (for -response)")
	flag.Float64Var(&o.bounds.MaxDelayTime, "max-delay", bounds.MaxDelayTime, "maximum delay time in ms")
	flag.Float64Var(&o.bounds.MaxRoomSize, "max-room", bounds.MaxRoomSize, "maximum room size in ms")
	flag.BoolVar(&o.arrivals, "arrivals", false, "capture the impulse response and list tap arrivals")
	flag.BoolVar(&o.response, "response", false, "print the magnitude response at octave frequencies")
	flag.BoolVar(&o.listParams, "params", false, "list host parameters and exit")
	flag.BoolVar(&o.cpu, "cpu", false, "print detected SIMD features")
	verbose := flag.Bool("v", false, "verbose diagnostics")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gateinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the tap layout and response of a reverse gate.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gateinfo -rate 48000 -delay 10 -room 40\n")
		fmt.Fprintf(os.Stderr, "  gateinfo -arrivals -response\n")
		fmt.Fprintf(os.Stderr, "  gateinfo -params\n")
	}
	flag.Parse()

	logrus.SetOutput(os.Stderr)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	o.params.Mix = *mix / 100
	o.params.Volume = 1

	if err := run(os.Stdout, o); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("gateinfo failed")
		os.Exit(1)
	}
}
