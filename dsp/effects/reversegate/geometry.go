package reversegate

import "math"

// TapCount is the number of simultaneous delay taps.
const TapCount = 25

// BaseOffsets are the per-tap seed offsets in milliseconds.
var BaseOffsets = [TapCount]int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97,
}

// nominalMaxBase is used in place of the real base offset when sizing the
// history. It is larger than every entry of BaseOffsets.
const nominalMaxBase = 100

const tapWeightStep = 0.02

// Bounds are the configured maxima of the geometry parameters, in ms.
type Bounds struct {
	MaxDelayTime float64
	MaxRoomSize  float64
}

// DefaultBounds returns the stock parameter maxima.
func DefaultBounds() Bounds {
	return Bounds{MaxDelayTime: 50, MaxRoomSize: 500}
}

// Geometry is the concrete tap layout for one set of parameters.
type Geometry struct {
	Offsets   [TapCount]int
	Weights   [TapCount]float64
	MaxOffset int
}

// Recompute returns the tap layout for delayTime and roomSize (ms) at
// sampleRate. Inputs are not clamped. MaxOffset depends only on sampleRate
// and bounds, never on the live parameters.
func Recompute(delayTime, roomSize, sampleRate float64, bounds Bounds) Geometry {
	var g Geometry
	for i := 0; i < TapCount; i++ {
		g.Offsets[i] = msToSamples(delayTime+float64(BaseOffsets[i])+roomSize*float64(i), sampleRate)
		g.Weights[i] = tapWeightStep * float64(i+1)
	}
	g.MaxOffset = MaxOffset(sampleRate, bounds)
	return g
}

// MaxOffset returns the largest history offset any parameter set within
// bounds can reach at sampleRate.
func MaxOffset(sampleRate float64, bounds Bounds) int {
	ms := bounds.MaxDelayTime + nominalMaxBase + bounds.MaxRoomSize*float64(TapCount-1)
	return 1 + msToSamples(ms, sampleRate)
}

func msToSamples(ms, sampleRate float64) int {
	return int(math.Floor(ms / 1000 * sampleRate))
}
