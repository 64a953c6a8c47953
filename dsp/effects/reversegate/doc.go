// Package reversegate implements a "reverse gate" multi-tap delay.
//
// Each Channel keeps a sample history and reads it at TapCount positions
// derived from two parameters: the delay time, which shifts every tap, and
// the room size, which spreads taps apart linearly with their index. Tap i
// sits at
//
//	(delayTime + BaseOffsets[i] + roomSize*i) ms
//
// and contributes with weight 0.02*(i+1), so later taps are louder and the
// wet signal swells toward its tail. The prime base offsets keep the taps
// from lining up into audible combs.
//
// Moving the taps while audio is running would make them jump to other
// history positions and click. Parameter changes therefore go through a
// Fade: the wet signal ramps to silence, the new geometry is swapped in, and
// the wet signal ramps back. Changes arriving mid-fade extend the ramp
// instead of restarting it, so the geometry is swapped once per fade.
package reversegate
