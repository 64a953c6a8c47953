package reversegate

// FadeState is the phase of a Fade.
type FadeState uint8

const (
	// FadeIdle means no transition is running and the wet gain is 1.
	FadeIdle FadeState = iota
	// FadeOut ramps the wet gain toward 0 before a geometry swap.
	FadeOut
	// FadeIn ramps the wet gain back to 1 after a geometry swap.
	FadeIn
)

func (s FadeState) String() string {
	switch s {
	case FadeIdle:
		return "idle"
	case FadeOut:
		return "fading-out"
	case FadeIn:
		return "fading-in"
	default:
		return "unknown"
	}
}

// Fade is the click-suppression state machine that gates geometry swaps.
//
// Fade is a value type: Request and Step return the next state rather than
// mutating the receiver, which keeps every transition testable on its own.
type Fade struct {
	state     FadeState
	counter   int
	length    int // ramp length for the next fade
	duration  int // ramp length of the running fade
	extraWait int
	pending   bool // a request arrived after the swap; fade again when done
}

// NewFade returns an idle fade whose ramps last length samples.
func NewFade(length int) Fade {
	if length < 1 {
		length = 1
	}
	return Fade{length: length, duration: length}
}

// WithLength returns f with a new ramp length. A running ramp keeps its
// duration; the new length applies from the next fade-out.
func (f Fade) WithLength(length int) Fade {
	if length < 1 {
		length = 1
	}
	f.length = length
	return f
}

// Request asks for a geometry swap.
//
// From idle it starts a fade-out. While fading it extends the current ramp
// instead of restarting it: during a fade-out the swap is postponed by the
// remaining ramp, and during a fade-in the return to idle is postponed by
// the part of the ramp still to climb and another fade is queued, since
// the swap for this fade has already happened.
func (f Fade) Request() Fade {
	switch f.state {
	case FadeIdle:
		f.state = FadeOut
		f.duration = f.length
		f.counter = f.duration
		f.extraWait = 0
		f.pending = false
	case FadeOut:
		if f.counter > 0 {
			f.extraWait += f.counter
		}
	case FadeIn:
		if rest := f.duration - f.counter; rest > 0 {
			f.extraWait += rest
		}
		f.pending = true
	}
	return f
}

// Step advances one sample. It returns the next state, the wet gain for
// this sample in [0, 1], and whether the caller must swap in new geometry
// before reading taps.
func (f Fade) Step() (next Fade, gain float64, swap bool) {
	if f.state == FadeIdle {
		return f, 1, false
	}

	gain = f.gain()

	switch f.state {
	case FadeOut:
		f.counter--
		if f.counter <= -f.extraWait {
			f.state = FadeIn
			f.extraWait = 0
			swap = true
		}
	case FadeIn:
		f.counter++
		if f.counter >= f.duration+f.extraWait {
			f.extraWait = 0
			if f.pending {
				f.pending = false
				f.state = FadeOut
				f.duration = f.length
				f.counter = f.duration
			} else {
				f.state = FadeIdle
				f.counter = 0
			}
		}
	}

	return f, gain, swap
}

// Gain returns the wet gain the next Step will emit.
func (f Fade) Gain() float64 {
	if f.state == FadeIdle {
		return 1
	}
	return f.gain()
}

func (f Fade) gain() float64 {
	g := float64(f.counter) / float64(f.duration)
	if g < 0 {
		return 0
	}
	if g > 1 {
		return 1
	}
	return g
}

// State returns the current phase.
func (f Fade) State() FadeState { return f.state }

// Counter returns the ramp position in samples.
func (f Fade) Counter() int { return f.counter }

// Length returns the ramp length used by the next fade-out.
func (f Fade) Length() int { return f.length }

// ExtraWait returns the accumulated ramp extension in samples.
func (f Fade) ExtraWait() int { return f.extraWait }

// Pending reports whether another fade is queued behind the running one.
func (f Fade) Pending() bool { return f.pending }
