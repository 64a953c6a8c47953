package reversegate

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-reversegate/dsp/core"
	"github.com/cwbudde/algo-reversegate/internal/testutil"
)

func newTestChannel(t *testing.T, sampleRate float64, p Params, opts ...Option) *Channel {
	t.Helper()

	c, err := NewChannel(sampleRate, append([]Option{WithParams(p)}, opts...)...)
	if err != nil {
		t.Fatalf("NewChannel() error = %v", err)
	}
	return c
}

// smallBounds keeps the reference model's O(n) history shifts cheap.
var smallBounds = Bounds{MaxDelayTime: 20, MaxRoomSize: 10}

// referenceGate is a direct, allocation-heavy model of the steady-state
// engine: the history is a slice that grows at the front.
type referenceGate struct {
	history []float64
	geom    Geometry
	params  Params
}

func newReferenceGate(sampleRate float64, p Params, b Bounds) *referenceGate {
	g := Recompute(p.DelayTime, p.RoomSize, sampleRate, b)
	return &referenceGate{
		history: make([]float64, g.MaxOffset+1),
		geom:    g,
		params:  p,
	}
}

func (r *referenceGate) process(x float64) float64 {
	stored := x
	if math.Abs(stored) < 1e-4 {
		stored = 0
	}
	r.history = append([]float64{stored}, r.history[:len(r.history)-1]...)

	wet := 0.0
	for i, off := range r.geom.Offsets {
		wet += r.history[off] * r.geom.Weights[i]
	}
	wet = core.Clamp(wet, -1, 1)
	return ((1-r.params.Mix)*x + r.params.Mix*wet) * r.params.Volume
}

// --- construction and validation ---

func TestNewChannelValidation(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		opts []Option
		want error
	}{
		{name: "zero rate", rate: 0, want: ErrInvalidSampleRate},
		{name: "nan rate", rate: math.NaN(), want: ErrInvalidSampleRate},
		{name: "inf rate", rate: math.Inf(1), want: ErrInvalidSampleRate},
		{name: "negative bounds", rate: 44100, opts: []Option{WithBounds(Bounds{MaxDelayTime: -1})}, want: ErrInvalidBounds},
		{name: "delay above max", rate: 44100, opts: []Option{WithParams(Params{DelayTime: 51, Volume: 1})}, want: ErrOutOfRange},
		{name: "mix above one", rate: 44100, opts: []Option{WithParams(Params{Mix: 1.5})}, want: ErrOutOfRange},
		{name: "nan volume", rate: 44100, opts: []Option{WithParams(Params{Volume: math.NaN()})}, want: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChannel(tt.rate, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewChannel() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewChannelDefaults(t *testing.T) {
	c, err := NewChannel(44100)
	if err != nil {
		t.Fatal(err)
	}

	if c.Params() != DefaultParams() {
		t.Fatalf("Params = %+v, want %+v", c.Params(), DefaultParams())
	}
	if c.Bounds() != DefaultBounds() {
		t.Fatalf("Bounds = %+v, want %+v", c.Bounds(), DefaultBounds())
	}
	if c.HistoryLen() != MaxOffset(44100, DefaultBounds())+1 {
		t.Fatalf("HistoryLen = %d, want MaxOffset+1", c.HistoryLen())
	}
	if c.Geometry() != Recompute(30, 15, 44100, DefaultBounds()) {
		t.Fatal("initial geometry does not match the initial parameters")
	}
	if c.Fade().State() != FadeIdle {
		t.Fatalf("initial fade state = %v, want idle", c.Fade().State())
	}
	if c.Fade().Length() != 2205 {
		t.Fatalf("fade length = %d, want 2205 (50 ms)", c.Fade().Length())
	}
}

// --- signal path ---

func TestImpulseScenario(t *testing.T) {
	const sampleRate = 44100

	c := newTestChannel(t, sampleRate, Params{DelayTime: 30, RoomSize: 15, Mix: 1, Volume: 0.8})
	g := c.Geometry()

	in := testutil.Impulse(g.Offsets[TapCount-1]+16, 0)
	out := make([]float64, len(in))
	c.Process(out, in)

	want := make([]float64, len(in))
	for i, off := range g.Offsets {
		want[off] = 0.02 * float64(i+1) * 0.8
	}

	if out[0] != 0 {
		t.Fatalf("out[0] = %v, want 0", out[0])
	}
	if g.Offsets[0] != 1411 {
		t.Fatalf("first tap at %d, want 1411", g.Offsets[0])
	}
	testutil.RequireSliceNearlyEqual(t, out, want, 1e-12)
}

func TestMatchesReferenceModel(t *testing.T) {
	const sampleRate = 8000

	p := Params{DelayTime: 12.5, RoomSize: 7.25, Mix: 0.65, Volume: 0.9}
	c := newTestChannel(t, sampleRate, p, WithBounds(smallBounds))
	ref := newReferenceGate(sampleRate, p, smallBounds)

	in := testutil.DeterministicNoise(7, 0.3, 6000)
	for i, x := range in {
		got := c.ProcessSample(x)
		want := ref.process(x)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d: got %v want %v", i, got, want)
		}
	}
}

func TestDryOnlyWhenMixZero(t *testing.T) {
	c := newTestChannel(t, 48000, Params{DelayTime: 5, RoomSize: 1, Mix: 0, Volume: 0.7})

	in := testutil.DeterministicNoise(11, 0.8, 8192)
	out := make([]float64, len(in))
	for i, x := range in {
		if i == 1000 {
			if err := c.SetDelayTime(40); err != nil {
				t.Fatal(err)
			}
		}
		out[i] = c.ProcessSample(x)
	}

	for i := range in {
		if want := in[i] * 0.7; out[i] != want {
			t.Fatalf("sample %d: got %v want %v", i, out[i], want)
		}
	}
}

func TestWetOnlyEqualsClampedTapSum(t *testing.T) {
	p := Params{DelayTime: 1, RoomSize: 0.5, Mix: 1, Volume: 1}
	c := newTestChannel(t, 16000, p, WithBounds(smallBounds))
	ref := newReferenceGate(16000, p, smallBounds)

	in := testutil.DeterministicSine(220, 16000, 0.9, 4000)
	for i, x := range in {
		got := c.ProcessSample(x)
		want := ref.process(x)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("sample %d: got %v want %v", i, got, want)
		}
		if got < -1 || got > 1 {
			t.Fatalf("sample %d: wet %v outside [-1, 1]", i, got)
		}
	}
}

func TestWetSumIsClamped(t *testing.T) {
	// Every weight sees DC 1.0 once the longest tap is filled; the raw
	// weight sum is 6.5.
	c := newTestChannel(t, 4000, Params{DelayTime: 0, RoomSize: 0, Mix: 1, Volume: 1})
	last := c.Geometry().Offsets[TapCount-1]

	var y float64
	for i := 0; i <= last+10; i++ {
		y = c.ProcessSample(1)
	}
	if y != 1 {
		t.Fatalf("steady-state wet = %v, want clamped 1", y)
	}

	c.Reset()
	for i := 0; i <= last+10; i++ {
		y = c.ProcessSample(-1)
	}
	if y != -1 {
		t.Fatalf("steady-state wet = %v, want clamped -1", y)
	}
}

func TestSilenceAfterMaxOffset(t *testing.T) {
	c := newTestChannel(t, 8000, Params{DelayTime: 50, RoomSize: 500, Mix: 0.5, Volume: 1})

	c.ProcessInPlace(testutil.DeterministicNoise(5, 1, 3000))
	if err := c.SetRoomSize(100); err != nil {
		t.Fatal(err)
	}

	silence := make([]float64, c.HistoryLen())
	c.ProcessInPlace(silence)

	block := make([]float64, 2048)
	c.ProcessInPlace(block)
	for i, v := range block {
		if v != 0 {
			t.Fatalf("block[%d] = %v, want 0", i, v)
		}
	}
}

func TestNearZeroInputIsSnappedInHistoryOnly(t *testing.T) {
	c := newTestChannel(t, 1000, Params{DelayTime: 0, RoomSize: 0, Mix: 0.5, Volume: 1})

	// The dry path keeps the raw value.
	if got := c.ProcessSample(5e-5); got != 0.5*5e-5 {
		t.Fatalf("dry output = %v, want %v", got, 0.5*5e-5)
	}
	// The first tap (2 samples) reads the snapped value back.
	c.ProcessSample(0)
	if got := c.ProcessSample(0); got != 0 {
		t.Fatalf("wet echo of snapped sample = %v, want 0", got)
	}
}

func TestProcessInPlaceMatchesSample(t *testing.T) {
	p := DefaultParams()
	c1 := newTestChannel(t, 48000, p)
	c2 := newTestChannel(t, 48000, p)

	input := testutil.DeterministicSine(440, 48000, 0.5, 4096)

	want := make([]float64, len(input))
	for i := range input {
		want[i] = c1.ProcessSample(input[i])
	}

	got := make([]float64, len(input))
	copy(got, input)
	c2.ProcessInPlace(got)

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestProcessShortBuffers(t *testing.T) {
	c := newTestChannel(t, 48000, DefaultParams())

	if n := c.Process(make([]float64, 4), make([]float64, 10)); n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
	if n := c.Process(make([]float64, 10), make([]float64, 3)); n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
}

// --- parameter changes and fades ---

func TestGeometryHeldUntilFadeBoundary(t *testing.T) {
	c := newTestChannel(t, 1000, Params{DelayTime: 10, RoomSize: 5, Mix: 1, Volume: 1})
	before := c.Geometry()
	length := c.Fade().Length()

	if err := c.SetDelayTime(20); err != nil {
		t.Fatal(err)
	}
	if c.Fade().State() != FadeOut {
		t.Fatalf("state = %v, want fading-out", c.Fade().State())
	}

	for i := 0; i < length-1; i++ {
		c.ProcessSample(0)
		if c.Geometry() != before {
			t.Fatalf("geometry swapped early at sample %d", i)
		}
	}

	c.ProcessSample(0)
	if c.Geometry() != Recompute(20, 5, 1000, DefaultBounds()) {
		t.Fatal("geometry not swapped at the fade boundary")
	}
	if c.Recomputes() != 1 {
		t.Fatalf("Recomputes = %d, want 1", c.Recomputes())
	}
}

func TestRapidChangesSwapOnceWithLatestValues(t *testing.T) {
	c := newTestChannel(t, 8000, Params{DelayTime: 10, RoomSize: 10, Mix: 1, Volume: 1})
	length := c.Fade().Length()

	if err := c.SetDelayTime(20); err != nil {
		t.Fatal(err)
	}
	c.ProcessInPlace(make([]float64, length/4))
	if err := c.SetRoomSize(40); err != nil {
		t.Fatal(err)
	}
	c.ProcessInPlace(make([]float64, length/4))
	if err := c.SetDelayTime(35); err != nil {
		t.Fatal(err)
	}

	c.ProcessInPlace(make([]float64, 10*length))

	if c.Recomputes() != 1 {
		t.Fatalf("Recomputes = %d, want 1", c.Recomputes())
	}
	if c.Fade().State() != FadeIdle {
		t.Fatalf("state = %v, want idle", c.Fade().State())
	}
	if c.Geometry() != Recompute(35, 40, 8000, DefaultBounds()) {
		t.Fatal("geometry does not reflect the latest parameters")
	}
}

func TestUnchangedValueDoesNotFade(t *testing.T) {
	c := newTestChannel(t, 8000, DefaultParams())

	if err := c.SetDelayTime(c.Params().DelayTime); err != nil {
		t.Fatal(err)
	}
	if err := c.SetMix(0.1); err != nil {
		t.Fatal(err)
	}
	if err := c.SetVolume(0.2); err != nil {
		t.Fatal(err)
	}
	if c.Fade().State() != FadeIdle {
		t.Fatalf("state = %v, want idle", c.Fade().State())
	}
}

func TestSetterRangeErrors(t *testing.T) {
	c := newTestChannel(t, 8000, DefaultParams())

	setters := map[string]func(float64) error{
		"delay":  c.SetDelayTime,
		"room":   c.SetRoomSize,
		"mix":    c.SetMix,
		"volume": c.SetVolume,
	}
	for name, set := range setters {
		if err := set(-0.1); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s(-0.1) error = %v, want ErrOutOfRange", name, err)
		}
		if err := set(1e6); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s(1e6) error = %v, want ErrOutOfRange", name, err)
		}
	}
	if c.Params() != DefaultParams() {
		t.Fatalf("rejected values leaked into params: %+v", c.Params())
	}
}

func TestSetParams(t *testing.T) {
	c := newTestChannel(t, 8000, DefaultParams())

	if err := c.SetParams(Params{DelayTime: 99}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("SetParams error = %v, want ErrOutOfRange", err)
	}
	if c.Params() != DefaultParams() {
		t.Fatal("invalid snapshot was partially applied")
	}

	p := Params{DelayTime: 10, RoomSize: 15, Mix: 0.25, Volume: 0.5}
	if err := c.SetParams(p); err != nil {
		t.Fatal(err)
	}
	if c.Params() != p {
		t.Fatalf("Params = %+v, want %+v", c.Params(), p)
	}
	if c.Fade().State() != FadeOut {
		t.Fatalf("state = %v, want fading-out after delay change", c.Fade().State())
	}
}

func TestSetParamsMovingBothGeometryValuesFadesOnce(t *testing.T) {
	c := newTestChannel(t, 44100, DefaultParams())
	length := c.Fade().Length()

	if err := c.SetParams(Params{DelayTime: 10, RoomSize: 40, Mix: 0.5, Volume: 0.8}); err != nil {
		t.Fatal(err)
	}
	if c.Fade().ExtraWait() != 0 {
		t.Fatalf("ExtraWait = %d, want 0 for a single snapshot", c.Fade().ExtraWait())
	}

	swapAt, idleAt := -1, -1
	for n := 1; n <= 4*length && idleAt < 0; n++ {
		c.ProcessSample(0)
		if swapAt < 0 && c.Recomputes() == 1 {
			swapAt = n
		}
		if c.Fade().State() == FadeIdle {
			idleAt = n
		}
	}

	if swapAt < 0 || swapAt > length+1 {
		t.Fatalf("geometry swapped after %d samples, want <= %d", swapAt, length+1)
	}
	if idleAt < 0 || idleAt > 2*length {
		t.Fatalf("idle after %d samples, want <= %d", idleAt, 2*length)
	}
	if c.Geometry() != Recompute(10, 40, 44100, DefaultBounds()) {
		t.Fatal("geometry does not reflect the snapshot")
	}
}

func TestSampleRateChangeGrowsHistoryImmediately(t *testing.T) {
	c := newTestChannel(t, 22050, DefaultParams())
	before := c.HistoryLen()

	if err := c.SetSampleRate(96000); err != nil {
		t.Fatal(err)
	}
	if c.HistoryLen() < MaxOffset(96000, DefaultBounds())+1 {
		t.Fatalf("HistoryLen = %d, want >= %d", c.HistoryLen(), MaxOffset(96000, DefaultBounds())+1)
	}
	if c.HistoryLen() <= before {
		t.Fatal("history did not grow")
	}
	if c.Fade().State() != FadeOut {
		t.Fatalf("state = %v, want fading-out", c.Fade().State())
	}

	grown := c.HistoryLen()
	c.ProcessInPlace(make([]float64, 20000))
	if c.HistoryLen() != grown {
		t.Fatal("processing resized the history")
	}
	if c.Geometry() != Recompute(30, 15, 96000, DefaultBounds()) {
		t.Fatal("geometry not rebuilt for the new sample rate")
	}
	if c.Fade().Length() != 4800 {
		t.Fatalf("fade length = %d, want 4800", c.Fade().Length())
	}

	// Going back down never shrinks.
	if err := c.SetSampleRate(22050); err != nil {
		t.Fatal(err)
	}
	if c.HistoryLen() != grown {
		t.Fatalf("HistoryLen = %d after rate drop, want %d", c.HistoryLen(), grown)
	}
	if err := c.SetSampleRate(0); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("SetSampleRate(0) error = %v", err)
	}
}

func TestSetBoundsClampsParams(t *testing.T) {
	c := newTestChannel(t, 8000, Params{DelayTime: 40, RoomSize: 400, Mix: 1, Volume: 1})

	if err := c.SetBounds(Bounds{MaxDelayTime: 20, MaxRoomSize: 100}); err != nil {
		t.Fatal(err)
	}
	if p := c.Params(); p.DelayTime != 20 || p.RoomSize != 100 {
		t.Fatalf("params not clamped: %+v", p)
	}

	if err := c.SetBounds(Bounds{MaxDelayTime: 200, MaxRoomSize: 2000}); err != nil {
		t.Fatal(err)
	}
	if c.HistoryLen() < MaxOffset(8000, c.Bounds())+1 {
		t.Fatal("history not grown for wider bounds")
	}
	if err := c.SetBounds(Bounds{MaxDelayTime: math.NaN()}); !errors.Is(err, ErrInvalidBounds) {
		t.Fatalf("SetBounds(NaN) error = %v", err)
	}
}

func TestTailSamplesFollowsRateAndBounds(t *testing.T) {
	c := newTestChannel(t, 8000, DefaultParams())
	if got, want := c.TailSamples(), MaxOffset(8000, DefaultBounds()); got != want {
		t.Fatalf("TailSamples = %d, want %d", got, want)
	}

	b := Bounds{MaxDelayTime: 20, MaxRoomSize: 10}
	if err := c.SetBounds(b); err != nil {
		t.Fatal(err)
	}
	if got, want := c.TailSamples(), MaxOffset(8000, b); got != want {
		t.Fatalf("TailSamples after SetBounds = %d, want %d", got, want)
	}

	if err := c.SetSampleRate(16000); err != nil {
		t.Fatal(err)
	}
	if got, want := c.TailSamples(), MaxOffset(16000, b); got != want {
		t.Fatalf("TailSamples after SetSampleRate = %d, want %d", got, want)
	}
	if c.Fade().State() == FadeIdle {
		t.Fatal("rate change should still be fading")
	}
}

func TestResetClearsState(t *testing.T) {
	c := newTestChannel(t, 8000, Params{DelayTime: 10, RoomSize: 10, Mix: 1, Volume: 1})
	c.ProcessInPlace(testutil.DeterministicNoise(1, 1, 4000))
	if err := c.SetDelayTime(30); err != nil {
		t.Fatal(err)
	}

	c.Reset()
	if c.Fade().State() != FadeIdle {
		t.Fatalf("state = %v, want idle", c.Fade().State())
	}
	if c.Geometry() != Recompute(30, 10, 8000, DefaultBounds()) {
		t.Fatal("Reset did not apply the current parameters")
	}

	out := make([]float64, 1000)
	c.ProcessInPlace(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v after reset, want 0", i, v)
		}
	}
}

func TestFadeAttenuatesWetDuringTransition(t *testing.T) {
	c := newTestChannel(t, 8000, Params{DelayTime: 0, RoomSize: 0, Mix: 1, Volume: 1})
	last := c.Geometry().Offsets[TapCount-1]
	for i := 0; i <= last; i++ {
		c.ProcessSample(0.01)
	}
	steady := c.ProcessSample(0.01)

	if err := c.SetDelayTime(1); err != nil {
		t.Fatal(err)
	}
	length := c.Fade().Length()
	for i := 0; i < 2*length; i++ {
		y := c.ProcessSample(0.01)
		if math.Abs(y) > math.Abs(steady)+1e-12 {
			t.Fatalf("sample %d: |%v| exceeds steady-state |%v|", i, y, steady)
		}
	}
}

func TestProcessSampleDoesNotAllocate(t *testing.T) {
	c := newTestChannel(t, 48000, DefaultParams())
	if err := c.SetDelayTime(10); err != nil {
		t.Fatal(err)
	}

	allocs := testing.AllocsPerRun(5000, func() {
		c.ProcessSample(0.25)
	})
	if allocs != 0 {
		t.Fatalf("ProcessSample allocated %v times per call", allocs)
	}
}

// --- benchmarks ---

func BenchmarkProcessSample(b *testing.B) {
	c, _ := NewChannel(48000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c.ProcessSample(0.5)
	}
}

func BenchmarkProcessInPlace512(b *testing.B) {
	c, _ := NewChannel(48000)
	buf := testutil.DeterministicNoise(1, 0.5, 512)
	b.SetBytes(int64(len(buf) * 8))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c.ProcessInPlace(buf)
	}
}
