package param

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-reversegate/dsp/core"
)

// ID identifies a parameter.
type ID int

const (
	DelayTime ID = iota
	RoomSize
	Mix
	Volume

	// Count is the number of parameters.
	Count int = iota
)

// ErrUnknownParameter is returned for names or IDs that are not defined.
var ErrUnknownParameter = errors.New("param: unknown parameter")

// Spec describes one host-visible parameter.
type Spec struct {
	ID      ID
	Name    string
	Min     float64
	Max     float64
	Default float64
	Step    float64
	Unit    string
}

var specs = [Count]Spec{
	{ID: DelayTime, Name: "DELAY TIME", Min: 0, Max: 50, Default: 30, Step: 0.05, Unit: "ms"},
	{ID: RoomSize, Name: "ROOM SIZE", Min: 0, Max: 500, Default: 15, Step: 0.05, Unit: "ms"},
	{ID: Mix, Name: "MIX", Min: 0, Max: 100, Default: 50, Step: 0.1, Unit: "%"},
	{ID: Volume, Name: "VOLUME", Min: 0, Max: 1, Default: 0.8, Step: 0.1},
}

// Specs returns all parameter descriptions in ID order.
func Specs() []Spec {
	out := make([]Spec, Count)
	copy(out, specs[:])
	return out
}

// Lookup returns the Spec for id.
func Lookup(id ID) (Spec, error) {
	if id < 0 || int(id) >= Count {
		return Spec{}, fmt.Errorf("%w: id %d", ErrUnknownParameter, id)
	}
	return specs[id], nil
}

// LookupName returns the Spec with the given host name. Matching ignores
// case and surrounding space.
func LookupName(name string) (Spec, error) {
	name = strings.TrimSpace(name)
	for _, s := range specs {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// String returns the host name of id.
func (id ID) String() string {
	if id < 0 || int(id) >= Count {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return specs[id].Name
}

// Clamp limits v to the parameter range. NaN maps to the default.
func (s Spec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}
	return core.Clamp(v, s.Min, s.Max)
}

// Normalize maps v from [Min, Max] to [0, 1].
func (s Spec) Normalize(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Clamp(v) - s.Min) / (s.Max - s.Min)
}

// Denormalize maps n from [0, 1] to [Min, Max].
func (s Spec) Denormalize(n float64) float64 {
	return s.Clamp(s.Min + core.Clamp(n, 0, 1)*(s.Max-s.Min))
}

// Quantize snaps v to the nearest step within range.
func (s Spec) Quantize(v float64) float64 {
	v = s.Clamp(v)
	if s.Step <= 0 {
		return v
	}
	steps := math.Round((v - s.Min) / s.Step)
	return s.Clamp(s.Min + steps*s.Step)
}
