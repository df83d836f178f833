// filter is for high-pass filtering, integrating and differentiating strong motion records.
package filter

/*

Recursive high-pass filtering of strong motion records before and after integration.
A two pole Butterworth high-pass with a 0.075 Hz corner removes the long period drift
that integration of acceleration otherwise turns into a runaway displacement.

The filter is a single biquad section, y = b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2,
designed with the bilinear transform and frequency pre-warping.

*/

import (
	"math"
)

// Corner is the default high-pass corner frequency in Hz.
const Corner = 0.075

// Coefficients of a normalised biquad section (a0 = 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Source selects where a HighPass gets its coefficients from.
type Source int

const (
	// Designed coefficients are derived from the sample interval.
	Designed Source = iota
	// Tabulated coefficients are looked up for the common strong motion sample rates,
	// falling back to Designed for any other rate.
	Tabulated
)

// ParseSource converts a config value to a Source.
func ParseSource(s string) (Source, bool) {
	switch s {
	case "", "designed":
		return Designed, true
	case "tabulated":
		return Tabulated, true
	}
	return Designed, false
}

// Design returns two pole Butterworth high-pass coefficients for the corner
// frequency fc (Hz) at sample interval delta (s).
func Design(delta, fc float64) Coefficients {
	k := math.Tan(math.Pi * fc * delta)
	k2 := k * k
	norm := 1.0 / (1.0 + math.Sqrt2*k + k2)

	return Coefficients{
		B0: norm,
		B1: -2.0 * norm,
		B2: norm,
		A1: 2.0 * (k2 - 1.0) * norm,
		A2: (1.0 - math.Sqrt2*k + k2) * norm,
	}
}

// 0.075 Hz coefficients keyed by sample rate.
var table = map[int]Coefficients{
	100: {B0: 0.9966734, B1: -1.993347, B2: 0.9966734, A1: -1.993336, A2: 0.9933579},
	50:  {B0: 0.993357897, B1: -1.98671579, B2: 0.993357897, A1: -1.98667157, A2: 0.986759841},
	40:  {B0: 0.9917042, B1: -1.983408, B2: 0.9917042, A1: -1.983340, A2: 0.9834772},
	20:  {B0: 0.983477175, B1: -1.96695435, B2: 0.983477175, A1: -1.96668136, A2: 0.967227399},
}

// Table returns the tabulated 0.075 Hz coefficients for delta.  ok is false
// if the sample rate is not one of 20, 40, 50 or 100 Hz.
func Table(delta float64) (c Coefficients, ok bool) {
	if delta <= 0 {
		return c, false
	}

	rate := 1.0 / delta
	r := int(math.Round(rate))

	if math.Abs(rate-float64(r)) > 1e-3 {
		return c, false
	}

	c, ok = table[r]
	return c, ok
}

// State is the memory of one biquad section.  The zero value is a reset filter.
type State struct {
	x1, x2 float64 // previous inputs
	y1, y2 float64 // previous outputs
}

// Sample filters x through c and updates s.
func (s *State) Sample(c Coefficients, x float64) float64 {
	y := c.B0*x + c.B1*s.x1 + c.B2*s.x2 - (c.A1*s.y1 + c.A2*s.y2)

	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y

	return y
}

// HighPass applies a fixed biquad to whole traces.
// Each call to Apply starts from a reset State so a HighPass can be shared.
type HighPass struct {
	Coefficients Coefficients
	ZeroPhase    bool
}

// Options for NewHighPass.
type Options struct {
	Corner    float64 // Hz, zero uses Corner
	Source    Source
	ZeroPhase bool
}

// NewHighPass returns a HighPass for sample interval delta.
func NewHighPass(delta float64, opts Options) HighPass {
	fc := opts.Corner
	if fc <= 0 {
		fc = Corner
	}

	h := HighPass{ZeroPhase: opts.ZeroPhase}

	if opts.Source == Tabulated && fc == Corner {
		if c, ok := Table(delta); ok {
			h.Coefficients = c
			return h
		}
	}

	h.Coefficients = Design(delta, fc)

	return h
}

// Apply filters x in place.  In zero phase mode x is filtered forward then backward.
func (h HighPass) Apply(x []float32) {
	var s State

	for i := range x {
		x[i] = float32(s.Sample(h.Coefficients, float64(x[i])))
	}

	if !h.ZeroPhase {
		return
	}

	s = State{}

	for i := len(x) - 1; i >= 0; i-- {
		x[i] = float32(s.Sample(h.Coefficients, float64(x[i])))
	}
}
