// peak finds peak ground motion and threshold crossings in three component records.
package peak

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Thresholds for Scan.  A zero threshold is not tracked.
type Thresholds struct {
	Watch float64
	Warn  float64
}

// Peak is the result of a Scan.  Watch and Warn are the first indexes at which
// the thresholds were exceeded, or the scan end when they never were.
type Peak struct {
	Value float64
	Index int
	Watch int
	Warn  int
}

// Crossed reports if the warn threshold was exceeded before end.
func (p Peak) Crossed(end int) bool {
	return p.Warn < end
}

// Scan searches ch over [start, end) for the largest absolute amplitude.
// With vectorSum the three components are combined as sqrt(z*z + n*n + e*e)
// for each sample, otherwise the peak is the largest of the individual components.
// end is limited to the shortest component.
func Scan(ch [3][]float32, start, end int, vectorSum bool, th Thresholds) Peak {
	for _, c := range ch {
		if len(c) < end {
			end = len(c)
		}
	}
	if start < 0 {
		start = 0
	}

	p := Peak{Index: start, Watch: end, Warn: end}

	for i := start; i < end; i++ {
		var a float64

		if vectorSum {
			for _, c := range ch {
				a += float64(c[i]) * float64(c[i])
			}
			a = math.Sqrt(a)
		} else {
			for _, c := range ch {
				if v := math.Abs(float64(c[i])); v > a {
					a = v
				}
			}
		}

		if a > p.Value {
			p.Value = a
			p.Index = i
		}

		if th.Watch > 0 && p.Watch == end && a > th.Watch {
			p.Watch = i
		}

		if th.Warn > 0 && p.Warn == end && a > th.Warn {
			p.Warn = i
		}
	}

	return p
}

// Window returns n samples of x from start as float64, or nil if the
// window runs past the end of x.
func Window(x []float32, start, n int) []float64 {
	if start < 0 || n <= 0 || start+n > len(x) {
		return nil
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = float64(x[start+i])
	}

	return w
}

// WindowPeak returns the largest absolute amplitude in the n samples of x from
// start, or 0 if the window runs past the end of x.
func WindowPeak(x []float32, start, n int) float64 {
	w := Window(x, start, n)
	if w == nil {
		return 0
	}

	return floats.Norm(w, math.Inf(1))
}

// Energy is the sum of squared amplitudes over a window of a trace.
type Energy struct {
	Start int // index of the first sample in the window
	Len   int // zero when the window was out of range
	Sum   float64
}

// Accumulate returns the Energy of the n samples of x from start.
func Accumulate(x []float32, start, n int) Energy {
	e := Energy{Start: start}

	w := Window(x, start, n)
	if w == nil {
		return e
	}

	e.Len = n
	e.Sum = floats.Dot(w, w)

	return e
}

// MaxTauC caps the predominant period estimate.
const MaxTauC = 10.0

// TauC returns the predominant period 2*pi*sqrt(disp/vel) of the energies.
// It is 0 if they are not over the same non empty window or vel is zero.
func TauC(vel, disp Energy) float64 {
	if vel.Len == 0 || vel.Start != disp.Start || vel.Len != disp.Len || vel.Sum <= 0 {
		return 0
	}

	tc := 2.0 * math.Pi * math.Sqrt(disp.Sum/vel.Sum)
	if tc > MaxTauC {
		tc = MaxTauC
	}

	return tc
}
