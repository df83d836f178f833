// leadtime is for the warning time available between a threshold alert and peak shaking.
package leadtime

// Undefined is the lead time when no alert could have been issued.
const Undefined = -1.0

// Input for Compute.  Indexes are samples into the station record.
type Input struct {
	PGAIndex  int
	PGVIndex  int
	DispWarn  int // first sample over the displacement warn threshold
	AccWarn   int // first sample over the acceleration warn threshold
	End       int // scan end, a warn index equal to End was never crossed
	Delta     float64
	PickValid bool
}

// Alert returns the sample the alert is issued at, the later of the threshold
// crossings that happened.  ok is false if there was no pick or neither
// threshold was crossed.
func (in Input) Alert() (index int, ok bool) {
	if !in.PickValid {
		return 0, false
	}

	if in.DispWarn >= in.End && in.AccWarn >= in.End {
		return 0, false
	}

	index = -1
	for _, w := range []int{in.DispWarn, in.AccWarn} {
		if w < in.End && w > index {
			index = w
		}
	}

	return index, true
}

// Compute returns the lead times in seconds for the PGA and PGV.
// Both are Undefined or zero or more.
func Compute(in Input) (pga, pgv float64) {
	alert, ok := in.Alert()
	if !ok {
		return Undefined, Undefined
	}

	return lead(in.PGAIndex, alert, in.Delta), lead(in.PGVIndex, alert, in.Delta)
}

func lead(peak, alert int, delta float64) float64 {
	l := float64(peak-alert) * delta
	if l < 0 {
		return 0
	}
	return l
}
