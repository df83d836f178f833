// waveform holds recorded sample series and the conditioning applied before picking.
package waveform

import (
	"time"
)

// Undefined is the SAC value used to mark samples with no data.
const Undefined float32 = -12345.0

// Channel is a single component of ground motion.
type Channel struct {
	Code    string
	Samples []float32
	Delta   float64 // sample interval in seconds
	Start   time.Time
}

// Npts returns the number of samples in c.
func (c Channel) Npts() int {
	return len(c.Samples)
}

// End returns the time of the last sample in c.
func (c Channel) End() time.Time {
	if len(c.Samples) == 0 {
		return c.Start
	}
	return c.Start.Add(time.Duration(float64(len(c.Samples)-1) * c.Delta * float64(time.Second)))
}

// Index returns the sample index of t in c, which may be outside the samples.
func (c Channel) Index(t time.Time) int {
	if c.Delta <= 0 {
		return 0
	}
	return int(t.Sub(c.Start).Seconds() / c.Delta)
}

// GapFill selects what a no data sample becomes after preprocessing.
type GapFill int

const (
	// GapBaseline fills no data samples with the baseline level of the trace,
	// they are zero once the baseline is removed.
	GapBaseline GapFill = iota
	// GapZero fills no data samples with zero in the raw trace, they are
	// minus the baseline once it is removed.
	GapZero
)

// ParseGapFill converts a config value to a GapFill.
func ParseGapFill(s string) (GapFill, bool) {
	switch s {
	case "", "baseline":
		return GapBaseline, true
	case "zero":
		return GapZero, true
	}
	return GapBaseline, false
}

func (g GapFill) String() string {
	switch g {
	case GapZero:
		return "zero"
	default:
		return "baseline"
	}
}
