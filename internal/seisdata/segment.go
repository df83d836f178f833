package seisdata

import (
	"math"
	"sort"
	"time"

	"github.com/GeoNet/postmajor/internal/waveform"
	"github.com/pkg/errors"
)

// segment is a run of contiguous samples from one record or packet.
type segment struct {
	start   time.Time
	delta   float64
	samples []float32
}

// join assembles the segments of a channel in time order.  Samples missing
// between segments are set to waveform.Undefined and samples already seen are
// dropped.
func join(segs []segment) (waveform.Channel, error) {
	if len(segs) == 0 {
		return waveform.Channel{}, ErrNoData
	}

	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].start.Before(segs[j].start)
	})

	c := waveform.Channel{
		Start: segs[0].start,
		Delta: segs[0].delta,
	}

	if c.Delta <= 0 {
		return waveform.Channel{}, errors.Errorf("invalid sample interval %g", c.Delta)
	}

	for _, s := range segs {
		if math.Abs(s.delta-c.Delta) > epsilon {
			return waveform.Channel{}, errors.Wrapf(ErrMismatch, "sample interval changes from %g to %g", c.Delta, s.delta)
		}

		// index of the first sample of s in c.
		i := int(math.Round(s.start.Sub(c.Start).Seconds() / c.Delta))

		samples := s.samples

		switch {
		case i > len(c.Samples):
			for n := len(c.Samples); n < i; n++ {
				c.Samples = append(c.Samples, waveform.Undefined)
			}
		case i < len(c.Samples):
			skip := len(c.Samples) - i
			if skip >= len(samples) {
				continue
			}
			samples = samples[skip:]
		}

		c.Samples = append(c.Samples, samples...)
	}

	return c, nil
}

// epochTime converts decimal epoch seconds to a time rounded to the microsecond.
func epochTime(t float64) time.Time {
	sec, frac := math.Modf(t)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*1000).UTC()
}
