package waveform

// Options controls Preprocess.
type Options struct {
	Gain float64
	// Window is the number of leading samples used for the baseline.
	// Zero or less uses the first 10% of the trace.
	Window int
	Gaps   GapFill
}

// Result summarises a Preprocess call.
type Result struct {
	Baseline float64
	Gaps     int
}

// Preprocess scales samples by the gain and removes the baseline in place.
// Samples equal to Undefined are excluded from the baseline and are filled
// according to opts.Gaps.
func Preprocess(samples []float32, opts Options) Result {
	var res Result

	if len(samples) == 0 {
		return res
	}

	gap := make([]bool, len(samples))

	for i, v := range samples {
		if v == Undefined {
			gap[i] = true
			samples[i] = 0.0
			res.Gaps++
			continue
		}
		samples[i] = float32(float64(v) * opts.Gain)
	}

	w := opts.Window
	if w <= 0 {
		w = len(samples) / 10
	}
	if w <= 0 || w > len(samples) {
		w = len(samples)
	}

	var sum float64
	var n int

	for i := 0; i < w; i++ {
		if gap[i] {
			continue
		}
		sum += float64(samples[i])
		n++
	}

	if n < 1 {
		n = 1
	}

	res.Baseline = sum / float64(n)

	b := float32(res.Baseline)

	for i := range samples {
		switch {
		case !gap[i]:
			samples[i] -= b
		case opts.Gaps == GapZero:
			samples[i] = -b
		default:
			samples[i] = 0.0
		}
	}

	return res
}
