// picker finds P and S phase arrivals with a recursive STA/LTA detector.
package picker

// Phase holds the detector settings for one seismic phase.
type Phase struct {
	STA     float64    // short term window, seconds
	LTA     float64    // long term window, seconds
	Arrive  float64    // the arrival is the last sample at or under this ratio
	Trigger float64    // the detector triggers on the first sample over this ratio
	Weights [4]float64 // quality ratios for weights 0, 1, 2 and 3
}

// Config for Pick.  The zero value is not usable, start from Default.
type Config struct {
	P, S Phase

	// LTAFloor is the smallest long term average used in the ratio.
	LTAFloor float64
	// Window is the length in seconds of the quality and rejection windows.
	Window float64
	// SpikeLag is the delay in seconds after the arrival of the spike check window.
	SpikeLag float64
	// SpikeRatio is the smallest accepted amplitude ratio of the spike check window
	// to the window before the arrival.
	SpikeRatio float64
	// DriftLimit is the largest accepted change in mean level across the arrival.
	DriftLimit float64
	// SearchStart and SearchEnd bound the S search in seconds after the P trigger.
	SearchStart, SearchEnd float64
}

// Default is the configuration used for strong motion accelerograms.
var Default = Config{
	P: Phase{
		STA:     0.4,
		LTA:     40.0,
		Arrive:  1.25,
		Trigger: 2.85,
		Weights: [4]float64{30, 15, 3, 1.5},
	},
	S: Phase{
		STA:     0.5,
		LTA:     3.0,
		Arrive:  1.25,
		Trigger: 3.0,
		Weights: [4]float64{30, 15, 5, 2},
	},
	LTAFloor:    0.005,
	Window:      1.0,
	SpikeLag:    2.0,
	SpikeRatio:  1.05,
	DriftLimit:  1.0,
	SearchStart: 2.0,
	SearchEnd:   42.0,
}

// Code summarises what Pick found.
type Code int

const (
	None  Code = iota // no P arrival
	POnly             // P arrival only
	PAndS             // P and S arrivals
)

func (c Code) String() string {
	switch c {
	case POnly:
		return "P"
	case PAndS:
		return "P+S"
	default:
		return "none"
	}
}

// Result of a Pick.  Indexes are -1 when the phase was not found.
type Result struct {
	P        int     // P arrival index
	PTrigger int     // index the P detector triggered at
	PWeight  float64 // 0 (best) to 4 (unusable)
	S        int
	SWeight  float64
	// SNR is the ratio of the mean squared amplitude after the P arrival to before it.
	SNR  float64
	Code Code
}

// Pick runs Default.Pick.
func Pick(z, n, e []float32, delta float64, start int) Result {
	return Default.Pick(z, n, e, delta, start)
}

// Pick looks for a P arrival on z at or after start and, when one is found, an S
// arrival on the combined horizontals n and e.  The inputs are not modified.
func (c Config) Pick(z, n, e []float32, delta float64, start int) Result {
	res := Result{P: -1, PTrigger: -1, PWeight: 4.0, S: -1, SWeight: 4.0}

	npts := len(z)
	if len(n) < npts {
		npts = len(n)
	}
	if len(e) < npts {
		npts = len(e)
	}

	if npts < 2 || delta <= 0 {
		return res
	}

	vz := demean(z[:npts])

	cf := make([]float64, npts)
	for i := range cf {
		cf[i] = cf2(vz, i)
	}

	p, trig, ok := c.P.detect(cf, start, npts, delta, c.LTAFloor)
	if !ok {
		return res
	}

	res.PTrigger = trig

	w := int(c.Window / delta)
	if w < 1 {
		w = 1
	}

	res.SNR, res.PWeight = c.P.quality(vz, nil, p, w)

	if res.PWeight >= 4.0 {
		return res
	}

	if c.spike(vz, p, w, delta) || c.drift(vz, p, w) {
		res.PWeight = 4.0
		return res
	}

	res.P = p
	res.Code = POnly

	vn := demean(n[:npts])
	ve := demean(e[:npts])

	for i := range cf {
		cf[i] = cf2(vn, i) + cf2(ve, i)
	}

	from := trig + int(c.SearchStart/delta)
	to := trig + int(c.SearchEnd/delta) + 1
	if to > npts {
		to = npts
	}

	if from >= to {
		return res
	}

	s, _, ok := c.S.detect(cf[:to], from, to, delta, c.LTAFloor)
	if !ok {
		return res
	}

	_, sw := c.S.quality(vn, ve, s, w)
	if sw >= 4.0 {
		return res
	}

	res.S = s
	res.SWeight = sw
	res.Code = PAndS

	return res
}

// detect runs the STA/LTA detector over cf from start.  The detector is seeded
// from the first ista+100 samples of the record, before any onset.
func (ph Phase) detect(cf []float64, start, npts int, delta, floor float64) (arrival, trigger int, ok bool) {
	ista := int(ph.STA / delta)
	ilta := int(ph.LTA / delta)
	if ista < 1 {
		ista = 1
	}
	if ilta < 1 {
		ilta = 1
	}

	if start < 0 {
		start = 0
	}
	if start >= npts {
		return -1, -1, false
	}

	seed := ista + 100
	if seed > npts {
		seed = npts
	}

	var sta float64
	for i := 0; i < seed; i++ {
		sta += cf[i]
	}
	sta /= float64(seed)

	lta := 1.25 * sta

	arrival = start

	for i := start; i < npts; i++ {
		sta = (sta*float64(ista-1) + cf[i]) / float64(ista)
		lta = (lta*float64(ilta-1) + cf[i]) / float64(ilta)
		if lta < floor {
			lta = floor
		}

		ratio := sta / lta

		if ratio <= ph.Arrive {
			arrival = i
		}

		if ratio > ph.Trigger {
			return arrival, i, true
		}
	}

	return -1, -1, false
}

// quality returns the ratio of the mean squared amplitude in the w samples from
// arrival to the w samples before it, and the weight for that ratio.  b is
// added to a when it is not nil.
func (ph Phase) quality(a, b []float64, arrival, w int) (ratio, weight float64) {
	if arrival+w > len(a) || arrival < 1 {
		return 0, 3.0
	}

	before := meanSquare(a, b, arrival-w, arrival)
	after := meanSquare(a, b, arrival, arrival+w)

	switch {
	case before > 0:
		ratio = after / before
	case after > 0:
		ratio = after / 1e-30
	}

	for i, t := range ph.Weights {
		if ratio > t {
			return ratio, float64(i)
		}
	}

	return ratio, 4.0
}

// spike is true when the amplitude a little after the arrival has already
// returned to the pre-arrival level.
func (c Config) spike(x []float64, p, w int, delta float64) bool {
	lag := p + int(c.SpikeLag/delta)
	if lag+w > len(x) || p < 1 {
		return false
	}

	before := meanSquare(x, nil, p-w, p)
	if before <= 0 {
		return false
	}

	return meanSquare(x, nil, lag, lag+w)/before < c.SpikeRatio
}

// drift is true when the mean level after the arrival has moved away from
// the level a second or two before it.
func (c Config) drift(x []float64, p, w int) bool {
	if p+w > len(x) || p-w < 1 {
		return false
	}

	from := p - 2*w
	if from < 0 {
		from = 0
	}

	d := mean(x, p, p+w) - mean(x, from, p-w)
	if d < 0 {
		d = -d
	}

	return d > c.DriftLimit
}

// cf2 is the characteristic function (x[i]-x[i-1])^2 + x[i]^2.
func cf2(x []float64, i int) float64 {
	var d float64
	if i > 0 {
		d = x[i] - x[i-1]
	}
	return d*d + x[i]*x[i]
}

// demean returns a copy of x less its mean over the leading 10%.
func demean(x []float32) []float64 {
	n := len(x) / 10
	if n <= 0 {
		n = len(x)
	}

	var m float64
	for i := 0; i < n; i++ {
		m += float64(x[i])
	}
	m /= float64(n)

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v) - m
	}

	return out
}

func mean(x []float64, from, to int) float64 {
	if to <= from {
		return 0
	}

	var s float64
	for i := from; i < to; i++ {
		s += x[i]
	}

	return s / float64(to-from)
}

func meanSquare(a, b []float64, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to <= from {
		return 0
	}

	var s float64
	for i := from; i < to; i++ {
		s += a[i] * a[i]
		if b != nil {
			s += b[i] * b[i]
		}
	}

	return s / float64(to-from)
}
