package picker_test

import (
	"math/rand"
	"testing"

	"github.com/GeoNet/postmajor/internal/picker"
)

const (
	delta = 0.01
	npts  = 6000
)

// noise returns npts samples of gaussian noise with standard deviation std.
func noise(r *rand.Rand, std float64) []float32 {
	x := make([]float32, npts)
	for i := range x {
		x[i] = float32(r.NormFloat64() * std)
	}
	return x
}

// step raises the noise level of x to std from sample at onwards.
func step(r *rand.Rand, x []float32, at int, std float64) {
	for i := at; i < len(x); i++ {
		x[i] = float32(r.NormFloat64() * std)
	}
}

func TestPickStep(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	const t0 = 2000

	z := noise(r, 0.01)
	step(r, z, t0, 0.5)

	n := noise(r, 0.01)
	e := noise(r, 0.01)

	zc := make([]float32, len(z))
	copy(zc, z)

	res := picker.Pick(z, n, e, delta, 0)

	if res.Code < picker.POnly {
		t.Fatalf("expected a P pick got %+v", res)
	}

	if res.P < t0-4000 || res.P > t0+4000 {
		t.Errorf("P arrival %d too far from %d", res.P, t0)
	}

	if res.P > res.PTrigger {
		t.Errorf("arrival %d after trigger %d", res.P, res.PTrigger)
	}

	if res.PWeight != 0 && res.PWeight != 1 {
		t.Errorf("expected weight 0 or 1 got %f", res.PWeight)
	}

	if res.Code != picker.POnly {
		t.Errorf("expected no S on noise horizontals got %s", res.Code)
	}

	for i := range z {
		if z[i] != zc[i] {
			t.Fatalf("input modified at %d", i)
		}
	}
}

func TestPickNoTrigger(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	res := picker.Pick(noise(r, 1.0), noise(r, 1.0), noise(r, 1.0), delta, 0)

	if res.Code != picker.None {
		t.Errorf("expected no pick got %+v", res)
	}

	if res.PWeight != 4.0 {
		t.Errorf("expected weight 4 got %f", res.PWeight)
	}

	if res.P != -1 || res.S != -1 {
		t.Errorf("expected unset arrivals got %d %d", res.P, res.S)
	}
}

func TestPickS(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	z := noise(r, 0.01)
	step(r, z, 2000, 0.5)

	n := noise(r, 0.01)
	step(r, n, 2500, 0.5)

	e := noise(r, 0.01)
	step(r, e, 2500, 0.5)

	res := picker.Pick(z, n, e, delta, 0)

	if res.Code != picker.PAndS {
		t.Fatalf("expected P and S got %+v", res)
	}

	if res.S < 2400 || res.S > 2510 {
		t.Errorf("S arrival %d too far from 2500", res.S)
	}

	if res.SWeight > 1 {
		t.Errorf("expected S weight 0 or 1 got %f", res.SWeight)
	}
}

func TestPickStart(t *testing.T) {
	r := rand.New(rand.NewSource(9))

	const (
		pOnset = 500
		sOnset = 800
	)

	z := noise(r, 0.01)
	step(r, z, pOnset, 0.5)

	n := noise(r, 0.01)
	step(r, n, sOnset, 0.5)

	e := noise(r, 0.01)
	step(r, e, sOnset, 0.5)

	// the onset is inside the leading ista+100 samples from start for 450.
	for _, start := range []int{0, 300, 450} {
		res := picker.Pick(z, n, e, delta, start)

		if res.Code != picker.PAndS {
			t.Errorf("start %d: expected P and S got %+v", start, res)
			continue
		}

		if res.P < pOnset-10 || res.P > pOnset+10 {
			t.Errorf("start %d: P arrival %d too far from %d", start, res.P, pOnset)
		}

		if res.S < sOnset-10 || res.S > sOnset+10 {
			t.Errorf("start %d: S arrival %d too far from %d", start, res.S, sOnset)
		}
	}
}

func TestPickRejects(t *testing.T) {
	r := rand.New(rand.NewSource(5))

	// a level shift at the arrival.
	drift := noise(r, 0.01)
	for i := 2000; i < npts; i++ {
		drift[i] += 5.0
	}

	// a short burst followed by a dead trace.
	spike := noise(r, 0.01)
	step(r, spike, 2000, 0.5)
	for i := 2050; i < npts; i++ {
		spike[i] = 0.0
	}

	testCases := []struct {
		id string
		z  []float32
	}{
		{id: "drift", z: drift},
		{id: "spike", z: spike},
	}

	for _, v := range testCases {
		res := picker.Pick(v.z, noise(r, 0.01), noise(r, 0.01), delta, 0)

		if res.PTrigger < 0 {
			t.Errorf("%s: expected the detector to trigger", v.id)
		}

		if res.Code != picker.None {
			t.Errorf("%s: expected the pick to be rejected got %+v", v.id, res)
		}
	}
}

func TestPickBounds(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	z := noise(r, 0.01)
	step(r, z, 2000, 0.5)

	// starting after the step never sees the onset.
	res := picker.Pick(z, z, z, delta, npts)
	if res.Code != picker.None {
		t.Errorf("expected no pick starting past the end got %+v", res)
	}

	res = picker.Pick(z[:1], z[:1], z[:1], delta, 0)
	if res.Code != picker.None {
		t.Errorf("expected no pick for a single sample got %+v", res)
	}
}
