package filter

// Integrate replaces x with its trapezoidal integral.  The sample before x[0]
// and its integral are taken as zero.  If hp is not nil the integral is high-pass
// filtered.
func Integrate(x []float32, delta float64, hp *HighPass) {
	half := delta * 0.5

	var prev, sum float64

	for i := range x {
		v := float64(x[i])
		sum += (v + prev) * half
		prev = v
		x[i] = float32(sum)
	}

	if hp != nil {
		hp.Apply(x)
	}
}

// Differentiate replaces x with its backward difference.  The sample before x[0]
// is taken as zero.
func Differentiate(x []float32, delta float64) {
	var prev float64

	for i := range x {
		v := float64(x[i])
		x[i] = float32((v - prev) / delta)
		prev = v
	}
}

// Integration selects how acceleration is converted to velocity and displacement.
type Integration int

const (
	// Standard filters after each integration.
	Standard Integration = iota
	// TwoStage also filters the acceleration before the first integration.
	TwoStage
	// SingleStage integrates twice, filters the displacement once, and
	// differentiates the displacement for velocity.
	SingleStage
)

// ParseIntegration converts a config value to an Integration.
func ParseIntegration(s string) (Integration, bool) {
	switch s {
	case "", "standard":
		return Standard, true
	case "two-stage":
		return TwoStage, true
	case "single-stage":
		return SingleStage, true
	}
	return Standard, false
}

func (i Integration) String() string {
	switch i {
	case TwoStage:
		return "two-stage"
	case SingleStage:
		return "single-stage"
	default:
		return "standard"
	}
}

// Chain converts acceleration to velocity and displacement.
type Chain struct {
	HighPass HighPass
	Mode     Integration
}

// Motion returns the velocity and displacement for acc.  acc is not modified.
func (c Chain) Motion(acc []float32, delta float64) (vel, disp []float32) {
	vel = make([]float32, len(acc))
	copy(vel, acc)

	switch c.Mode {
	case SingleStage:
		Integrate(vel, delta, nil)
		Integrate(vel, delta, nil)
		c.HighPass.Apply(vel)

		disp = make([]float32, len(vel))
		copy(disp, vel)

		Differentiate(vel, delta)

		return vel, disp
	case TwoStage:
		c.HighPass.Apply(vel)
	}

	Integrate(vel, delta, &c.HighPass)

	disp = make([]float32, len(vel))
	copy(disp, vel)

	Integrate(disp, delta, &c.HighPass)

	return vel, disp
}
