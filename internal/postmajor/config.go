package postmajor

import (
	"bytes"
	"io"
	"os"

	"github.com/GeoNet/postmajor/internal/filter"
	"github.com/GeoNet/postmajor/internal/peak"
	"github.com/GeoNet/postmajor/internal/picker"
	"github.com/GeoNet/postmajor/internal/quake"
	"github.com/GeoNet/postmajor/internal/waveform"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config for a Processor.  It is not changed once processing starts.
type Config struct {
	Picker      picker.Config
	HighPass    filter.Options
	Integration filter.Integration

	Gaps waveform.GapFill
	// BaselineWindow is the number of leading samples averaged for the baseline,
	// zero for the first 10% of each trace.
	BaselineWindow int

	VectorSum    bool
	Acceleration peak.Thresholds // gal
	Displacement peak.Thresholds // cm

	// Window is the length in seconds after the P arrival for Pa3, Pv3, Pd3 and Tau-c.
	Window float64
	// Duration is the length in seconds after the P arrival that peaks are searched for.
	Duration float64

	Distance quake.Method

	// Velocity is true when the input data are velocity rather than acceleration.
	Velocity bool

	// Workers is the number of stations processed at once.
	Workers int
}

// Default is the configuration for strong motion accelerograms in gal.
var Default = Config{
	Picker:       picker.Default,
	HighPass:     filter.Options{Corner: filter.Corner},
	Integration:  filter.Standard,
	Gaps:         waveform.GapBaseline,
	Acceleration: peak.Thresholds{Watch: 4.0, Warn: 80.0},
	Displacement: peak.Thresholds{Warn: 0.35},
	Window:       3.0,
	Duration:     180.0,
	Distance:     quake.Flat,
	Workers:      1,
}

type phase struct {
	STA     float64    `yaml:"sta"`
	LTA     float64    `yaml:"lta"`
	Arrive  float64    `yaml:"arrive"`
	Trigger float64    `yaml:"trigger"`
	Weights [4]float64 `yaml:"weights,flow"`
}

type thresholds struct {
	Watch float64 `yaml:"watch"`
	Warn  float64 `yaml:"warn"`
}

// settings is the YAML config file.  Anything not in the file keeps the value it
// was given before unmarshaling.
type settings struct {
	Picker struct {
		P           phase   `yaml:"p"`
		S           phase   `yaml:"s"`
		LTAFloor    float64 `yaml:"lta_floor"`
		Window      float64 `yaml:"window"`
		SpikeLag    float64 `yaml:"spike_lag"`
		SpikeRatio  float64 `yaml:"spike_ratio"`
		DriftLimit  float64 `yaml:"drift_limit"`
		SearchStart float64 `yaml:"s_search_start"`
		SearchEnd   float64 `yaml:"s_search_end"`
	} `yaml:"picker"`

	HighPass struct {
		Corner       float64 `yaml:"corner"`
		Coefficients string  `yaml:"coefficients"`
		ZeroPhase    bool    `yaml:"zero_phase"`
	} `yaml:"highpass"`

	Integration    string     `yaml:"integration"`
	Gaps           string     `yaml:"gaps"`
	BaselineWindow int        `yaml:"baseline_window"`
	VectorSum      bool       `yaml:"vector_sum"`
	Acceleration   thresholds `yaml:"acceleration"`
	Displacement   thresholds `yaml:"displacement"`
	Window         float64    `yaml:"window"`
	Duration       float64    `yaml:"duration"`
	Distance       string     `yaml:"distance"`
	Input          string     `yaml:"input"`
	Workers        int        `yaml:"workers"`
}

func toSettings(c Config) settings {
	var s settings

	s.Picker.P = phase(c.Picker.P)
	s.Picker.S = phase(c.Picker.S)
	s.Picker.LTAFloor = c.Picker.LTAFloor
	s.Picker.Window = c.Picker.Window
	s.Picker.SpikeLag = c.Picker.SpikeLag
	s.Picker.SpikeRatio = c.Picker.SpikeRatio
	s.Picker.DriftLimit = c.Picker.DriftLimit
	s.Picker.SearchStart = c.Picker.SearchStart
	s.Picker.SearchEnd = c.Picker.SearchEnd

	s.HighPass.Corner = c.HighPass.Corner
	s.HighPass.ZeroPhase = c.HighPass.ZeroPhase
	s.HighPass.Coefficients = "designed"
	if c.HighPass.Source == filter.Tabulated {
		s.HighPass.Coefficients = "tabulated"
	}

	s.Integration = c.Integration.String()
	s.Gaps = c.Gaps.String()
	s.BaselineWindow = c.BaselineWindow
	s.VectorSum = c.VectorSum
	s.Acceleration = thresholds(c.Acceleration)
	s.Displacement = thresholds(c.Displacement)
	s.Window = c.Window
	s.Duration = c.Duration

	s.Distance = "flat"
	if c.Distance == quake.Geodesic {
		s.Distance = "wgs84"
	}

	s.Input = "acceleration"
	if c.Velocity {
		s.Input = "velocity"
	}

	s.Workers = c.Workers

	return s
}

func (s settings) config() (Config, error) {
	var c Config
	var ok bool

	c.Picker = picker.Config{
		P:           picker.Phase(s.Picker.P),
		S:           picker.Phase(s.Picker.S),
		LTAFloor:    s.Picker.LTAFloor,
		Window:      s.Picker.Window,
		SpikeLag:    s.Picker.SpikeLag,
		SpikeRatio:  s.Picker.SpikeRatio,
		DriftLimit:  s.Picker.DriftLimit,
		SearchStart: s.Picker.SearchStart,
		SearchEnd:   s.Picker.SearchEnd,
	}

	c.HighPass.Corner = s.HighPass.Corner
	c.HighPass.ZeroPhase = s.HighPass.ZeroPhase
	if c.HighPass.Source, ok = filter.ParseSource(s.HighPass.Coefficients); !ok {
		return c, errors.Errorf("unknown highpass coefficients %q", s.HighPass.Coefficients)
	}

	if c.Integration, ok = filter.ParseIntegration(s.Integration); !ok {
		return c, errors.Errorf("unknown integration %q", s.Integration)
	}

	if c.Gaps, ok = waveform.ParseGapFill(s.Gaps); !ok {
		return c, errors.Errorf("unknown gaps %q", s.Gaps)
	}

	if c.Distance, ok = quake.ParseMethod(s.Distance); !ok {
		return c, errors.Errorf("unknown distance %q", s.Distance)
	}

	switch s.Input {
	case "", "acceleration":
	case "velocity":
		c.Velocity = true
	default:
		return c, errors.Errorf("unknown input %q", s.Input)
	}

	c.BaselineWindow = s.BaselineWindow
	c.VectorSum = s.VectorSum
	c.Acceleration = peak.Thresholds(s.Acceleration)
	c.Displacement = peak.Thresholds(s.Displacement)
	c.Window = s.Window
	c.Duration = s.Duration
	c.Workers = s.Workers

	return c, c.Validate()
}

// Validate returns an error if c can not be used.
func (c Config) Validate() error {
	for _, p := range []picker.Phase{c.Picker.P, c.Picker.S} {
		if p.STA <= 0 || p.LTA <= 0 {
			return errors.New("picker sta and lta must be positive")
		}
		if p.Arrive <= 0 || p.Trigger <= p.Arrive {
			return errors.New("picker trigger must be over arrive and arrive positive")
		}
	}

	switch {
	case c.Picker.LTAFloor <= 0:
		return errors.New("picker lta_floor must be positive")
	case c.Picker.Window <= 0:
		return errors.New("picker window must be positive")
	case c.Picker.SearchEnd <= c.Picker.SearchStart:
		return errors.New("picker s_search_end must be after s_search_start")
	case c.HighPass.Corner < 0:
		return errors.New("highpass corner can not be negative")
	case c.BaselineWindow < 0:
		return errors.New("baseline_window can not be negative")
	case c.Acceleration.Watch < 0, c.Acceleration.Warn < 0, c.Displacement.Watch < 0, c.Displacement.Warn < 0:
		return errors.New("thresholds can not be negative")
	case c.Window <= 0:
		return errors.New("window must be positive")
	case c.Duration <= 0:
		return errors.New("duration must be positive")
	case c.Workers < 1:
		return errors.New("workers must be at least 1")
	}

	return nil
}

// ReadConfig reads the YAML config file at path over base.
func ReadConfig(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrap(err, "reading config")
	}

	return ParseConfig(b, base)
}

// ParseConfig parses the YAML config b over base.  Unknown keys are an error.
func ParseConfig(b []byte, base Config) (Config, error) {
	s := toSettings(base)

	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)

	if err := d.Decode(&s); err != nil && err != io.EOF {
		return base, errors.Wrap(err, "parsing config")
	}

	c, err := s.config()
	if err != nil {
		return base, errors.Wrap(err, "invalid config")
	}

	return c, nil
}
