// seisdata is for reading the three component waveforms of a station from SAC,
// miniSEED or Earthworm tank files.
package seisdata

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/GeoNet/postmajor/internal/station"
	"github.com/GeoNet/postmajor/internal/waveform"
	"github.com/pkg/errors"
)

var (
	// ErrMismatch is returned when the channels of a station do not share a
	// sample interval or start time.
	ErrMismatch = errors.New("channels do not match")
	// ErrNoData is returned when there are no samples for a channel.
	ErrNoData = errors.New("no data")
)

// float32 machine epsilon, the tolerance for matching channel headers.
const epsilon = 1.1920929e-07

// Format is the file format of the waveform data.
type Format int

const (
	SAC Format = iota
	MiniSEED
	MiniSEED3
	Tank
)

// ParseFormat converts a format name (SAC, MSEED, MSEED3 or TANK) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(s) {
	case "SAC":
		return SAC, nil
	case "MSEED":
		return MiniSEED, nil
	case "MSEED3":
		return MiniSEED3, nil
	case "TANK":
		return Tank, nil
	}

	return SAC, fmt.Errorf("unknown data format %q", s)
}

func (f Format) String() string {
	switch f {
	case MiniSEED:
		return "MSEED"
	case MiniSEED3:
		return "MSEED3"
	case Tank:
		return "TANK"
	default:
		return "SAC"
	}
}

// Loader reads the waveforms for stations from a Source.
//
// A multiplexed Loader reads a single object holding the data for all stations
// the first time it is used.  Otherwise there is one object per channel.
type Loader struct {
	src         Source
	format      Format
	multiplexed bool

	once   sync.Once
	traces map[string]waveform.Channel
	err    error
}

// NewLoader returns a Loader.  Tank data is always multiplexed.
func NewLoader(src Source, format Format, multiplexed bool) *Loader {
	return &Loader{
		src:         src,
		format:      format,
		multiplexed: multiplexed || format == Tank,
	}
}

// Load reads the Z, N and E channels for s into s.Data.  Channels are trimmed
// to the shortest of the three.  Load is safe for concurrent use.
func (l *Loader) Load(s *station.Station) error {
	var chs [station.Components]waveform.Channel

	for i, code := range s.Channels {
		var err error

		chs[i], err = l.channel(s, code)
		if err != nil {
			return errors.Wrapf(err, "%s.%s", s.SNL(), code)
		}
	}

	chs, err := Align(chs)
	if err != nil {
		return errors.Wrap(err, s.SNL())
	}

	s.Data = chs

	return nil
}

func (l *Loader) channel(s *station.Station, code string) (waveform.Channel, error) {
	if l.multiplexed {
		l.once.Do(l.read)
		if l.err != nil {
			return waveform.Channel{}, l.err
		}

		c, ok := l.traces[key(s.Network, s.Station, s.Location, code)]
		if !ok {
			return waveform.Channel{}, ErrNoData
		}

		// the samples are processed in place.
		c.Samples = append([]float32(nil), c.Samples...)

		return c, nil
	}

	var name string

	switch l.format {
	case SAC:
		name = fmt.Sprintf("%s.%s.%s.%s", s.Station, code, s.Network, s.Location)
	default:
		name = fmt.Sprintf("%s.%s.%s.%s.mseed", s.Network, s.Station, s.Location, code)
	}

	b, err := l.src.Get(name)
	if err != nil {
		return waveform.Channel{}, err
	}

	switch l.format {
	case SAC:
		return DecodeSAC(b)
	default:
		t, err := l.decode(b)
		if err != nil {
			return waveform.Channel{}, err
		}

		if c, ok := t[key(s.Network, s.Station, s.Location, code)]; ok {
			return c, nil
		}

		// the file name is enough for a file with a single stream.
		if len(t) != 1 {
			return waveform.Channel{}, ErrNoData
		}

		for _, c := range t {
			c.Code = code
			return c, nil
		}

		return waveform.Channel{}, ErrNoData
	}
}

// read decodes the single multiplexed object.
func (l *Loader) read() {
	var b []byte

	b, l.err = l.src.Get("")
	if l.err != nil {
		return
	}

	l.traces, l.err = l.decode(b)
}

func (l *Loader) decode(b []byte) (map[string]waveform.Channel, error) {
	var segs map[string][]segment
	var err error

	switch l.format {
	case Tank:
		segs, err = decodeTank(b)
	case MiniSEED, MiniSEED3:
		segs, err = decodeMiniSEED(b)
	default:
		return nil, errors.Errorf("%s data can not be multiplexed", l.format)
	}
	if err != nil {
		return nil, err
	}

	traces := make(map[string]waveform.Channel)

	for k, v := range segs {
		c, err := join(v)
		if err != nil {
			log.Printf("skipping %s: %s", k, err)
			continue
		}
		c.Code = k[strings.LastIndexByte(k, '.')+1:]
		traces[k] = c
	}

	return traces, nil
}

// Align checks the channels share a sample interval and start time and trims
// them to the same number of samples.
func Align(chs [station.Components]waveform.Channel) ([station.Components]waveform.Channel, error) {
	npts := math.MaxInt

	for i, c := range chs {
		if c.Npts() == 0 {
			return chs, errors.Wrap(ErrNoData, c.Code)
		}

		if c.Npts() < npts {
			npts = c.Npts()
		}

		if i == 0 {
			continue
		}

		if math.Abs(c.Delta-chs[0].Delta) > epsilon {
			return chs, errors.Wrapf(ErrMismatch, "sample interval %g for %s, %g for %s", c.Delta, c.Code, chs[0].Delta, chs[0].Code)
		}

		if math.Abs(c.Start.Sub(chs[0].Start).Seconds()) > epsilon {
			return chs, errors.Wrapf(ErrMismatch, "start time %s for %s, %s for %s",
				c.Start.Format(time.RFC3339Nano), c.Code, chs[0].Start.Format(time.RFC3339Nano), chs[0].Code)
		}
	}

	for i := range chs {
		if chs[i].Npts() != npts {
			log.Printf("%s: %d samples trimmed to %d", chs[i].Code, chs[i].Npts(), npts)
			chs[i].Samples = chs[i].Samples[:npts]
		}
	}

	return chs, nil
}

// key is the lookup key for a channel in multiplexed data.  Blank locations are "--".
func key(network, sta, location, channel string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		location = "--"
	}

	return strings.Join([]string{strings.TrimSpace(network), strings.TrimSpace(sta), location, strings.TrimSpace(channel)}, ".")
}
