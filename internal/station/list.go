package station

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Channel and network names for the seven column station list.
const (
	LegacyNetwork  = "TW"
	LegacyLocation = "--"
)

var legacyChannels = [Components]string{"HLZ", "HLN", "HLE"}

// ReadList reads a station list from the file at path.
func ReadList(path string) ([]Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening station list")
	}
	defer f.Close()

	return ParseList(f)
}

// ParseList reads a station list.  Each line is either
//
//	STA NET LOC LAT LON ELEV CHAN GAIN CHAN GAIN CHAN GAIN
//
// or the older
//
//	STA LAT LON ELEV GAIN_Z GAIN_N GAIN_E
//
// Text after a # is ignored.  Lines with any other layout are skipped.
func ParseList(r io.Reader) ([]Station, error) {
	var list []Station

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		f := strings.Fields(line)

		var s Station
		var err error

		switch len(f) {
		case 0:
			continue
		case 12:
			s, err = parseLine(f)
		case 7:
			s, err = parseLegacy(f)
		default:
			continue
		}

		if err != nil {
			continue
		}

		list = append(list, s)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading station list")
	}

	if len(list) == 0 {
		return nil, errors.New("no stations in station list")
	}

	return list, nil
}

func parseLine(f []string) (Station, error) {
	s := Station{Station: f[0], Network: f[1], Location: f[2]}

	if err := s.setCoordinates(f[3], f[4], f[5]); err != nil {
		return s, err
	}

	for i := 0; i < Components; i++ {
		code := f[6+2*i]

		g, err := strconv.ParseFloat(f[7+2*i], 64)
		if err != nil {
			return s, err
		}

		c, ok := Component(code)
		if !ok {
			c = i
		}

		s.Channels[c] = code
		s.Gains[c] = g
	}

	for i := range s.Channels {
		if s.Channels[i] == "" {
			return s, errors.Errorf("%s: duplicate channel orientation", s.SNL())
		}
	}

	return s, nil
}

func parseLegacy(f []string) (Station, error) {
	s := Station{
		Station:  f[0],
		Network:  LegacyNetwork,
		Location: LegacyLocation,
		Channels: legacyChannels,
	}

	if err := s.setCoordinates(f[1], f[2], f[3]); err != nil {
		return s, err
	}

	for i := 0; i < Components; i++ {
		g, err := strconv.ParseFloat(f[4+i], 64)
		if err != nil {
			return s, err
		}
		s.Gains[i] = g
	}

	return s, nil
}

func (s *Station) setCoordinates(lat, lon, elev string) error {
	var err error

	if s.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
		return err
	}
	if s.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
		return err
	}
	if s.Elevation, err = strconv.ParseFloat(elev, 64); err != nil {
		return err
	}

	return nil
}
