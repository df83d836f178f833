// quake is for earthquake origins and station distances from them.
package quake

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GeoNet/kit/sc3ml"
	"github.com/GeoNet/kit/wgs84"
	"github.com/pkg/errors"
)

// Origin is an earthquake hypocentre.
type Origin struct {
	PublicID  string
	Time      time.Time
	Latitude  float64
	Longitude float64
	Depth     float64 // km
}

// Read reads an origin from the file at path.  Files ending in .xml are read
// as SeisComPML, anything else as an origin text line.
func Read(path string) (Origin, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Origin{}, errors.Wrap(err, "reading origin")
	}

	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return FromSC3ML(b)
	}

	return Parse(bytes.NewReader(b))
}

// Parse reads the first origin line from r.  The line has the fields
//
//	YEAR MONTH DAY HOUR MINUTE SECOND LATITUDE LONGITUDE DEPTH
//
// in UTC, where SECOND may have a fraction.  Text after a # is ignored.
func Parse(r io.Reader) (Origin, error) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		f := strings.Fields(line)
		if len(f) != 9 {
			continue
		}

		var v [9]float64
		var err error

		for i := range f {
			if v[i], err = strconv.ParseFloat(f[i], 64); err != nil {
				break
			}
		}
		if err != nil {
			continue
		}

		sec, frac := math.Modf(v[5])

		return Origin{
			Time: time.Date(int(v[0]), time.Month(int(v[1])), int(v[2]), int(v[3]), int(v[4]), int(sec),
				int(math.Round(frac*1e6))*1000, time.UTC),
			Latitude:  v[6],
			Longitude: v[7],
			Depth:     v[8],
		}, nil
	}

	if err := scanner.Err(); err != nil {
		return Origin{}, errors.Wrap(err, "reading origin")
	}

	return Origin{}, errors.New("no origin found")
}

// FromSC3ML returns the preferred origin of the single event in the SeisComPML b.
func FromSC3ML(b []byte) (Origin, error) {
	var s sc3ml.Seiscomp

	if err := sc3ml.Unmarshal(b, &s); err != nil {
		return Origin{}, errors.Wrap(err, "unmarshaling SC3ML")
	}

	if len(s.EventParameters.Events) != 1 {
		return Origin{}, errors.Errorf("expected 1 event, got %d", len(s.EventParameters.Events))
	}

	e := s.EventParameters.Events[0]

	if e.PreferredOrigin.PublicID == "" {
		return Origin{}, errors.Errorf("%s: no preferred origin", e.PublicID)
	}

	return Origin{
		PublicID:  e.PublicID,
		Time:      e.PreferredOrigin.Time.Value,
		Latitude:  e.PreferredOrigin.Latitude.Value,
		Longitude: e.PreferredOrigin.Longitude.Value,
		Depth:     e.PreferredOrigin.Depth.Value,
	}, nil
}

// Method selects how epicentral distances are calculated.
type Method int

const (
	// Flat uses a latitude dependent conversion of degree differences to km
	// for short distances.
	Flat Method = iota
	// Geodesic uses the distance on the WGS84 ellipsoid.
	Geodesic
)

// ParseMethod converts a config value to a Method.
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "", "flat":
		return Flat, true
	case "wgs84":
		return Geodesic, true
	}
	return Flat, false
}

// Distance returns the epicentral distance in km from o to the site at lat, lon.
func (o Origin) Distance(lat, lon float64, m Method) (float64, error) {
	if m == Geodesic {
		d, _, err := wgs84.DistanceBearing(o.Latitude, o.Longitude, lat, lon)
		return d, err
	}

	return FlatDistance(o.Latitude, o.Longitude, lat, lon), nil
}

// FlatDistance returns the distance in km between two nearby points using
// polynomial km per minute of arc factors evaluated at their mean latitude.
func FlatDistance(elat, elon, slat, slon float64) float64 {
	avlat := (elat + slat) * 0.5

	a := 1.840708 + avlat*(0.0015269+avlat*(-0.00034+avlat*1.02337e-6))
	b := 1.843404 + avlat*(-6.93799e-5+avlat*(8.79993e-6+avlat*(-6.47527e-8)))

	a *= (slon - elon) * 60.0
	b *= (slat - elat) * 60.0

	return math.Sqrt(a*a + b*b)
}
