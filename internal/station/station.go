// station holds the station records processed for an earthquake and their metrics.
package station

import (
	"fmt"

	"github.com/GeoNet/postmajor/internal/waveform"
)

// Component indexes into a station's channels.
const (
	Z = iota
	N
	E
)

// Components is the number of channels in a station record.
const Components = 3

// Unset is used for metrics that have not been or could not be computed.
const Unset = -1.0

// Metrics are the ground motion parameters for a station.
type Metrics struct {
	PGA, PGV, PGD float64 // peak ground acceleration (gal), velocity (cm/s) and displacement (cm)
	PA3, PV3, PD3 float64 // peaks in the 3 s after the P arrival
	TC            float64 // Tau-c, seconds

	PGAPos, PGVPos, PGDPos int

	PGA4Pos, PGA80Pos, PD35Pos int // first samples over the watch and warn thresholds

	PArrival, SArrival int
	SNR                float64

	PGALeadTime, PGVLeadTime float64 // seconds
	EpicDist                 float64 // km
}

// Invalid returns Metrics for a station that could not be processed.
func Invalid() Metrics {
	return Metrics{
		PGA: Unset, PGV: Unset, PGD: Unset,
		PA3: Unset, PV3: Unset, PD3: Unset,
		TC:     Unset,
		PGAPos: -1, PGVPos: -1, PGDPos: -1,
		PGA4Pos: -1, PGA80Pos: -1, PD35Pos: -1,
		PArrival: -1, SArrival: -1,
		SNR:         Unset,
		PGALeadTime: Unset, PGVLeadTime: Unset,
		EpicDist: Unset,
	}
}

// Station is one three component strong motion site.
type Station struct {
	Station, Network, Location string

	Latitude, Longitude, Elevation float64

	Channels [Components]string  // channel codes for Z, N and E
	Gains    [Components]float64 // multiplied into the raw samples

	Data    [Components]waveform.Channel
	Metrics Metrics

	// Loaded is false if the waveform data for the station could not be read.
	Loaded bool
	// Picked is true if a valid P arrival was found.
	Picked bool
}

// SNL returns the station.network.location label.
func (s *Station) SNL() string {
	return fmt.Sprintf("%s.%s.%s", s.Station, s.Network, s.Location)
}

// Release drops the waveform data for s.
func (s *Station) Release() {
	for i := range s.Data {
		s.Data[i].Samples = nil
	}
}

// Component returns the channel index for a channel code using its orientation
// character.  ok is false if the code is not Z, N or E (or 1, 2).
func Component(code string) (int, bool) {
	if code == "" {
		return 0, false
	}

	switch code[len(code)-1] {
	case 'Z', 'z':
		return Z, true
	case 'N', 'n', '1':
		return N, true
	case 'E', 'e', '2':
		return E, true
	}

	return 0, false
}
