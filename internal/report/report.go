// report writes the station metrics table.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/GeoNet/postmajor/internal/station"
)

const (
	header      = "#SNL          PGA         PGV         PGD         PA3         PV3         PD3         TauC3       PGA_LT      PGV_LT      E_Dist         SNR"
	coordHeader = "         LAT         LON          ELEV"
	rowFormat   = "%s.%s.%s %11.6f %11.6f %11.6f %11.6f %11.6f %11.6f %11.6f %11.6f %11.6f %11.6f %14.6f"
	coordFormat = " %11.6f %11.6f %8.2f"
)

// Options control which columns and rows are written.
type Options struct {
	Header      bool // write the # header line
	Coordinates bool // append station latitude, longitude and elevation
	SkipNoData  bool // leave out stations whose data could not be loaded
	SkipNoPick  bool // leave out stations without a valid P arrival
}

// Write writes one row per station in stations order.  It returns the number
// of rows written.
func Write(w io.Writer, stations []station.Station, opts Options) (int, error) {
	b := bufio.NewWriter(w)

	if opts.Header {
		b.WriteString(header)
		if opts.Coordinates {
			b.WriteString(coordHeader)
		}
		b.WriteByte('\n')
	}

	var n int

	for i := range stations {
		s := &stations[i]

		if opts.SkipNoData && !s.Loaded {
			continue
		}
		if opts.SkipNoPick && !s.Picked {
			continue
		}

		WriteRow(b, s, opts.Coordinates)
		n++
	}

	return n, b.Flush()
}

// WriteRow writes the metrics line for s.
func WriteRow(w io.Writer, s *station.Station, coords bool) {
	m := s.Metrics

	fmt.Fprintf(w, rowFormat,
		s.Station, s.Network, s.Location,
		m.PGA, m.PGV, m.PGD,
		m.PA3, m.PV3, m.PD3, m.TC,
		m.PGALeadTime, m.PGVLeadTime, m.EpicDist, m.SNR,
	)

	if coords {
		fmt.Fprintf(w, coordFormat, s.Latitude, s.Longitude, s.Elevation)
	}

	io.WriteString(w, "\n")
}
