// postmajor computes peak ground motion, early P wave parameters and warning
// lead times for the strong motion stations that recorded an earthquake.
package postmajor

import (
	"context"
	"log"
	"math"
	"sync"

	kitmetrics "github.com/GeoNet/kit/metrics"
	"github.com/GeoNet/postmajor/internal/filter"
	"github.com/GeoNet/postmajor/internal/leadtime"
	"github.com/GeoNet/postmajor/internal/metrics"
	"github.com/GeoNet/postmajor/internal/peak"
	"github.com/GeoNet/postmajor/internal/picker"
	"github.com/GeoNet/postmajor/internal/quake"
	"github.com/GeoNet/postmajor/internal/station"
	"github.com/GeoNet/postmajor/internal/waveform"
)

// Loader reads the waveform data for a station into its Data.
type Loader interface {
	Load(s *station.Station) error
}

// Processor computes station metrics for one earthquake.
type Processor struct {
	Config Config
	// Origin is nil when the earthquake location is not known.  Picking then
	// starts at the first sample and distances are not computed.
	Origin *quake.Origin
}

// Run loads and processes the stations with Config.Workers at a time.  Stations
// that can not be loaded get Invalid metrics.  Run returns early with the context
// error if ctx is cancelled, stations not yet processed are left unchanged.
func (p Processor) Run(ctx context.Context, stations []station.Station, l Loader) error {
	workers := p.Config.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				p.load(&stations[j], l)
			}
		}()
	}

	var err error

loop:
	for i := range stations {
		if err = ctx.Err(); err != nil {
			break
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()

	return err
}

func (p Processor) load(s *station.Station, l Loader) {
	kitmetrics.MsgRx()

	t := kitmetrics.Start()
	defer func() {
		if err := t.Track("station"); err != nil {
			log.Println(err)
		}
	}()

	s.Picked = false

	if err := l.Load(s); err != nil {
		log.Printf("skipping %s: %s", s.SNL(), err)

		s.Loaded = false
		s.Metrics = station.Invalid()
		s.Release()

		metrics.NoData()
		kitmetrics.MsgErr()

		return
	}

	s.Loaded = true

	p.Process(s)

	kitmetrics.MsgProc()
}

// Process computes the metrics for s from its loaded Data.  The Data are
// released when Process returns.
func (p Processor) Process(s *station.Station) {
	defer s.Release()

	c := p.Config
	m := station.Invalid()

	if s.Data[station.Z].Npts() == 0 || s.Data[station.Z].Delta <= 0 {
		log.Printf("%s: no data to process", s.SNL())
		s.Metrics = m
		return
	}

	for i := range s.Data {
		res := waveform.Preprocess(s.Data[i].Samples, waveform.Options{
			Gain:   s.Gains[i],
			Window: c.BaselineWindow,
			Gaps:   c.Gaps,
		})
		if res.Gaps > 0 {
			log.Printf("%s.%s: %d samples with no data", s.SNL(), s.Data[i].Code, res.Gaps)
		}
	}

	delta := s.Data[station.Z].Delta
	npts := s.Data[station.Z].Npts()

	var acc [station.Components][]float32
	for i := range s.Data {
		acc[i] = s.Data[i].Samples
		if c.Velocity {
			filter.Differentiate(acc[i], delta)
			// the first difference is from zero.
			if len(acc[i]) > 1 {
				acc[i][0] = acc[i][1]
			}
		}
	}

	start := 0
	if p.Origin != nil {
		if start = s.Data[station.Z].Index(p.Origin.Time); start < 0 {
			start = 0
		}
		if start >= npts {
			log.Printf("%s: origin time is after the end of the data", s.SNL())
			start = npts - 1
		}
	}

	pick := c.Picker.Pick(acc[station.Z], acc[station.N], acc[station.E], delta, start)

	s.Picked = pick.Code != picker.None

	m.PArrival = pick.P
	m.SArrival = pick.S
	m.SNR = pick.SNR

	arrival := start
	if s.Picked {
		arrival = pick.P
		metrics.Picked()
	} else {
		log.Printf("%s: no valid P arrival, time related parameters are not computed", s.SNL())
		metrics.NoPick()
	}

	end := arrival + int(c.Duration/delta) + 1
	if end > npts {
		end = npts
	}

	window := int(math.Round(c.Window / delta))

	chain := filter.Chain{
		HighPass: filter.NewHighPass(delta, c.HighPass),
		Mode:     c.Integration,
	}

	// acceleration
	a := peak.Scan(acc, arrival, end, c.VectorSum, c.Acceleration)
	m.PGA, m.PGAPos = a.Value, a.Index
	m.PGA4Pos, m.PGA80Pos = a.Watch, a.Warn
	m.PA3 = peak.WindowPeak(acc[station.Z], arrival, window)

	var vel, disp [station.Components][]float32
	for i := range acc {
		vel[i], disp[i] = chain.Motion(acc[i], delta)
	}

	// velocity
	v := peak.Scan(vel, arrival, end, c.VectorSum, peak.Thresholds{})
	m.PGV, m.PGVPos = v.Value, v.Index
	m.PV3 = peak.WindowPeak(vel[station.Z], arrival, window)

	// displacement
	d := peak.Scan(disp, arrival, end, c.VectorSum, c.Displacement)
	m.PGD, m.PGDPos = d.Value, d.Index
	m.PD35Pos = d.Warn
	m.PD3 = peak.WindowPeak(disp[station.Z], arrival, window)

	m.TC = peak.TauC(
		peak.Accumulate(vel[station.Z], arrival, window),
		peak.Accumulate(disp[station.Z], arrival, window),
	)

	m.PGALeadTime, m.PGVLeadTime = leadtime.Compute(leadtime.Input{
		PGAIndex:  m.PGAPos,
		PGVIndex:  m.PGVPos,
		DispWarn:  m.PD35Pos,
		AccWarn:   m.PGA80Pos,
		End:       end,
		Delta:     delta,
		PickValid: s.Picked,
	})

	if !s.Picked {
		m.PA3, m.PV3, m.PD3, m.TC = station.Unset, station.Unset, station.Unset, station.Unset
	}

	if p.Origin != nil {
		dist, err := p.Origin.Distance(s.Latitude, s.Longitude, c.Distance)
		if err != nil {
			log.Printf("%s: epicentral distance: %s", s.SNL(), err)
		} else {
			m.EpicDist = dist
		}
	}

	s.Metrics = m

	metrics.Processed()
}
