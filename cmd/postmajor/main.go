// postmajor computes peak ground motion, Tau-c, Pa3, Pv3, Pd3 and warning lead
// times for the stations in a station list that recorded an earthquake.
//
// Usage:
//
//	postmajor [options] <eq. info> <station list> <seismic data>
//
// The seismic data is a directory, a single multiplexed file, or an
// s3://bucket/prefix location.  Results are written to stdout, one row per station.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GeoNet/kit/cfg"
	"github.com/GeoNet/postmajor/internal/filter"
	"github.com/GeoNet/postmajor/internal/metrics"
	"github.com/GeoNet/postmajor/internal/postmajor"
	"github.com/GeoNet/postmajor/internal/quake"
	"github.com/GeoNet/postmajor/internal/report"
	"github.com/GeoNet/postmajor/internal/seisdata"
	"github.com/GeoNet/postmajor/internal/station"
	"github.com/GeoNet/postmajor/internal/store"
	"github.com/GeoNet/postmajor/internal/valid"
	"github.com/spf13/pflag"
)

const version = "2.0.0 - 2024-04-05"

type options struct {
	eqInfo, stationList, data string

	format seisdata.Format
	config postmajor.Config
	report report.Options

	eventID string
	quiet   bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	switch {
	case err == pflag.ErrHelp:
		os.Exit(0)
	case err != nil:
		log.Fatalf("ERROR: %s", err)
	}

	if opts.quiet {
		quiet()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("ERROR: %s", err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("postmajor", pflag.ContinueOnError)

	showVersion := fs.BoolP("version", "v", false, "Report program version.")
	coords := fs.BoolP("coordinates", "c", false, "Append the station coordinates to the output.")
	noHeader := fs.BoolP("no-header", "n", false, "Turn off the output header.")
	twoStage := fs.BoolP("two-stage", "t", false, "High-pass filter the acceleration before the first integration.")
	vectorSum := fs.BoolP("vector-sum", "s", false, "Use the vector sum of the components for peak values.")
	skipNoData := fs.BoolP("ignore-no-data", "d", false, "Leave out stations without data.")
	skipNoPick := fs.BoolP("ignore-no-pick", "p", false, "Leave out stations without a valid P arrival.")
	format := fs.StringP("format", "f", "SAC", "Input format, one of SAC, MSEED, MSEED3 or TANK.")
	config := fs.String("config", "", "YAML file of processing settings.")
	workers := fs.Int("workers", 0, "Number of stations to process at once, overrides the config file.")
	fs.StringVar(&opts.eventID, "save", "", "Save the results to the database under this event ID.")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "Only log warnings and errors.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: postmajor [options] <eq. info> <station list> <seismic data>\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nComputes the peak acceleration, velocity and displacement for each station\nand the warning lead time.\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if *showVersion {
		fmt.Printf("postmajor\nVersion: %s\n", version)
		return opts, pflag.ErrHelp
	}

	if fs.NArg() != 3 {
		fs.Usage()
		return opts, fmt.Errorf("expected 3 arguments got %d", fs.NArg())
	}

	opts.eqInfo, opts.stationList, opts.data = fs.Arg(0), fs.Arg(1), fs.Arg(2)

	var err error

	if opts.format, err = seisdata.ParseFormat(*format); err != nil {
		return opts, err
	}

	opts.config = postmajor.Default

	if *config != "" {
		if opts.config, err = postmajor.ReadConfig(*config, postmajor.Default); err != nil {
			return opts, err
		}
	}

	if *twoStage {
		opts.config.Integration = filter.TwoStage
	}
	if *vectorSum {
		opts.config.VectorSum = true
	}
	if fs.Changed("workers") {
		opts.config.Workers = *workers
	}

	if err = opts.config.Validate(); err != nil {
		return opts, err
	}

	if opts.eventID != "" {
		if err = valid.EventID(opts.eventID); err != nil {
			return opts, err
		}
	}

	opts.report = report.Options{
		Header:      !*noHeader,
		Coordinates: *coords,
		SkipNoData:  *skipNoData,
		SkipNoPick:  *skipNoPick,
	}

	return opts, nil
}

func run(ctx context.Context, opts options) error {
	p := postmajor.Processor{Config: opts.config}

	o, err := quake.Read(opts.eqInfo)
	if err != nil {
		log.Printf("WARN: %s, picking from the start of the data without epicentral distances", err)
	} else {
		p.Origin = &o
	}

	stations, err := station.ReadList(opts.stationList)
	if err != nil {
		return err
	}

	src, multiplexed, err := seisdata.Open(opts.data)
	if err != nil {
		return err
	}

	log.Printf("processing %d stations from %s (%s)", len(stations), opts.data, opts.format)

	if err = p.Run(ctx, stations, seisdata.NewLoader(src, opts.format, multiplexed)); err != nil {
		return err
	}

	if _, err = report.Write(os.Stdout, stations, opts.report); err != nil {
		return err
	}

	if opts.eventID != "" {
		if err = save(ctx, opts.eventID, stations); err != nil {
			return err
		}
	}

	var c metrics.StationCounters
	metrics.ReadStationCounters(&c)
	log.Print(c)

	return nil
}

func save(ctx context.Context, eventID string, stations []station.Station) error {
	pg, err := cfg.PostgresEnv()
	if err != nil {
		return fmt.Errorf("error reading DB config from the environment vars: %w", err)
	}

	db, err := store.Open(pg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = db.Init(ctx); err != nil {
		return err
	}

	return db.Save(ctx, eventID, stations)
}
