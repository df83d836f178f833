package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/GeoNet/kit/weft"
	"github.com/GeoNet/postmajor/internal/report"
	"github.com/GeoNet/postmajor/internal/station"
	"github.com/GeoNet/postmajor/internal/store"
	"github.com/GeoNet/postmajor/internal/valid"
	"github.com/golang/groupcache"
	"github.com/pkg/errors"
)

const version = "1.0"

var errNoData = errors.New("no data")

type metricsQuery struct {
	EventID string   `schema:"eventid"`
	Network []string `schema:"network"`
	Station []string `schema:"station"`
	Format  string   `schema:"format"`
}

// stationJSON is a row in the json output.  Metrics that could not be
// computed are -1 as in the text output.
type stationJSON struct {
	Network     string  `json:"network"`
	Station     string  `json:"station"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Elevation   float64 `json:"elevation"`
	Loaded      bool    `json:"loaded"`
	Picked      bool    `json:"picked"`
	PGA         float64 `json:"pga"`
	PGV         float64 `json:"pgv"`
	PGD         float64 `json:"pgd"`
	PA3         float64 `json:"pa3"`
	PV3         float64 `json:"pv3"`
	PD3         float64 `json:"pd3"`
	TauC        float64 `json:"tauc"`
	PGALeadTime float64 `json:"pgaLeadTime"`
	PGVLeadTime float64 `json:"pgvLeadTime"`
	Distance    float64 `json:"distance"`
	SNR         float64 `json:"snr"`
}

type eventJSON struct {
	EventID  string        `json:"eventID"`
	Modified time.Time     `json:"modified"`
	Stations []stationJSON `json:"stations"`
}

func parseQuery(r *http.Request) (metricsQuery, error) {
	var q metricsQuery

	if err := weft.CheckQuery(r, []string{"GET"}, []string{"eventid"}, []string{"network", "station", "format"}); err != nil {
		return q, err
	}

	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		return q, weft.StatusError{Code: http.StatusBadRequest, Err: err}
	}

	if err := valid.EventID(q.EventID); err != nil {
		return q, err
	}

	switch q.Format {
	case "":
		q.Format = "text"
	case "text", "json":
	default:
		return q, weft.StatusError{Code: http.StatusBadRequest, Err: errors.Errorf("invalid format %s", q.Format)}
	}

	for _, l := range [][]string{q.Network, q.Station} {
		for _, c := range l {
			if err := valid.Code(c); err != nil {
				return q, err
			}
		}
	}

	return q, nil
}

// key is the cache key for q with the time the event was last saved.
func (q metricsQuery) key(modified time.Time) string {
	return strings.Join([]string{
		q.EventID,
		strings.Join(q.Network, ","),
		strings.Join(q.Station, ","),
		q.Format,
		modified.UTC().Format(time.RFC3339Nano),
	}, "|")
}

func parseKey(key string) (metricsQuery, time.Time, error) {
	p := strings.Split(key, "|")
	if len(p) != 5 {
		return metricsQuery{}, time.Time{}, errors.New("expected 5 parts to key: " + key)
	}

	t, err := time.Parse(time.RFC3339Nano, p[4])
	if err != nil {
		return metricsQuery{}, time.Time{}, err
	}

	q := metricsQuery{EventID: p[0], Format: p[3]}

	if p[1] != "" {
		q.Network = strings.Split(p[1], ",")
	}
	if p[2] != "" {
		q.Station = strings.Split(p[2], ",")
	}

	return q, t, nil
}

func queryHandler(r *http.Request, h http.Header, b *bytes.Buffer) error {
	q, err := parseQuery(r)
	if err != nil {
		return err
	}

	modified, err := db.Modified(r.Context(), q.EventID)
	switch {
	case errors.Cause(err) == sql.ErrNoRows:
		return weft.StatusError{Code: http.StatusNotFound}
	case err != nil:
		return err
	}

	var res []byte

	err = resultCache.Get(r.Context(), q.key(modified), groupcache.AllocatingByteSliceSink(&res))
	switch {
	case err == errNoData:
		return weft.StatusError{Code: http.StatusNoContent}
	case err != nil:
		return err
	}

	switch q.Format {
	case "json":
		h.Set("Content-Type", "application/json")
	default:
		h.Set("Content-Type", "text/plain")
	}

	b.Write(res)

	return nil
}

// resultGetter implements groupcache.Getter for the formatted results of a query.
func resultGetter(ctx context.Context, key string, dest groupcache.Sink) error {
	q, modified, err := parseKey(key)
	if err != nil {
		return err
	}

	stations, err := db.Query(ctx, store.Query{EventID: q.EventID, Network: q.Network, Station: q.Station})
	switch {
	case errors.Cause(err) == sql.ErrNoRows:
		return errNoData
	case err != nil:
		return err
	}

	if len(stations) == 0 {
		return errNoData
	}

	var b bytes.Buffer

	if err = format(&b, q, modified, stations); err != nil {
		return err
	}

	return dest.SetBytes(b.Bytes())
}

func format(b *bytes.Buffer, q metricsQuery, modified time.Time, stations []station.Station) error {
	if q.Format == "text" {
		_, err := report.Write(b, stations, report.Options{Header: true, Coordinates: true})
		return err
	}

	e := eventJSON{EventID: q.EventID, Modified: modified.UTC(), Stations: make([]stationJSON, len(stations))}

	for i, s := range stations {
		m := s.Metrics

		e.Stations[i] = stationJSON{
			Network:     s.Network,
			Station:     s.Station,
			Location:    s.Location,
			Latitude:    s.Latitude,
			Longitude:   s.Longitude,
			Elevation:   s.Elevation,
			Loaded:      s.Loaded,
			Picked:      s.Picked,
			PGA:         m.PGA,
			PGV:         m.PGV,
			PGD:         m.PGD,
			PA3:         m.PA3,
			PV3:         m.PV3,
			PD3:         m.PD3,
			TauC:        m.TC,
			PGALeadTime: m.PGALeadTime,
			PGVLeadTime: m.PGVLeadTime,
			Distance:    m.EpicDist,
			SNR:         m.SNR,
		}
	}

	return json.NewEncoder(b).Encode(e)
}
