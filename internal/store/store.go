// store saves and queries station metrics in Postgres.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/GeoNet/kit/cfg"
	"github.com/GeoNet/postmajor/internal/metrics"
	"github.com/GeoNet/postmajor/internal/station"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// http://www.postgresql.org/docs/9.4/static/errcodes-appendix.html
const (
	errorUniqueViolation pq.ErrorCode = "23505"
)

//go:embed etc/postmajor.ddl
var schema string

const (
	columns = `network, station, location, latitude, longitude, elevation, loaded, picked,
	pga, pgv, pgd, pa3, pv3, pd3, tc, pga_lead_time, pgv_lead_time, epicentral_distance, snr,
	p_arrival, s_arrival`

	updateMetrics = `UPDATE postmajor.station_metrics SET
	latitude = $5, longitude = $6, elevation = $7, loaded = $8, picked = $9,
	pga = $10, pgv = $11, pgd = $12, pa3 = $13, pv3 = $14, pd3 = $15, tc = $16,
	pga_lead_time = $17, pgv_lead_time = $18, epicentral_distance = $19, snr = $20,
	p_arrival = $21, s_arrival = $22, modified = now()
	WHERE event_id = $1 AND network = $2 AND station = $3 AND location = $4`

	insertMetrics = `INSERT INTO postmajor.station_metrics (event_id, ` + columns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
)

// Store is a station metrics database.
type Store struct {
	db *sql.DB
}

// Open connects to the database described by p.
func Open(p cfg.Postgres) (*Store, error) {
	// set a statement timeout to cancel any very long running DB queries.
	// Value is int milliseconds.
	db, err := sql.Open("postgres", p.Connection()+" statement_timeout=600000")
	if err != nil {
		return nil, errors.Wrap(err, "opening DB")
	}

	db.SetMaxIdleConns(p.MaxIdle)
	db.SetMaxOpenConns(p.MaxOpen)

	return &Store{db: db}, nil
}

// New returns a Store using db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Init creates the postmajor schema and tables if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "creating schema")
}

// Save stores the metrics for stations under eventID, replacing any already
// saved for the same event and station.  All stations are saved or none are.
func (s *Store) Save(ctx context.Context, eventID string, stations []station.Station) error {
	if eventID == "" {
		return errors.New("empty event id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	update, err := tx.PrepareContext(ctx, updateMetrics)
	if err != nil {
		return errors.Wrap(err, "preparing update")
	}
	defer update.Close()

	for i := range stations {
		if err := saveStation(ctx, tx, update, eventID, &stations[i]); err != nil {
			return errors.Wrapf(err, "saving %s", stations[i].SNL())
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing")
	}

	for range stations {
		metrics.Saved()
	}

	return nil
}

func saveStation(ctx context.Context, tx *sql.Tx, update *sql.Stmt, eventID string, st *station.Station) error {
	args := values(eventID, st)

	r, err := update.ExecContext(ctx, args...)
	if err != nil {
		return err
	}

	n, err := r.RowsAffected()
	if err != nil {
		return err
	}

	if n == 1 {
		return nil
	}

	// a concurrent save of the same station can win the insert.
	if _, err = tx.ExecContext(ctx, `SAVEPOINT station_insert`); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, insertMetrics, args...)
	if err == nil {
		return nil
	}

	if u, ok := err.(*pq.Error); !ok || u.Code != errorUniqueViolation {
		return err
	}

	if _, err = tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT station_insert`); err != nil {
		return err
	}

	_, err = update.ExecContext(ctx, args...)

	return err
}

func values(eventID string, st *station.Station) []interface{} {
	m := st.Metrics

	return []interface{}{
		eventID, st.Network, st.Station, st.Location,
		st.Latitude, st.Longitude, st.Elevation, st.Loaded, st.Picked,
		m.PGA, m.PGV, m.PGD, m.PA3, m.PV3, m.PD3, m.TC,
		m.PGALeadTime, m.PGVLeadTime, m.EpicDist, m.SNR,
		m.PArrival, m.SArrival,
	}
}

// Modified returns when the metrics for eventID were last saved.  It returns
// sql.ErrNoRows if there are none.
func (s *Store) Modified(ctx context.Context, eventID string) (time.Time, error) {
	var t sql.NullTime

	err := s.db.QueryRowContext(ctx, `SELECT max(modified) FROM postmajor.station_metrics WHERE event_id = $1`,
		eventID).Scan(&t)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "reading modified time")
	}

	if !t.Valid {
		return time.Time{}, sql.ErrNoRows
	}

	return t.Time, nil
}

// Query selects saved metrics.  Network and Station are lists of codes that
// may use the * and ? wildcards, empty matches everything.
type Query struct {
	EventID string
	Network []string
	Station []string
}

// Query returns the metrics saved for q.EventID ordered by network, station and location.
// The event must exist, sql.ErrNoRows is returned if it has no saved metrics at all.
func (s *Store) Query(ctx context.Context, q Query) ([]station.Station, error) {
	if q.EventID == "" {
		return nil, errors.New("empty event id")
	}

	net, err := toPattern(q.Network)
	if err != nil {
		return nil, errors.Wrap(err, "invalid network parameter")
	}

	sta, err := toPattern(q.Station)
	if err != nil {
		return nil, errors.Wrap(err, "invalid station parameter")
	}

	var count int
	if err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM postmajor.station_metrics WHERE event_id = $1`,
		q.EventID).Scan(&count); err != nil {
		return nil, errors.Wrap(err, "counting event metrics")
	}

	if count == 0 {
		return nil, sql.ErrNoRows
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM postmajor.station_metrics
	WHERE event_id = $1 AND network ~ $2 AND station ~ $3
	ORDER BY network, station, location`, q.EventID, net, sta)
	if err != nil {
		return nil, errors.Wrap(err, "querying metrics")
	}
	defer rows.Close()

	var list []station.Station

	for rows.Next() {
		var st station.Station
		m := &st.Metrics

		err = rows.Scan(
			&st.Network, &st.Station, &st.Location,
			&st.Latitude, &st.Longitude, &st.Elevation, &st.Loaded, &st.Picked,
			&m.PGA, &m.PGV, &m.PGD, &m.PA3, &m.PV3, &m.PD3, &m.TC,
			&m.PGALeadTime, &m.PGVLeadTime, &m.EpicDist, &m.SNR,
			&m.PArrival, &m.SArrival,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning metrics")
		}

		// positions are not stored.
		m.PGAPos, m.PGVPos, m.PGDPos = -1, -1, -1
		m.PGA4Pos, m.PGA80Pos, m.PD35Pos = -1, -1, -1

		list = append(list, st)
	}

	return list, errors.Wrap(rows.Err(), "reading metrics")
}
