// pkg metrics is for counting station processing outcomes.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

var stationCounters [5]uint64
var stationLast [5]uint64
var stationCurrent [5]uint64

// A StationCounters records station processing counters.
type StationCounters struct {
	// Processed is the count of stations with metrics computed.
	Processed uint64

	// Picked is the count of stations with a P arrival.
	Picked uint64

	// NoPick is the count of stations without a P arrival.
	NoPick uint64

	// NoData is the count of stations that could not be loaded.
	NoData uint64

	// Saved is the count of stations stored in the DB.
	Saved uint64

	// At is the time the counters were sampled at.
	At time.Time
}

func (s StationCounters) String() string {
	return fmt.Sprintf("processed=%d picked=%d nopick=%d nodata=%d saved=%d", s.Processed, s.Picked, s.NoPick, s.NoData, s.Saved)
}

// ReadStationCounters populates s with station counter delta values
// since last time it was called.
func ReadStationCounters(s *StationCounters) {
	s.At = time.Now().UTC()

	for i := range stationCounters {
		stationCurrent[i] = atomic.LoadUint64(&stationCounters[i])
	}

	s.Processed = stationCurrent[0] - stationLast[0]
	s.Picked = stationCurrent[1] - stationLast[1]
	s.NoPick = stationCurrent[2] - stationLast[2]
	s.NoData = stationCurrent[3] - stationLast[3]
	s.Saved = stationCurrent[4] - stationLast[4]

	for i := range stationCounters {
		stationLast[i] = stationCurrent[i]
	}
}

// Processed increments the processed station counter. It is safe for concurrent access.
func Processed() {
	atomic.AddUint64(&stationCounters[0], 1)
}

// Picked increments the picked station counter. It is safe for concurrent access.
func Picked() {
	atomic.AddUint64(&stationCounters[1], 1)
}

// NoPick increments the no pick station counter. It is safe for concurrent access.
func NoPick() {
	atomic.AddUint64(&stationCounters[2], 1)
}

// NoData increments the no data station counter. It is safe for concurrent access.
func NoData() {
	atomic.AddUint64(&stationCounters[3], 1)
}

// Saved increments the saved station counter. It is safe for concurrent access.
func Saved() {
	atomic.AddUint64(&stationCounters[4], 1)
}
