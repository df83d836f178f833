package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/GeoNet/postmajor/internal/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	modified := time.Date(2024, time.April, 3, 0, 1, 2, 345678000, time.UTC)

	testCases := []struct {
		id string
		q  metricsQuery
	}{
		{id: "event", q: metricsQuery{EventID: "2024p000001", Format: "text"}},
		{id: "codes", q: metricsQuery{EventID: "2024p000001", Network: []string{"TW", "NZ"}, Station: []string{"T*"}, Format: "json"}},
	}

	for _, v := range testCases {
		k := v.q.key(modified)

		q, m, err := parseKey(k)
		require.NoError(t, err, v.id)

		assert.Equal(t, v.q, q, v.id)
		assert.True(t, modified.Equal(m), v.id)
	}

	_, _, err := parseKey("2024p000001|TW")
	assert.Error(t, err)

	_, _, err = parseKey("2024p000001|||text|yesterday")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	modified := time.Date(2024, time.April, 3, 0, 1, 2, 0, time.UTC)

	stations := []station.Station{
		{
			Station: "TAP", Network: "TW", Location: "--",
			Latitude: 24.0, Longitude: 121.7, Elevation: 10.0,
			Loaded: true, Picked: true,
			Metrics: station.Metrics{PGA: 120.5, PGV: 10.25, PGD: 1.5, TC: 0.75, SNR: 300, EpicDist: 25.0},
		},
	}

	var b bytes.Buffer

	require.NoError(t, format(&b, metricsQuery{EventID: "2024p000001", Format: "text"}, modified, stations))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#SNL"))
	assert.True(t, strings.HasSuffix(lines[0], "ELEV"))
	assert.True(t, strings.HasPrefix(lines[1], "TAP.TW.--"))

	b.Reset()

	require.NoError(t, format(&b, metricsQuery{EventID: "2024p000001", Format: "json"}, modified, stations))

	var e eventJSON
	require.NoError(t, json.Unmarshal(b.Bytes(), &e))

	assert.Equal(t, "2024p000001", e.EventID)
	assert.True(t, modified.Equal(e.Modified))
	require.Len(t, e.Stations, 1)
	assert.Equal(t, "TAP", e.Stations[0].Station)
	assert.Equal(t, 120.5, e.Stations[0].PGA)
	assert.Equal(t, 0.75, e.Stations[0].TauC)
	assert.Equal(t, 25.0, e.Stations[0].Distance)
}
