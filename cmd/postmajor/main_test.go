package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GeoNet/postmajor/internal/filter"
	"github.com/GeoNet/postmajor/internal/postmajor"
	"github.com/GeoNet/postmajor/internal/seisdata"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"eq.txt", "sta.lst", "data"})
	require.NoError(t, err)

	assert.Equal(t, "eq.txt", opts.eqInfo)
	assert.Equal(t, "sta.lst", opts.stationList)
	assert.Equal(t, "data", opts.data)
	assert.Equal(t, seisdata.SAC, opts.format)
	assert.Equal(t, postmajor.Default, opts.config)
	assert.True(t, opts.report.Header)
	assert.False(t, opts.report.Coordinates)
	assert.Empty(t, opts.eventID)
	assert.False(t, opts.quiet)

	opts, err = parseFlags([]string{"-n", "-c", "-t", "-s", "-d", "-p", "-q", "-f", "mseed3", "--workers", "4", "--save", "2024p000001",
		"eq.txt", "sta.lst", "data"})
	require.NoError(t, err)

	assert.Equal(t, seisdata.MiniSEED3, opts.format)
	assert.Equal(t, filter.TwoStage, opts.config.Integration)
	assert.True(t, opts.config.VectorSum)
	assert.Equal(t, 4, opts.config.Workers)
	assert.False(t, opts.report.Header)
	assert.True(t, opts.report.Coordinates)
	assert.True(t, opts.report.SkipNoData)
	assert.True(t, opts.report.SkipNoPick)
	assert.Equal(t, "2024p000001", opts.eventID)
	assert.True(t, opts.quiet)
}

func TestParseFlagsConfig(t *testing.T) {
	f := filepath.Join(t.TempDir(), "postmajor.yaml")
	require.NoError(t, os.WriteFile(f, []byte("workers: 3\nvector_sum: true\n"), 0600))

	opts, err := parseFlags([]string{"--config", f, "eq.txt", "sta.lst", "data"})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.config.Workers)
	assert.True(t, opts.config.VectorSum)

	opts, err = parseFlags([]string{"--config", f, "--workers", "1", "eq.txt", "sta.lst", "data"})
	require.NoError(t, err)
	assert.Equal(t, 1, opts.config.Workers, "the flag overrides the config file")
}

func TestParseFlagsErrors(t *testing.T) {
	testCases := []struct {
		id   string
		args []string
	}{
		{id: "no arguments"},
		{id: "two arguments", args: []string{"eq.txt", "sta.lst"}},
		{id: "format", args: []string{"-f", "SEGY", "eq.txt", "sta.lst", "data"}},
		{id: "workers", args: []string{"--workers", "0", "eq.txt", "sta.lst", "data"}},
		{id: "config", args: []string{"--config", "missing.yaml", "eq.txt", "sta.lst", "data"}},
		{id: "event id", args: []string{"--save", "2024p|1", "eq.txt", "sta.lst", "data"}},
		{id: "unknown flag", args: []string{"-x", "eq.txt", "sta.lst", "data"}},
	}

	for _, v := range testCases {
		if _, err := parseFlags(v.args); err == nil {
			t.Errorf("%s: expected an error", v.id)
		}
	}

	_, err := parseFlags([]string{"-v"})
	assert.Equal(t, pflag.ErrHelp, err)
}
