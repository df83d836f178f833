package seisdata

import (
	"encoding/binary"
	"math"
	"strings"
	"time"

	"github.com/GeoNet/postmajor/internal/waveform"
	"github.com/pkg/errors"
)

// SAC binary header layout: 70 floats, 40 ints then 192 bytes of strings.
const (
	sacHeaderSize = 632

	sacDelta = 0 // float words
	sacB     = 5

	sacInts   = 280 // byte offset of the int words
	sacNzyear = 0
	sacNzjday = 1
	sacNzhour = 2
	sacNzmin  = 3
	sacNzsec  = 4
	sacNzmsec = 5
	sacNpts   = 9

	sacKcmpnm = 600 // byte offsets, 8 bytes each
)

// DecodeSAC decodes a SAC binary file in either byte order.  The byte order is
// the one that makes the file length match the number of samples in the header.
// The start of the returned Channel is the reference time plus the begin offset.
func DecodeSAC(b []byte) (waveform.Channel, error) {
	if len(b) < sacHeaderSize {
		return waveform.Channel{}, errors.Errorf("%d bytes is too short for a SAC file", len(b))
	}

	var order binary.ByteOrder

	for _, o := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		n := int32(o.Uint32(b[sacInts+sacNpts*4:]))
		if n >= 0 && sacHeaderSize+int(n)*4 == len(b) {
			order = o
			break
		}
	}

	if order == nil {
		return waveform.Channel{}, errors.New("SAC header npts does not match the file length")
	}

	f := func(i int) float32 {
		return math.Float32frombits(order.Uint32(b[i*4:]))
	}
	n := func(i int) int {
		return int(int32(order.Uint32(b[sacInts+i*4:])))
	}

	delta := float64(f(sacDelta))
	if delta <= 0 || f(sacDelta) == waveform.Undefined {
		return waveform.Channel{}, errors.Errorf("invalid SAC delta %g", delta)
	}

	year := n(sacNzyear)
	if year == int(waveform.Undefined) {
		return waveform.Channel{}, errors.New("SAC reference time is not set")
	}

	start := time.Date(year, time.January, 1, n(sacNzhour), n(sacNzmin), n(sacNzsec), n(sacNzmsec)*int(time.Millisecond), time.UTC).
		AddDate(0, 0, n(sacNzjday)-1)

	if bb := f(sacB); bb != waveform.Undefined {
		start = start.Add(time.Duration(math.Round(float64(bb)*1e6)) * time.Microsecond)
	}

	c := waveform.Channel{
		Code:    strings.TrimSpace(strings.TrimRight(string(b[sacKcmpnm:sacKcmpnm+8]), "\x00")),
		Delta:   delta,
		Start:   start,
		Samples: make([]float32, n(sacNpts)),
	}

	for i := range c.Samples {
		c.Samples[i] = math.Float32frombits(order.Uint32(b[sacHeaderSize+i*4:]))
	}

	return c, nil
}
