package seisdata

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GeoNet/kit/seis/ms"
	"github.com/GeoNet/postmajor/internal/station"
	"github.com/GeoNet/postmajor/internal/waveform"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, time.April, 2, 23, 58, 0, 250000000, time.UTC)

// sacFile encodes a SAC file with the reference time at start and b = 0.
func sacFile(order binary.ByteOrder, delta float32, cmp string, samples []float32) []byte {
	b := make([]byte, sacHeaderSize+len(samples)*4)

	for i := 0; i < 70; i++ {
		order.PutUint32(b[i*4:], math.Float32bits(waveform.Undefined))
	}
	order.PutUint32(b[sacDelta*4:], math.Float32bits(delta))
	order.PutUint32(b[sacB*4:], math.Float32bits(0))

	undef := int32(waveform.Undefined)
	for i := 0; i < 40; i++ {
		order.PutUint32(b[sacInts+i*4:], uint32(undef))
	}

	for i, v := range []int{start.Year(), start.YearDay(), start.Hour(), start.Minute(), start.Second(), start.Nanosecond() / 1e6} {
		order.PutUint32(b[sacInts+i*4:], uint32(v))
	}
	order.PutUint32(b[sacInts+sacNpts*4:], uint32(len(samples)))

	copy(b[sacKcmpnm:sacKcmpnm+8], cmp+"        ")

	for i, v := range samples {
		order.PutUint32(b[sacHeaderSize+i*4:], math.Float32bits(v))
	}

	return b
}

// ms2 encodes a 512 byte miniSEED 2 record of big endian int32 samples.
func ms2(sta, cha string, t time.Time, v []int32) []byte {
	var h ms.RecordHeader

	h.SetSeqNumber(1)
	h.DataQualityIndicator = 'D'
	h.ReservedByte = ' '
	h.SetNetwork("TW")
	h.SetStation(sta)
	h.SetLocation("")
	h.SetChannel(cha)
	h.SetStartTime(t)
	h.NumberOfSamples = uint16(len(v))
	h.SampleRateFactor = 100
	h.SampleRateMultiplier = 1
	h.NumberOfBlockettesThatFollow = 1
	h.FirstBlockette = 48
	h.BeginningOfData = 64

	b := make([]byte, 512)
	copy(b, ms.EncodeRecordHeader(h))
	copy(b[48:], ms.EncodeBlocketteHeader(ms.BlocketteHeader{BlocketteType: 1000}))
	copy(b[52:], ms.EncodeBlockette1000(ms.Blockette1000{Encoding: uint8(ms.EncodingInt32), WordOrder: uint8(ms.BigEndian), RecordLength: 9}))

	for i, x := range v {
		binary.BigEndian.PutUint32(b[64+i*4:], uint32(x))
	}

	return b
}

// ms3 encodes a miniSEED 3 record of little endian float32 samples at 100 Hz.
func ms3(sid string, t time.Time, v []float32) []byte {
	le := binary.LittleEndian
	b := make([]byte, ms3HeaderSize+len(sid)+len(v)*4)

	b[0], b[1], b[2] = 'M', 'S', 3
	le.PutUint32(b[4:], uint32(t.Nanosecond()))
	le.PutUint16(b[8:], uint16(t.Year()))
	le.PutUint16(b[10:], uint16(t.YearDay()))
	b[12], b[13], b[14] = byte(t.Hour()), byte(t.Minute()), byte(t.Second())
	b[15] = byte(ms.EncodingIEEEFloat)
	le.PutUint64(b[16:], math.Float64bits(100.0))
	le.PutUint32(b[24:], uint32(len(v)))
	b[32] = 1
	b[33] = byte(len(sid))
	le.PutUint32(b[36:], uint32(len(v)*4))

	copy(b[ms3HeaderSize:], sid)
	for i, x := range v {
		le.PutUint32(b[ms3HeaderSize+len(sid)+i*4:], math.Float32bits(x))
	}

	return b
}

// tank encodes a TRACEBUF2 packet of intel int32 samples.
func tank(sta, cha string, t float64, rate float64, v []int32) []byte {
	le := binary.LittleEndian
	b := make([]byte, tankHeaderSize+len(v)*4)

	le.PutUint32(b[tankNsamp:], uint32(len(v)))
	le.PutUint64(b[tankStart:], math.Float64bits(t))
	le.PutUint64(b[16:], math.Float64bits(t+float64(len(v)-1)/rate))
	le.PutUint64(b[tankRate:], math.Float64bits(rate))
	copy(b[tankSta:], sta)
	copy(b[tankNet:], "TW")
	copy(b[tankChan:], cha)
	copy(b[tankLoc:], "--")
	copy(b[tankDatatype:], "i4")

	for i, x := range v {
		le.PutUint32(b[tankHeaderSize+i*4:], uint32(x))
	}

	return b
}

func ramp(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i)
	}
	return v
}

func TestDecodeSAC(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		c, err := DecodeSAC(sacFile(order, 0.01, "HLZ", ramp(100)))
		require.NoError(t, err, order.String())

		assert.Equal(t, "HLZ", c.Code)
		assert.InDelta(t, 0.01, c.Delta, 1e-6)
		assert.True(t, start.Equal(c.Start), "expected %s got %s", start, c.Start)
		assert.Equal(t, ramp(100), c.Samples)
	}

	b := sacFile(binary.LittleEndian, 0.01, "HLZ", ramp(100))
	_, err := DecodeSAC(b[:len(b)-4])
	assert.Error(t, err, "truncated file")

	_, err = DecodeSAC(b[:100])
	assert.Error(t, err, "short header")
}

func TestDecodeMiniSEED(t *testing.T) {
	var b []byte

	b = append(b, ms2("TAP", "HLZ", start, []int32{1, 2, 3, 4, 5})...)
	// a gap of two samples.
	b = append(b, ms2("TAP", "HLZ", start.Add(70*time.Millisecond), []int32{8, 9})...)
	// the same again.
	b = append(b, ms2("TAP", "HLZ", start.Add(70*time.Millisecond), []int32{8, 9})...)
	b = append(b, ms3("FDSN:TW_TAP__H_L_N", start, []float32{0.5, 1.5})...)

	segs, err := decodeMiniSEED(b)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	z, err := join(segs["TW.TAP.--.HLZ"])
	require.NoError(t, err)

	u := waveform.Undefined
	assert.Equal(t, []float32{1, 2, 3, 4, 5, u, u, 8, 9}, z.Samples)
	assert.InDelta(t, 0.01, z.Delta, 1e-12)
	assert.True(t, start.Equal(z.Start))

	n, err := join(segs["TW.TAP.--.HLN"])
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1.5}, n.Samples)
	assert.True(t, start.Equal(n.Start))
}

func TestDecodeTank(t *testing.T) {
	t0 := float64(start.UnixNano()) / 1e9

	var b []byte
	b = append(b, tank("TAP", "HLZ", t0, 100, []int32{1, 2, 3})...)
	b = append(b, tank("TAP", "HLE", t0, 100, []int32{7})...)
	// duplicate.
	b = append(b, tank("TAP", "HLZ", t0+0.01, 100, []int32{2, 3})...)
	// overlaps by one sample then a gap of one.
	b = append(b, tank("TAP", "HLZ", t0+0.02, 100, []int32{3, 4})...)
	b = append(b, tank("TAP", "HLZ", t0+0.05, 100, []int32{6})...)

	segs, err := decodeTank(b)
	require.NoError(t, err)

	z, err := join(segs["TW.TAP.--.HLZ"])
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, waveform.Undefined, 6}, z.Samples)
	assert.True(t, start.Equal(z.Start), "expected %s got %s", start, z.Start)

	e, err := join(segs["TW.TAP.--.HLE"])
	require.NoError(t, err)
	assert.Equal(t, []float32{7}, e.Samples)

	bad := tank("TAP", "HLZ", t0, 100, []int32{1})
	copy(bad[tankDatatype:], "x4")
	_, err = decodeTank(bad)
	assert.Error(t, err)

	_, err = decodeTank(b[:len(b)-2])
	assert.Error(t, err, "truncated tank")
}

func TestAlign(t *testing.T) {
	c := func(code string, delta float64, s time.Time, n int) waveform.Channel {
		return waveform.Channel{Code: code, Delta: delta, Start: s, Samples: ramp(n)}
	}

	chs, err := Align([3]waveform.Channel{
		c("HLZ", 0.01, start, 100),
		c("HLN", 0.01, start, 90),
		c("HLE", 0.01, start, 95),
	})
	require.NoError(t, err)

	for _, v := range chs {
		assert.Equal(t, 90, v.Npts(), v.Code)
	}

	_, err = Align([3]waveform.Channel{
		c("HLZ", 0.01, start, 100),
		c("HLN", 0.02, start, 100),
		c("HLE", 0.01, start, 100),
	})
	assert.Equal(t, ErrMismatch, errors.Cause(err))

	_, err = Align([3]waveform.Channel{
		c("HLZ", 0.01, start, 100),
		c("HLN", 0.01, start, 100),
		c("HLE", 0.01, start.Add(time.Millisecond), 100),
	})
	assert.Equal(t, ErrMismatch, errors.Cause(err))

	_, err = Align([3]waveform.Channel{
		c("HLZ", 0.01, start, 100),
		c("HLN", 0.01, start, 0),
		c("HLE", 0.01, start, 100),
	})
	assert.Equal(t, ErrNoData, errors.Cause(err))
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()

	s := station.Station{
		Station: "TAP", Network: "TW", Location: "--",
		Channels: [3]string{"HLZ", "HLN", "HLE"},
	}

	for i, cmp := range s.Channels {
		b := sacFile(binary.BigEndian, 0.01, cmp, ramp(200+i))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "TAP."+cmp+".TW.--"), b, 0600))
	}

	src, multiplexed, err := Open(dir)
	require.NoError(t, err)
	assert.False(t, multiplexed)

	l := NewLoader(src, SAC, multiplexed)
	require.NoError(t, l.Load(&s))

	for i, v := range s.Data {
		assert.Equal(t, s.Channels[i], v.Code)
		assert.Equal(t, 200, v.Npts())
	}

	missing := s
	missing.Station = "NOPE"
	err = l.Load(&missing)
	assert.Equal(t, ErrNoData, errors.Cause(err))

	// a multiplexed tank file.
	t0 := float64(start.UnixNano()) / 1e9

	var b []byte
	for _, cmp := range s.Channels {
		b = append(b, tank("TAP", cmp, t0, 100, []int32{1, 2, 3, 4})...)
	}

	file := filepath.Join(dir, "event.tnk")
	require.NoError(t, os.WriteFile(file, b, 0600))

	src, multiplexed, err = Open(file)
	require.NoError(t, err)
	assert.True(t, multiplexed)

	s.Data = [3]waveform.Channel{}
	l = NewLoader(src, Tank, multiplexed)
	require.NoError(t, l.Load(&s))

	for _, v := range s.Data {
		assert.Equal(t, []float32{1, 2, 3, 4}, v.Samples)
		assert.True(t, start.Equal(v.Start))
	}

	err = l.Load(&missing)
	assert.Equal(t, ErrNoData, errors.Cause(err))
}

func TestParseFormat(t *testing.T) {
	for _, v := range []Format{SAC, MiniSEED, MiniSEED3, Tank} {
		f, err := ParseFormat(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, f)
	}

	_, err := ParseFormat("seed")
	assert.Error(t, err)
}
