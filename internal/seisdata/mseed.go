package seisdata

import (
	"encoding/binary"
	"math"
	"strings"
	"time"

	"github.com/GeoNet/kit/seis/ms"
	"github.com/pkg/errors"
)

// the record length used when a record has no blockette 1000.
const recordLength = 512

// miniSEED 3 fixed header length.
const ms3HeaderSize = 40

// decodeMiniSEED decodes the miniSEED 2 or 3 records in b, which may hold
// several streams, into segments keyed by NET.STA.LOC.CHA.
func decodeMiniSEED(b []byte) (map[string][]segment, error) {
	segs := make(map[string][]segment)

	for len(b) > 0 {
		var k string
		var s segment
		var n int
		var err error

		switch {
		case len(b) >= ms3HeaderSize && b[0] == 'M' && b[1] == 'S' && b[2] == 3:
			k, s, n, err = ms3Record(b)
		default:
			k, s, n, err = ms2Record(b)
		}
		if err != nil {
			return nil, err
		}

		b = b[n:]

		if len(s.samples) == 0 {
			continue
		}

		segs[k] = append(segs[k], s)
	}

	return segs, nil
}

// ms2Record decodes the miniSEED 2 record at the start of b and returns its
// length.
func ms2Record(b []byte) (string, segment, int, error) {
	if len(b) < ms.RecordHeaderSize {
		return "", segment{}, 0, errors.Errorf("%d trailing bytes is too short for a miniSEED record", len(b))
	}

	n := recordLength
	if n > len(b) {
		n = len(b)
	}

	r, err := ms.NewRecord(b[:n])
	if err != nil {
		return "", segment{}, 0, err
	}

	// the record length is in blockette 1000.
	if l := r.BlockSize(); l > 0 && l != n {
		if l > len(b) {
			return "", segment{}, 0, errors.Errorf("%s: record length %d with %d bytes left", r.SrcName(false), l, len(b))
		}

		n = l
		if r, err = ms.NewRecord(b[:n]); err != nil {
			return "", segment{}, 0, err
		}
	}

	k := key(r.Network(), r.Station(), r.Location(), r.Channel())

	// ASCII log records and the like.
	if r.SampleCount() == 0 || r.SampleRate() <= 0 || r.Encoding() == ms.EncodingASCII {
		return k, segment{}, n, nil
	}

	v, err := r.Float64s()
	if err != nil {
		return "", segment{}, 0, errors.Wrap(err, r.SrcName(false))
	}

	s := segment{
		start:   r.StartTime(),
		delta:   1.0 / r.SampleRate(),
		samples: make([]float32, len(v)),
	}

	for i := range v {
		s.samples[i] = float32(v[i])
	}

	return k, s, n, nil
}

// ms3Record decodes the miniSEED 3 record at the start of b and returns its length.
// Sample payloads are decoded with the miniSEED 2 decoders, the encodings are shared.
func ms3Record(b []byte) (string, segment, int, error) {
	le := binary.LittleEndian

	sidLen := int(b[33])
	extraLen := int(le.Uint16(b[34:]))
	dataLen := int(le.Uint32(b[36:]))

	n := ms3HeaderSize + sidLen + extraLen + dataLen
	if n > len(b) {
		return "", segment{}, 0, errors.Errorf("miniSEED 3 record length %d with %d bytes left", n, len(b))
	}

	k, err := sourceID(string(b[ms3HeaderSize : ms3HeaderSize+sidLen]))
	if err != nil {
		return "", segment{}, 0, err
	}

	count := le.Uint32(b[24:])
	enc := ms.Encoding(b[15])
	rate := math.Float64frombits(le.Uint64(b[16:]))
	if rate < 0 {
		rate = -1.0 / rate
	}

	if count == 0 || rate <= 0 || enc == ms.EncodingASCII {
		return k, segment{}, n, nil
	}

	if count > math.MaxUint16 {
		return "", segment{}, 0, errors.Errorf("%s: %d samples in one record", k, count)
	}

	start := time.Date(int(le.Uint16(b[8:])), time.January, 1,
		int(b[12]), int(b[13]), int(b[14]), int(le.Uint32(b[4:])), time.UTC).
		AddDate(0, 0, int(le.Uint16(b[10:]))-1)

	r := ms.Record{
		Data: b[n-dataLen : n],
	}
	r.NumberOfSamples = uint16(count)
	r.B1000.Encoding = uint8(enc)

	// Steim frames are big endian, everything else little endian.
	if enc == ms.EncodingSTEIM1 || enc == ms.EncodingSTEIM2 {
		r.B1000.WordOrder = uint8(ms.BigEndian)
	}

	v, err := r.Float64s()
	if err != nil {
		return "", segment{}, 0, errors.Wrap(err, k)
	}

	s := segment{
		start:   start,
		delta:   1.0 / rate,
		samples: make([]float32, len(v)),
	}

	for i := range v {
		s.samples[i] = float32(v[i])
	}

	return k, s, n, nil
}

// sourceID converts an FDSN source identifier FDSN:NET_STA_LOC_B_S_SS to a key.
func sourceID(sid string) (string, error) {
	p := strings.Split(strings.TrimPrefix(sid, "FDSN:"), "_")
	if len(p) != 6 {
		return "", errors.Errorf("unexpected source identifier %q", sid)
	}

	return key(p[0], p[1], p[2], p[3]+p[4]+p[5]), nil
}
