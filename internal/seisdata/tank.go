package seisdata

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// TRACEBUF2 packet header.
const (
	tankHeaderSize = 64

	tankNsamp    = 4
	tankStart    = 8
	tankRate     = 24
	tankSta      = 32 // 7 bytes
	tankNet      = 39 // 9
	tankChan     = 48 // 4
	tankLoc      = 52 // 3
	tankDatatype = 57 // 3
)

// decodeTank decodes a tank of Earthworm TRACEBUF2 packets into segments keyed
// by NET.STA.LOC.CHA.  A packet ending no later than the packet before it for
// the same stream is a duplicate and is skipped.
func decodeTank(b []byte) (map[string][]segment, error) {
	segs := make(map[string][]segment)
	last := make(map[string]float64)

	for len(b) > 0 {
		if len(b) < tankHeaderSize {
			return nil, errors.Errorf("%d trailing bytes is too short for a TRACEBUF2 header", len(b))
		}

		var order binary.ByteOrder
		switch b[tankDatatype] {
		case 'i', 'f':
			order = binary.LittleEndian
		case 's', 't':
			order = binary.BigEndian
		default:
			return nil, errors.Errorf("unknown TRACEBUF2 datatype %q", cstring(b[tankDatatype:tankDatatype+3]))
		}

		size := int(b[tankDatatype+1] - '0')
		float := b[tankDatatype] == 'f' || b[tankDatatype] == 't'

		switch {
		case !float && (size == 2 || size == 4):
		case float && (size == 4 || size == 8):
		default:
			return nil, errors.Errorf("unknown TRACEBUF2 datatype %q", cstring(b[tankDatatype:tankDatatype+3]))
		}

		nsamp := int(int32(order.Uint32(b[tankNsamp:])))
		start := math.Float64frombits(order.Uint64(b[tankStart:]))
		rate := math.Float64frombits(order.Uint64(b[tankRate:]))

		n := tankHeaderSize + nsamp*size
		if nsamp < 0 || n > len(b) {
			return nil, errors.Errorf("TRACEBUF2 packet with %d samples and %d bytes left", nsamp, len(b)-tankHeaderSize)
		}

		k := key(cstring(b[tankNet:tankNet+9]), cstring(b[tankSta:tankSta+7]), cstring(b[tankLoc:tankLoc+3]), cstring(b[tankChan:tankChan+4]))
		data := b[tankHeaderSize:n]
		b = b[n:]

		if rate <= 0 || nsamp == 0 {
			continue
		}

		end := start + float64(nsamp-1)/rate

		if prev, ok := last[k]; ok && prev+1.0/rate > end {
			continue
		}
		last[k] = end

		s := segment{
			start:   epochTime(start),
			delta:   1.0 / rate,
			samples: make([]float32, nsamp),
		}

		for i := range s.samples {
			switch {
			case float && size == 8:
				s.samples[i] = float32(math.Float64frombits(order.Uint64(data[i*8:])))
			case float:
				s.samples[i] = math.Float32frombits(order.Uint32(data[i*4:]))
			case size == 4:
				s.samples[i] = float32(int32(order.Uint32(data[i*4:])))
			default:
				s.samples[i] = float32(int16(order.Uint16(data[i*2:])))
			}
		}

		segs[k] = append(segs[k], s)
	}

	return segs, nil
}

func cstring(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
