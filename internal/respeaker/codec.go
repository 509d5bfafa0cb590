package respeaker

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
)

// Wire sizes.
const (
	writePayloadLen = 12
	readResponseLen = 8
)

// Control request fields.
const (
	requestTypeOut = 0x40 // host-to-device | vendor | device
	requestTypeIn  = 0xC0 // device-to-host | vendor | device

	requestParameter = 0x00
	requestVersion   = 0x80

	readFlag    = 0x80
	readIntFlag = 0x40
)

// floatMantissaBits is the mantissa width the simulator uses when it
// answers float reads. A float32 value survives the trip exactly.
const floatMantissaBits = 24

// EncodeWrite builds the 12-byte write payload for d. Int values are
// truncated toward zero. Read-only descriptors and non-finite values are
// rejected before any bytes are produced.
func EncodeWrite(d Descriptor, value float64) ([]byte, error) {
	if d.Access == ReadOnly {
		return nil, fmt.Errorf("%w: %s", domain.ErrReadOnly, d.Name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%s: value %v is not finite", d.Name, value)
	}

	buf := make([]byte, writePayloadLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(d.Offset)))
	if d.Type == Int {
		binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(value)))
		binary.LittleEndian.PutUint32(buf[8:12], 1)
	} else {
		binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(value)))
		binary.LittleEndian.PutUint32(buf[8:12], 0)
	}
	return buf, nil
}

// DecodeRead interprets an 8-byte read response as (w0, w1). Int
// registers yield w0; float registers yield w0 * 2^w1.
func DecodeRead(d Descriptor, raw []byte) (float64, error) {
	if len(raw) != readResponseLen {
		return 0, &domain.TransportError{
			Op:     "read",
			Module: d.Module,
			Err:    fmt.Errorf("%w: %s got %d bytes, want %d", domain.ErrShortTransfer, d.Name, len(raw), readResponseLen),
		}
	}
	w0 := int32(binary.LittleEndian.Uint32(raw[0:4]))
	w1 := int32(binary.LittleEndian.Uint32(raw[4:8]))
	if d.Type == Int {
		return float64(w0), nil
	}
	return math.Ldexp(float64(w0), int(w1)), nil
}

// ReadValue returns the wValue of a read request for d.
func ReadValue(d Descriptor) uint16 {
	v := uint16(readFlag) | d.Offset
	if d.Type == Int {
		v |= readIntFlag
	}
	return v
}

// DecodeWrite splits a write payload the way the device does. It is the
// inverse of EncodeWrite and is used by the simulator.
func DecodeWrite(payload []byte) (offset uint16, value float64, isInt bool, err error) {
	if len(payload) != writePayloadLen {
		return 0, 0, false, fmt.Errorf("%w: write payload is %d bytes, want %d", domain.ErrShortTransfer, len(payload), writePayloadLen)
	}
	offset = uint16(binary.LittleEndian.Uint32(payload[0:4]))
	raw := binary.LittleEndian.Uint32(payload[4:8])
	isInt = binary.LittleEndian.Uint32(payload[8:12]) == 1
	if isInt {
		return offset, float64(int32(raw)), true, nil
	}
	return offset, float64(math.Float32frombits(raw)), false, nil
}

// EncodeRead produces the 8-byte response a device would send for value.
// Floats are encoded as a mantissa/exponent pair.
func EncodeRead(t ValueType, value float64) []byte {
	buf := make([]byte, readResponseLen)
	if t == Int {
		binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(value)))
		return buf
	}
	frac, exp := math.Frexp(value)
	mant := int32(math.Round(math.Ldexp(frac, floatMantissaBits)))
	if mant == 0 {
		exp = floatMantissaBits
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(mant))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(exp-floatMantissaBits)))
	return buf
}
