package tensor

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/nvr-ai/go-synap/types"
)

// Element access over little-endian tensor bytes. Every switch below enumerates the
// closed set of data types; Invalid never reaches them because New rejects it.

// rawAt returns the stored value of element i as a float64 without dequantizing.
func rawAt(dt types.DataType, b []byte, i int) float64 {
	switch dt {
	case types.Byte, types.Uint8:
		return float64(b[i])
	case types.Int8:
		return float64(int8(b[i]))
	case types.Int16:
		return float64(int16(binary.LittleEndian.Uint16(b[2*i:])))
	case types.Uint16:
		return float64(binary.LittleEndian.Uint16(b[2*i:]))
	case types.Int32:
		return float64(int32(binary.LittleEndian.Uint32(b[4*i:])))
	case types.Uint32:
		return float64(binary.LittleEndian.Uint32(b[4*i:]))
	case types.Float16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(b[2*i:])).Float32())
	case types.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
	case types.Invalid:
	}
	return 0
}

// putRaw stores v into element i. Integer types round half away from zero and saturate.
func putRaw(dt types.DataType, b []byte, i int, v float64) {
	switch dt {
	case types.Byte, types.Uint8:
		b[i] = uint8(clampRound(v, 0, math.MaxUint8))
	case types.Int8:
		b[i] = uint8(int8(clampRound(v, math.MinInt8, math.MaxInt8)))
	case types.Int16:
		binary.LittleEndian.PutUint16(b[2*i:], uint16(int16(clampRound(v, math.MinInt16, math.MaxInt16))))
	case types.Uint16:
		binary.LittleEndian.PutUint16(b[2*i:], uint16(clampRound(v, 0, math.MaxUint16)))
	case types.Int32:
		binary.LittleEndian.PutUint32(b[4*i:], uint32(int32(clampRound(v, math.MinInt32, math.MaxInt32))))
	case types.Uint32:
		binary.LittleEndian.PutUint32(b[4*i:], uint32(clampRound(v, 0, math.MaxUint32)))
	case types.Float16:
		binary.LittleEndian.PutUint16(b[2*i:], float16.Fromfloat32(float32(v)).Bits())
	case types.Float32:
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(float32(v)))
	case types.Invalid:
	}
}

func clampRound(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(math.Round(v), lo), hi)
}

// decodeAt returns the real value of element i.
func (t *Tensor) decodeAt(b []byte, i int) float64 {
	raw := rawAt(t.spec.DataType, b, i)
	if q := t.spec.Quantization; q != nil {
		return (raw - float64(q.ZeroPoint)) * float64(q.Scale)
	}
	return raw
}

// encodeAt stores the real value v into element i, quantizing when required.
func (t *Tensor) encodeAt(b []byte, i int, v float64) {
	if q := t.spec.Quantization; q != nil {
		v = math.Round(v/float64(q.Scale)) + float64(q.ZeroPoint)
	}
	putRaw(t.spec.DataType, b, i, v)
}
