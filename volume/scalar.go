package volume

import (
	"encoding/binary"
	"math"
)

// ScalarType is the element type of an image's samples.
type ScalarType uint8

// Scalar types. Bit, String and IDType exist so that images carrying them
// can be described and rejected with ErrUnsupportedScalarType.
const (
	Uint8 ScalarType = iota + 1
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Float32
	Float64
	Bit
	String
	IDType
)

var scalarTypeNames = [...]string{
	Uint8:   "uint8",
	Int8:    "int8",
	Uint16:  "uint16",
	Int16:   "int16",
	Uint32:  "uint32",
	Int32:   "int32",
	Uint64:  "uint64",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	Bit:     "bit",
	String:  "string",
	IDType:  "idtype",
}

// String returns the type name.
func (t ScalarType) String() string {
	if int(t) < len(scalarTypeNames) && scalarTypeNames[t] != "" {
		return scalarTypeNames[t]
	}
	return "unknown"
}

// Size returns the size of one element in bytes, or 0 for types that
// have no fixed-size numeric representation.
func (t ScalarType) Size() int {
	switch t {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	default:
		return 0
	}
}

// Supported reports whether the type can be loaded into a texture.
func (t ScalarType) Supported() bool {
	return t.Size() > 0
}

// Signed reports whether the type is a signed integer.
func (t ScalarType) Signed() bool {
	return t == Int8 || t == Int16 || t == Int32 || t == Int64
}

// Limits returns the representable range of integer types. Float types
// return the largest finite values.
func (t ScalarType) Limits() (lo, hi float64) {
	switch t {
	case Uint8:
		return 0, math.MaxUint8
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint32:
		return 0, math.MaxUint32
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Uint64:
		return 0, math.MaxUint64
	case Int64:
		return math.MinInt64, math.MaxInt64
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// Number is the set of Go types an Image can be built from.
type Number interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64
}

// scalarTypeOf maps a Go element type to its ScalarType.
func scalarTypeOf[T Number]() ScalarType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case int8:
		return Int8
	case uint16:
		return Uint16
	case int16:
		return Int16
	case uint32:
		return Uint32
	case int32:
		return Int32
	case uint64:
		return Uint64
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return 0
}

// encode writes one element of type t at p.
func encode(t ScalarType, p []byte, v float64) {
	switch t {
	case Uint8:
		p[0] = uint8(v)
	case Int8:
		p[0] = uint8(int8(v))
	case Uint16:
		binary.LittleEndian.PutUint16(p, uint16(v))
	case Int16:
		binary.LittleEndian.PutUint16(p, uint16(int16(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(p, uint32(v))
	case Int32:
		binary.LittleEndian.PutUint32(p, uint32(int32(v)))
	case Uint64:
		binary.LittleEndian.PutUint64(p, uint64(v))
	case Int64:
		binary.LittleEndian.PutUint64(p, uint64(int64(v)))
	case Float32:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v))
	}
}

// decode reads one element of type t from p.
func decode(t ScalarType, p []byte) float64 {
	switch t {
	case Uint8:
		return float64(p[0])
	case Int8:
		return float64(int8(p[0]))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(p))
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(p)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(p))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(p)))
	case Uint64:
		return float64(binary.LittleEndian.Uint64(p))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(p)))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	}
	return 0
}
