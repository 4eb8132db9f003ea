package protocol

import (
	"encoding/binary"
	"math"
)

// Value is a sum type over the untagged 4-byte payload carried by a Write
// command: it can hold raw bytes (when too short to classify), an integer,
// an IEEE-754 float, or a 32-bit fixed-point sample. Which one applies is
// decided from context, because
// the wire format itself carries no type tag (§3).
type Value struct {
	kind   valueKind
	raw    []byte
	ival   uint16
	ival32 uint32
	fval   float32
}

type valueKind int

const (
	valueUnknown valueKind = iota
	valueInt
	valueFloat
	valueFixed
)

// IntValue constructs a Value wrapping a 16-bit integer.
func IntValue(v uint16) Value { return Value{kind: valueInt, ival: v} }

// FloatValue constructs a Value wrapping an IEEE-754 float.
func FloatValue(v float32) Value { return Value{kind: valueFloat, fval: v} }

// FixedValue constructs a Value wrapping a full 32-bit biased fixed-point
// sample (protocol.EncodeFixedPoint), distinct from IntValue because it
// occupies all four wire bytes rather than just the low two (§3).
func FixedValue(raw uint32) Value { return Value{kind: valueFixed, ival32: raw} }

// RawValue constructs a Value wrapping an opaque byte payload, used when
// fewer than 4 bytes are available to classify it.
func RawValue(b []byte) Value { return Value{kind: valueUnknown, raw: append([]byte(nil), b...)} }

// IsInt reports whether v holds an integer.
func (v Value) IsInt() bool { return v.kind == valueInt }

// IsFloat reports whether v holds a float.
func (v Value) IsFloat() bool { return v.kind == valueFloat }

// IsFixed reports whether v holds a 32-bit fixed-point sample.
func (v Value) IsFixed() bool { return v.kind == valueFixed }

// Fixed returns the raw biased fixed-point word held by v, or 0 if v does
// not hold one.
func (v Value) Fixed() uint32 { return v.ival32 }

// Int returns the integer held by v, or 0 if v does not hold one.
func (v Value) Int() uint16 { return v.ival }

// Float returns the float held by v, or 0 if v does not hold one.
func (v Value) Float() float32 { return v.fval }

// Bytes renders v back to its 4-byte (or shorter, for raw) wire encoding.
func (v Value) Bytes() []byte {
	switch v.kind {
	case valueInt:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint16(b[0:2], v.ival)
		return b
	case valueFloat:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(v.fval))
		return b
	case valueFixed:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v.ival32)
		return b
	default:
		return append([]byte(nil), v.raw...)
	}
}

// ValueFromBytes decodes a Value from its wire payload using the
// heuristic in §3: payloads under 4 bytes are kept opaque; a payload whose
// low two bytes are nonzero and whose high two bytes are both zero decodes
// as a little-endian uint16; otherwise it decodes as a little-endian
// float32.
func ValueFromBytes(b []byte) Value {
	if len(b) < 4 {
		return RawValue(b)
	}
	lowNonzero := b[0] != 0 || b[1] != 0
	highZero := b[2] == 0 && b[3] == 0
	if lowNonzero && highZero {
		return IntValue(binary.LittleEndian.Uint16(b[0:2]))
	}
	return FloatValue(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

// Write-int sentinel values (§9 supplement): mirrors the reference
// protocol's WriteInt helper used to build mute/enable toggles as 0x13
// Write commands.
const (
	WriteIntDisabled uint16 = 1
	WriteIntEnabled  uint16 = 2
	WriteIntBypassed uint16 = 3
)

// Gain is a master-volume gain in dB, clamped to [-127, 0] and encoded as a
// single byte distinct from the 28-bit fixed-point sample encoding used
// in-band (§9 supplement: the two encodings are unrelated).
type Gain float32

// Gain bounds, per the reference protocol.
const (
	GainMin Gain = -127
	GainMax Gain = 0
)

// Byte encodes g as the single-byte wire representation used by SetVolume.
func (g Gain) Byte() byte {
	v := g
	if v < GainMin {
		v = GainMin
	}
	if v > GainMax {
		v = GainMax
	}
	return byte(math.Round(float64(-v) * 2))
}

// GainFromByte decodes a SetVolume wire byte back into a Gain.
func GainFromByte(b byte) Gain {
	return Gain(-0.5 * float32(b))
}

// Fixed-point sample encoding (§3): the value scaled by 2^23 as a signed
// 32-bit integer, plus a bias constant, XORed with that same constant.
const fixedPointBias = 0x0800_0000

// EncodeFixedPoint converts a sample value into its biased fixed-point
// wire representation, clipping the scaled value to the int32 range.
func EncodeFixedPoint(value float64) uint32 {
	scaled := value * float64(1<<23)
	if scaled < math.MinInt32 {
		scaled = math.MinInt32
	}
	if scaled > math.MaxInt32 {
		scaled = math.MaxInt32
	}
	return (uint32(int32(scaled)) + fixedPointBias) ^ fixedPointBias
}

// DecodeFixedPoint recovers the sample value from its biased fixed-point
// wire representation.
func DecodeFixedPoint(enc uint32) float64 {
	unbiased := int32((enc ^ fixedPointBias) - fixedPointBias)
	return float64(unbiased) / float64(1<<23)
}

// DbToFixedPoint maps a decibel value to its fixed-point wire
// representation via dB -> 10^(dB/20).
func DbToFixedPoint(db float64) uint32 {
	return EncodeFixedPoint(math.Pow(10, db/20))
}
