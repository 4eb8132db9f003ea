// Package descriptor models a DSP product's static memory layout: which
// EEPROM cells implement which control, and which wire dialect the device
// speaks. A descriptor is resolved once per device binding from its
// hardware id and never changes afterward.
package descriptor

import "github.com/ardnew/dspctl/protocol"

// FloatEncoding selects how a descriptor-driven write encodes a sample
// value: either as a bare IEEE float or as the 28-bit fixed-point
// representation used by some firmware families (§3).
type FloatEncoding uint8

const (
	// Float32LE encodes sample values as little-endian IEEE-754 floats.
	Float32LE FloatEncoding = iota
	// FixedPoint encodes sample values using the 28-bit biased fixed-point
	// representation (protocol.EncodeFixedPoint).
	FixedPoint
)

// Dialect is the (address width, float encoding) pair a device kind
// speaks.
type Dialect struct {
	AddrWidth     uint8
	FloatEncoding FloatEncoding
}

// DefaultDialect matches the most common device family: 2-byte addresses,
// bare IEEE floats.
var DefaultDialect = Dialect{AddrWidth: 2, FloatEncoding: Float32LE}

// Addr builds a protocol.Addr at val using d's address width.
func (d Dialect) Addr(val uint16) protocol.Addr {
	return protocol.NewAddr(val, d.AddrWidth)
}

// Value encodes a sample value as a Value using d's float encoding.
func (d Dialect) Value(v float32) protocol.Value {
	switch d.FloatEncoding {
	case FixedPoint:
		return protocol.FixedValue(protocol.EncodeFixedPoint(float64(v)))
	default:
		return protocol.FloatValue(v)
	}
}

// DbValue encodes a decibel value as a Value using d's float encoding.
func (d Dialect) DbValue(db float64) protocol.Value {
	switch d.FloatEncoding {
	case FixedPoint:
		return protocol.FixedValue(protocol.DbToFixedPoint(db))
	default:
		return protocol.FloatValue(float32(db))
	}
}

// IntValue wraps v as an integer Value, independent of dialect.
func (Dialect) IntValue(v uint16) protocol.Value {
	return protocol.IntValue(v)
}
