package protocol

import "encoding/binary"

// Addr is a device memory address paired with the wire width it was read
// with or should be written with: 1 byte for legacy 2-byte-address devices
// seen with a short remaining payload, 2 bytes otherwise (§3, §4.2.1).
type Addr struct {
	Val uint16
	Len uint8
}

// NewAddr constructs an Addr with an explicit wire width.
func NewAddr(val uint16, length uint8) Addr {
	return Addr{Val: val, Len: length}
}

// ReadAddr reads an address of the given width from the head of buf,
// returning the address and the number of bytes consumed.
func ReadAddr(buf []byte, length uint8) (Addr, int) {
	switch length {
	case 1:
		return Addr{Val: uint16(buf[0]), Len: 1}, 1
	default:
		return Addr{Val: binary.BigEndian.Uint16(buf[0:2]), Len: 2}, 2
	}
}

// Write appends a's wire encoding to buf and returns the extended slice.
func (a Addr) Write(buf []byte) []byte {
	switch a.Len {
	case 1:
		return append(buf, byte(a.Val))
	default:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, a.Val)
		return append(buf, b...)
	}
}
