package protocol

import "github.com/ardnew/dspctl/pkg"

// MemoryView is a contiguous readback of raw bytes keyed by its base
// address (§3).
type MemoryView struct {
	Base uint16
	Data []byte
}

// ReadAt returns the len bytes at addr, or false if they fall outside the
// view.
func (v MemoryView) ReadAt(addr uint16, length uint8) ([]byte, bool) {
	if addr < v.Base || int(addr) > int(v.Base)+len(v.Data) {
		return nil, false
	}
	start := int(addr - v.Base)
	end := start + int(length)
	if len(v.Data) < end {
		return nil, false
	}
	return v.Data[start:end], true
}

// ReadU8 reads a single byte at addr.
func (v MemoryView) ReadU8(addr uint16) (byte, bool) {
	b, ok := v.ReadAt(addr, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// ReadU16 reads a big-endian 16-bit word at addr.
func (v MemoryView) ReadU16(addr uint16) (uint16, bool) {
	b, ok := v.ReadAt(addr, 2)
	if !ok {
		return 0, false
	}
	return uint16(b[0])<<8 | uint16(b[1]), true
}

// ExtendWith concatenates other onto v, failing if other does not start
// exactly where v ends (§3). The combined view is truncated at the 16-bit
// address boundary, since anything past it is considered garbage.
func (v *MemoryView) ExtendWith(other MemoryView) error {
	expectedStart := v.Base + uint16(len(v.Data))
	if other.Base != expectedStart {
		return pkg.ErrMismatchingBases
	}
	data := append(append([]byte(nil), v.Data...), other.Data...)
	maxLen := (1 << 16) - int(v.Base)
	if len(data) > maxLen {
		data = data[:maxLen]
	}
	v.Data = data
	return nil
}

// FloatView is a contiguous readback of floats keyed by its base address
// (§3), the float analogue of MemoryView.
type FloatView struct {
	Base uint16
	Data []float32
}

// Get returns the float stored at addr.
func (v FloatView) Get(addr uint16) float32 {
	return v.Data[addr-v.Base]
}

// ExtendWith concatenates other onto v, failing if other does not start
// exactly where v ends.
func (v *FloatView) ExtendWith(other FloatView) error {
	expectedStart := v.Base + uint16(len(v.Data))
	if other.Base != expectedStart {
		return pkg.ErrMismatchingBases
	}
	v.Data = append(append([]float32(nil), v.Data...), other.Data...)
	return nil
}
