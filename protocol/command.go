package protocol

import (
	"encoding/binary"
	"math"
)

// Command is a tagged protocol operation: its Encode method renders the
// exact opcode-tagged byte layout the device expects, and Matches decides
// whether a given Response completes it (§4.2).
type Command interface {
	Encode() []byte
	Matches(r Response) bool
}

// ReadHardwareId (0x31) requests the device's hardware identifier.
type ReadHardwareId struct{}

func (ReadHardwareId) Encode() []byte { return []byte{0x31} }
func (ReadHardwareId) Matches(r Response) bool {
	_, ok := r.(HardwareId)
	return ok
}

// ReadFloats (0x14) reads up to 14 floats starting at Addr.
type ReadFloats struct {
	Addr uint16
	Len  uint8
}

func (c ReadFloats) Encode() []byte {
	b := []byte{0x14, 0, 0, c.Len}
	binary.BigEndian.PutUint16(b[1:3], c.Addr)
	return b
}
func (c ReadFloats) Matches(r Response) bool {
	fd, ok := r.(FloatData)
	return ok && fd.Base == c.Addr && len(fd.Data) == int(c.Len)
}

// WriteMemory (0x04) writes raw bytes starting at Addr.
type WriteMemory struct {
	Addr uint16
	Data []byte
}

func (c WriteMemory) Encode() []byte {
	b := make([]byte, 3, 3+len(c.Data))
	b[0] = 0x04
	binary.BigEndian.PutUint16(b[1:3], c.Addr)
	return append(b, c.Data...)
}
func (WriteMemory) Matches(r Response) bool {
	_, ok := r.(Ack)
	return ok
}

// ReadMemory (0x05) reads up to 61 bytes starting at Addr.
type ReadMemory struct {
	Addr uint16
	Size uint8
}

func (c ReadMemory) Encode() []byte {
	b := []byte{0x05, 0, 0, c.Size}
	binary.BigEndian.PutUint16(b[1:3], c.Addr)
	return b
}
func (c ReadMemory) Matches(r Response) bool {
	md, ok := r.(MemoryData)
	return ok && md.Base == c.Addr && len(md.Data) == int(c.Size)
}

// SetConfig (0x25) selects a device preset, optionally forcing a reset.
type SetConfig struct {
	Config uint8
	Reset  bool
}

func (c SetConfig) Encode() []byte {
	r := byte(0)
	if c.Reset {
		r = 1
	}
	return []byte{0x25, c.Config, r}
}
func (SetConfig) Matches(r Response) bool {
	_, ok := r.(ConfigChanged)
	return ok
}

// SetSource (0x34) selects the active input source by id.
type SetSource struct{ Source uint8 }

func (c SetSource) Encode() []byte         { return []byte{0x34, c.Source} }
func (SetSource) Matches(r Response) bool  { _, ok := r.(Ack); return ok }

// SetMute (0x17) toggles the master mute.
type SetMute struct{ Value bool }

func (c SetMute) Encode() []byte {
	v := byte(0)
	if c.Value {
		v = 1
	}
	return []byte{0x17, v}
}
func (SetMute) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// SetVolume (0x42) sets the master volume.
type SetVolume struct{ Value Gain }

func (c SetVolume) Encode() []byte        { return []byte{0x42, c.Value.Byte()} }
func (SetVolume) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// WriteBiquad (0x30) writes five IEEE-LE float coefficients to a biquad
// cell: opcode, marker 0x80, 2-byte address, two zero bytes, five f32s.
type WriteBiquad struct {
	Addr Addr
	Data [5]float32
}

func (c WriteBiquad) Encode() []byte {
	b := make([]byte, 0, 6+20)
	b = append(b, 0x30, 0x80)
	b = c.Addr.Write(b)
	b = append(b, 0x00, 0x00)
	for _, f := range c.Data {
		fb := make([]byte, 4)
		binary.LittleEndian.PutUint32(fb, math.Float32bits(f))
		b = append(b, fb...)
	}
	return b
}
func (WriteBiquad) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// WriteBiquadBypass (0x19) toggles a biquad's bypass flag.
type WriteBiquadBypass struct {
	Addr  Addr
	Value bool
}

func (c WriteBiquadBypass) Encode() []byte {
	v := byte(0x00)
	if c.Value {
		v = 0x80
	}
	b := []byte{0x19, v}
	return c.Addr.Write(b)
}
func (WriteBiquadBypass) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// Write (0x13) writes a polymorphic Value to a dsp cell.
type Write struct {
	Addr  Addr
	Value Value
}

func (c Write) Encode() []byte {
	b := []byte{0x13, 0x80}
	b = c.Addr.Write(b)
	return append(b, c.Value.Bytes()...)
}
func (Write) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// Mute builds a Write command toggling the mute-style cell at addr using
// the reference WriteInt encoding (§9 supplement).
func Mute(addr uint16, value bool) Write {
	v := WriteIntEnabled
	if value {
		v = WriteIntDisabled
	}
	return Write{Addr: NewAddr(addr, 2), Value: IntValue(v)}
}

// FirLoadStart (0x39) begins a FIR coefficient load for the filter at
// Index, returning the maximum tap count accepted.
type FirLoadStart struct{ Index uint8 }

func (c FirLoadStart) Encode() []byte { return []byte{0x39, c.Index} }
func (FirLoadStart) Matches(r Response) bool {
	_, ok := r.(FirLoadSize)
	return ok
}

// FirLoadData (0x3a) carries up to 15 FIR coefficients for the in-progress
// load.
type FirLoadData struct {
	Index uint8
	Data  []float32
}

func (c FirLoadData) Encode() []byte {
	b := []byte{0x3a, c.Index}
	for _, f := range c.Data {
		fb := make([]byte, 4)
		binary.LittleEndian.PutUint32(fb, math.Float32bits(f))
		b = append(b, fb...)
	}
	return b
}
func (FirLoadData) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// FirLoadEnd (0x3b) completes an in-progress FIR load.
type FirLoadEnd struct{}

func (FirLoadEnd) Encode() []byte         { return []byte{0x3b} }
func (FirLoadEnd) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// DiracBypass (0x3f) toggles Dirac Live bypass on models that support it.
type DiracBypass struct{ Value uint8 }

func (c DiracBypass) Encode() []byte        { return []byte{0x3f, c.Value} }
func (DiracBypass) Matches(r Response) bool { _, ok := r.(Ack); return ok }

// BulkLoad (0x12) is seen when restoring a configuration; its payload
// shape is speculative and preserved verbatim (§9).
type BulkLoad struct{ Payload []byte }

func (c BulkLoad) Encode() []byte         { return append([]byte{0x12}, c.Payload...) }
func (BulkLoad) Matches(r Response) bool  { _, ok := r.(Ack); return ok }

// BulkLoadFilterData (0x06) follows BulkLoad during configuration restore.
type BulkLoadFilterData struct{ Payload []byte }

func (c BulkLoadFilterData) Encode() []byte { return append([]byte{0x06}, c.Payload...) }
func (BulkLoadFilterData) Matches(r Response) bool {
	_, ok := r.(Ack)
	return ok
}

// Unk07 (0x07) is seen during configuration restore, answered by Unk02.
type Unk07 struct{ Payload uint8 }

func (c Unk07) Encode() []byte { return []byte{0x07, c.Payload} }
func (Unk07) Matches(r Response) bool {
	_, ok := r.(Unk02)
	return ok
}

// Unknown preserves an unrecognized opcode and its payload verbatim; it
// matches any response, since its caller has no specific expectation.
type Unknown struct {
	CmdID   uint8
	Payload []byte
}

func (c Unknown) Encode() []byte        { return append([]byte{c.CmdID}, c.Payload...) }
func (Unknown) Matches(r Response) bool { return true }

// DecodeCommand decodes a command payload (post-Unframe) into its typed
// Command. It is used by the mock device transport to interpret inbound
// traffic, and is the mirror image of every Command's Encode.
func DecodeCommand(payload []byte) (Command, error) {
	if len(payload) == 0 {
		return nil, errEmptyPayload
	}
	opcode := payload[0]
	rest := payload[1:]

	switch opcode {
	case 0x04:
		return WriteMemory{Addr: binary.BigEndian.Uint16(rest[0:2]), Data: append([]byte(nil), rest[2:]...)}, nil
	case 0x05:
		return ReadMemory{Addr: binary.BigEndian.Uint16(rest[0:2]), Size: rest[2]}, nil
	case 0x06:
		return BulkLoadFilterData{Payload: append([]byte(nil), rest...)}, nil
	case 0x07:
		return Unk07{Payload: rest[0]}, nil
	case 0x12:
		return BulkLoad{Payload: append([]byte(nil), rest...)}, nil
	case 0x13:
		body := rest[1:] // discard 0x80 marker
		length := uint8(2)
		if len(body) < 6 {
			length = 1
		}
		addr, n := ReadAddr(body, length)
		return Write{Addr: addr, Value: ValueFromBytes(body[n:])}, nil
	case 0x14:
		return ReadFloats{Addr: binary.BigEndian.Uint16(rest[0:2]), Len: rest[2]}, nil
	case 0x17:
		return SetMute{Value: rest[0] != 0}, nil
	case 0x19:
		length := uint8(1)
		if len(rest) > 3 {
			length = 2
		}
		value := rest[0] == 0x80
		addr, _ := ReadAddr(rest[1:], length)
		return WriteBiquadBypass{Addr: addr, Value: value}, nil
	case 0x25:
		return SetConfig{Config: rest[0], Reset: rest[1] != 0}, nil
	case 0x30:
		body := rest[1:] // discard 0x80 marker
		addr, n := ReadAddr(body, 2)
		body = body[n+2:] // discard the two zero bytes
		var data [5]float32
		for i := range data {
			off := i * 4
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
		}
		return WriteBiquad{Addr: addr, Data: data}, nil
	case 0x31:
		return ReadHardwareId{}, nil
	case 0x34:
		return SetSource{Source: rest[0]}, nil
	case 0x39:
		return FirLoadStart{Index: rest[0]}, nil
	case 0x3a:
		index := rest[0]
		body := rest[1:]
		data := make([]float32, 0, len(body)/4)
		for off := 0; off+4 <= len(body); off += 4 {
			data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(body[off:off+4])))
		}
		return FirLoadData{Index: index, Data: data}, nil
	case 0x3b:
		return FirLoadEnd{}, nil
	case 0x3f:
		return DiracBypass{Value: rest[0]}, nil
	case 0x42:
		return SetVolume{Value: GainFromByte(rest[0])}, nil
	default:
		return Unknown{CmdID: opcode, Payload: append([]byte(nil), rest...)}, nil
	}
}
