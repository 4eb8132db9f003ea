package protocol

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ardnew/dspctl/pkg"
)

var errEmptyPayload = errors.New("empty command payload")

// Response is a tagged protocol reply. A missing first byte decodes to
// Ack; unknown opcodes are preserved verbatim as Unknown (§4.2).
type Response interface {
	Encode() []byte
}

// Ack is the empty-frame acknowledgment most write commands expect.
type Ack struct{}

func (Ack) Encode() []byte { return nil }

// MemoryData answers ReadMemory with the bytes read starting at Base.
type MemoryData struct {
	Base uint16
	Data []byte
}

func (r MemoryData) Encode() []byte {
	b := make([]byte, 3, 3+len(r.Data))
	b[0] = 0x05
	binary.BigEndian.PutUint16(b[1:3], r.Base)
	return append(b, r.Data...)
}

// View converts r into a MemoryView for use by readback/concatenation
// logic (§3).
func (r MemoryData) View() MemoryView {
	return MemoryView{Base: r.Base, Data: append([]byte(nil), r.Data...)}
}

// FloatData answers ReadFloats with the floats read starting at Base.
type FloatData struct {
	Base uint16
	Data []float32
}

func (r FloatData) Encode() []byte {
	b := make([]byte, 3, 3+4*len(r.Data))
	b[0] = 0x14
	binary.BigEndian.PutUint16(b[1:3], r.Base)
	for _, f := range r.Data {
		fb := make([]byte, 4)
		binary.LittleEndian.PutUint32(fb, math.Float32bits(f))
		b = append(b, fb...)
	}
	return b
}

// HardwareId answers ReadHardwareId.
type HardwareId struct{ Payload []byte }

func (r HardwareId) Encode() []byte { return append([]byte{0x31}, r.Payload...) }

// Value returns the hardware id byte, the last byte of the payload, or an
// error if the payload was empty (§9 supplement: MalformedHardwareId).
func (r HardwareId) Value() (byte, error) {
	if len(r.Payload) == 0 {
		return 0, pkg.ErrMalformedHardwareID
	}
	return r.Payload[len(r.Payload)-1], nil
}

// FirLoadSize answers FirLoadStart with the maximum tap count accepted.
type FirLoadSize struct{ Size uint16 }

func (r FirLoadSize) Encode() []byte {
	b := []byte{0x39, 0, 0}
	binary.BigEndian.PutUint16(b[1:3], r.Size)
	return b
}

// ConfigChanged (0xab) answers SetConfig.
type ConfigChanged struct{}

func (ConfigChanged) Encode() []byte { return []byte{0xab} }

// Unk02 (0x02) answers Unk07, seen during configuration restore.
type Unk02 struct{}

func (Unk02) Encode() []byte { return []byte{0x02} }

// UnknownResponse preserves an unrecognized response opcode and its payload
// verbatim.
type UnknownResponse struct {
	CmdID   uint8
	Payload []byte
}

func (r UnknownResponse) Encode() []byte { return append([]byte{r.CmdID}, r.Payload...) }

// DecodeResponse decodes a response payload (post-Unframe) into its typed
// Response. An empty payload decodes to Ack.
func DecodeResponse(payload []byte) (Response, error) {
	if len(payload) == 0 {
		return Ack{}, nil
	}

	opcode := payload[0]
	rest := payload[1:]

	switch opcode {
	case 0x05:
		if len(rest) < 2 {
			return nil, pkg.ErrMalformedResponse
		}
		base := binary.BigEndian.Uint16(rest[0:2])
		return MemoryData{Base: base, Data: append([]byte(nil), rest[2:]...)}, nil
	case 0x14:
		if len(rest) < 2 {
			return nil, pkg.ErrMalformedResponse
		}
		base := binary.BigEndian.Uint16(rest[0:2])
		body := rest[2:]
		data := make([]float32, 0, len(body)/4)
		for off := 0; off+4 <= len(body); off += 4 {
			data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(body[off:off+4])))
		}
		return FloatData{Base: base, Data: data}, nil
	case 0x31:
		return HardwareId{Payload: append([]byte(nil), rest...)}, nil
	case 0x39:
		if len(rest) < 2 {
			return nil, pkg.ErrMalformedResponse
		}
		return FirLoadSize{Size: binary.BigEndian.Uint16(rest[0:2])}, nil
	case 0xab:
		return ConfigChanged{}, nil
	case 0x02:
		return Unk02{}, nil
	default:
		return UnknownResponse{CmdID: opcode, Payload: append([]byte(nil), rest...)}, nil
	}
}
