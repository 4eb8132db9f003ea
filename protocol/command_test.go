package protocol

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	cases := []Command{
		ReadHardwareId{},
		ReadFloats{Addr: 0x14, Len: 8},
		WriteMemory{Addr: 0xffda, Data: []byte{1, 2, 3, 4}},
		ReadMemory{Addr: 0xffda, Size: 4},
		SetConfig{Config: 2, Reset: true},
		SetSource{Source: 3},
		SetMute{Value: true},
		SetVolume{Value: Gain(-12)},
		WriteBiquad{Addr: NewAddr(0x2085, 2), Data: [5]float32{1.0, 0.2, 0.3, 0.4, 0.5}},
		WriteBiquadBypass{Addr: NewAddr(0x42, 1), Value: true},
		Write{Addr: NewAddr(0x13, 2), Value: IntValue(2)},
		FirLoadStart{Index: 1},
		FirLoadData{Index: 1, Data: []float32{0.1, 0.2}},
		FirLoadEnd{},
		DiracBypass{Value: 1},
		BulkLoad{Payload: []byte{0x04, 0x88, 0x97, 0x13, 0x0f, 0x00, 0x00}},
		BulkLoadFilterData{Payload: []byte{0x02, 0x05, 0x00, 0x01}},
		Unk07{Payload: 0x01},
		Unknown{CmdID: 0xee, Payload: []byte{1, 2}},
	}

	for _, c := range cases {
		encoded := c.Encode()
		decoded, err := DecodeCommand(encoded)
		if err != nil {
			t.Fatalf("%T: DecodeCommand: %v", c, err)
		}
		reencoded := decoded.Encode()
		if !bytes.Equal(encoded, reencoded) {
			t.Fatalf("%T: round trip mismatch: %x != %x", c, encoded, reencoded)
		}
	}
}

func TestDecodeCommandPreservesConcreteType(t *testing.T) {
	cases := []Command{
		ReadHardwareId{},
		SetVolume{Value: Gain(-12)},
		SetMute{Value: true},
		SetSource{Source: 3},
		DiracBypass{Value: 1},
	}

	for _, c := range cases {
		decoded, err := DecodeCommand(c.Encode())
		if err != nil {
			t.Fatalf("%T: DecodeCommand: %v", c, err)
		}
		if decoded != c {
			t.Fatalf("DecodeCommand(%T.Encode()) = %#v, want %#v", c, decoded, c)
		}
	}
}

func TestDecodeCommandSetVolumeWire(t *testing.T) {
	// 0x42 is SetVolume's real wire opcode; a byte stream encoding
	// -12dB must decode back to SetVolume, not fall through to Unknown.
	decoded, err := DecodeCommand([]byte{0x42, 24})
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	sv, ok := decoded.(SetVolume)
	if !ok {
		t.Fatalf("DecodeCommand(0x42, ...) = %T, want SetVolume", decoded)
	}
	if sv.Value != Gain(-12) {
		t.Fatalf("SetVolume.Value = %v, want -12", sv.Value)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	cases := []Response{
		Ack{},
		MemoryData{Base: 0xffda, Data: []byte{1, 2, 3, 4}},
		FloatData{Base: 0x14, Data: []float32{1, 2, 3}},
		HardwareId{Payload: []byte("allo")},
		FirLoadSize{Size: 100},
		ConfigChanged{},
		Unk02{},
		UnknownResponse{CmdID: 0xee, Payload: []byte{9}},
	}

	for _, r := range cases {
		encoded := r.Encode()
		decoded, err := DecodeResponse(encoded)
		if err != nil {
			t.Fatalf("%T: DecodeResponse: %v", r, err)
		}
		reencoded := decoded.Encode()
		if !bytes.Equal(encoded, reencoded) {
			t.Fatalf("%T: round trip mismatch: %x != %x", r, encoded, reencoded)
		}
	}
}

func TestBiquadWriteExactHex(t *testing.T) {
	cmd := WriteBiquad{
		Addr: NewAddr(0x2085, 2),
		Data: [5]float32{1.0, 0.2, 0.3, 0.4, 0.5},
	}

	got := cmd.Encode()
	wantHex := "308020850000" + "0000803f" + "cdcc4c3e" + "9a99993e" + "cdcccc3e" + "0000003f"
	if hex.EncodeToString(got) != wantHex {
		t.Fatalf("WriteBiquad.Encode() = %x, want %s", got, wantHex)
	}

	decoded, err := DecodeCommand(got)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	wb, ok := decoded.(WriteBiquad)
	if !ok {
		t.Fatalf("decoded = %T, want WriteBiquad", decoded)
	}
	if wb.Addr.Val != 0x2085 || wb.Data[0] != 1.0 {
		t.Fatalf("decoded mismatch: %+v", wb)
	}
}

func TestReadRegisterScenario(t *testing.T) {
	cmd := ReadMemory{Addr: 0xffda, Size: 4}
	if got, want := hex.EncodeToString(cmd.Encode()), "05ffda04"; got != want {
		t.Fatalf("encode = %s, want %s", got, want)
	}

	reply := mustHex(t, "05ffda01020304")
	resp, err := DecodeResponse(reply)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	md, ok := resp.(MemoryData)
	if !ok {
		t.Fatalf("response = %T, want MemoryData", resp)
	}
	view := md.View()
	got, ok := view.ReadU16(0xffda)
	if !ok || got != 0x0102 {
		t.Fatalf("ReadU16 = %x, ok=%v, want 0102", got, ok)
	}
	if !cmd.Matches(resp) {
		t.Fatalf("expected command to match response")
	}
}

func TestCommandMatching(t *testing.T) {
	readMem := ReadMemory{Addr: 0x10, Size: 4}
	if readMem.Matches(MemoryData{Base: 0x10, Data: []byte{1, 2, 3}}) {
		t.Fatalf("length mismatch should not match")
	}
	if !readMem.Matches(MemoryData{Base: 0x10, Data: []byte{1, 2, 3, 4}}) {
		t.Fatalf("exact match should match")
	}
	if readMem.Matches(Ack{}) {
		t.Fatalf("ReadMemory must not match Ack")
	}

	if !(Unknown{CmdID: 1}.Matches(Ack{})) {
		t.Fatalf("Unknown must match anything")
	}

	if !(Unk07{}.Matches(Unk02{})) {
		t.Fatalf("Unk07 must match Unk02")
	}
}

func TestValuePolymorphism(t *testing.T) {
	v := ValueFromBytes([]byte{0x02, 0x00, 0x00, 0x00})
	if !v.IsInt() || v.Int() != 2 {
		t.Fatalf("expected int value 2, got %+v", v)
	}

	v = ValueFromBytes([]byte{0x9a, 0x99, 0x99, 0x3e})
	if !v.IsFloat() {
		t.Fatalf("expected float value, got %+v", v)
	}

	v = RawValue([]byte{0x01})
	if v.IsInt() || v.IsFloat() {
		t.Fatalf("short payload must stay raw")
	}
}

func TestFixedPointRoundTrip(t *testing.T) {
	for x := -128.0; x <= 128.0; x += 7.5 {
		enc := EncodeFixedPoint(x)
		dec := DecodeFixedPoint(enc)
		if diff := dec - x; diff < -1e-5 || diff > 1e-5 {
			t.Fatalf("fixed point round trip: x=%v dec=%v diff=%v", x, dec, diff)
		}
	}
}

func TestGainByteRoundTrip(t *testing.T) {
	g := Gain(-39.5)
	b := g.Byte()
	if b != 79 {
		t.Fatalf("Gain(-39.5).Byte() = %d, want 79", b)
	}
	back := GainFromByte(b)
	if back != -39.5 {
		t.Fatalf("GainFromByte(79) = %v, want -39.5", back)
	}
}
