package protocol

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal: %v", err)
	}
	return b
}

func TestEncodeChecksum(t *testing.T) {
	payload := mustHex(t, "05ffda02")
	framed := Encode(payload)
	if len(framed) != len(payload)+2 {
		t.Fatalf("length = %d, want %d", len(framed), len(payload)+2)
	}
	if framed[0] != 5 {
		t.Fatalf("length byte = %d, want 5", framed[0])
	}
	if !bytes.Equal(framed[1:5], payload) {
		t.Fatalf("payload mismatch: %x", framed[1:5])
	}
	if framed[5] != 229 {
		t.Fatalf("checksum = %d, want 229", framed[5])
	}
}

func TestUnframe(t *testing.T) {
	raw := Frame(mustHex(t, "030102ffffff"))
	payload, err := raw.Unframe()
	if err != nil {
		t.Fatalf("Unframe: %v", err)
	}
	if !bytes.Equal(payload, []byte{0x1, 0x2}) {
		t.Fatalf("payload = %x, want 0102", payload)
	}
}

func TestDecodeClientAck(t *testing.T) {
	d := NewDecoder(RoleClient)
	frames, consumed := d.Decode([]byte{0x01})
	if consumed != 1 || len(frames) != 1 {
		t.Fatalf("consumed=%d frames=%d, want 1,1", consumed, len(frames))
	}
	payload, err := frames[0].Unframe()
	if err != nil || len(payload) != 0 {
		t.Fatalf("Unframe ack: payload=%x err=%v", payload, err)
	}
}

func TestDecodeServerFramed(t *testing.T) {
	payload := mustHex(t, "13800000001f9a99993e")
	framed := Encode(payload)

	packet := append([]byte(nil), framed...)
	packet = append(packet, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0)
	packet = append(packet, framed...)

	d := NewDecoder(RoleServer)
	frames, _ := d.Decode(packet)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	for i, f := range frames {
		got, err := f.Unframe()
		if err != nil {
			t.Fatalf("frame %d: Unframe: %v", i, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("frame %d: payload = %x, want %x", i, got, payload)
		}
	}
}

func TestDecodeFixedChunkQuirk(t *testing.T) {
	parts := []string{
		"0531010c0ada01bb23f90100bb253dbb9419bb13b6bb2394f682f628986b040024bb440db4f6061c6c040032bb43ed3cf606f632bb12aabb1407bb5409f62810",
		"0505ffa164da01bb23f90100bb253dbb9419bb13b6bb2394f682f628986b040024bb440db4f6061c6c040032bb43ed3cf606f632bb12aabb1407bb5409f62811",
	}
	var packet []byte
	for _, p := range parts {
		packet = append(packet, mustHex(t, p)...)
	}

	d := NewDecoder(RoleClient)
	frames, _ := d.Decode(packet)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if hex.EncodeToString(frames[0]) != "0531010c0a" {
		t.Fatalf("frame 0 = %x, want 0531010c0a", frames[0])
	}
	if hex.EncodeToString(frames[1]) != "0505ffa164" {
		t.Fatalf("frame 1 = %x, want 0505ffa164", frames[1])
	}
}

func TestDecodeFixedChunkPwrIce(t *testing.T) {
	parts := []string{
		"04310300ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffa3f40797f63302",
		"0505ffa133ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffa3f40797f6ab02",
	}
	var packet []byte
	for _, p := range parts {
		packet = append(packet, mustHex(t, p)...)
	}

	d := NewDecoder(RoleClient)
	frames, _ := d.Decode(packet)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if hex.EncodeToString(frames[0]) != "04310300" {
		t.Fatalf("frame 0 = %x", frames[0])
	}
	if hex.EncodeToString(frames[1]) != "0505ffa133" {
		t.Fatalf("frame 1 = %x", frames[1])
	}
}

func TestDecodeSkipsLeadingZeroPadding(t *testing.T) {
	d := NewDecoder(RoleClient)
	// A client-role frame carries no trailing checksum: [len=2, 0x31].
	packet := []byte{0, 0, 0, 0x02, 0x31}
	// Start outside fixed-chunk mode, as after a short buffer.
	d.chunkEscaped = true
	frames, consumed := d.Decode(packet)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if consumed != len(packet) {
		t.Fatalf("consumed %d, want %d", consumed, len(packet))
	}
}

func TestDecodeIncompleteFrameWaits(t *testing.T) {
	d := NewDecoder(RoleServer)
	d.chunkEscaped = true
	frames, consumed := d.Decode([]byte{0x05, 0x01, 0x02})
	if len(frames) != 0 || consumed != 0 {
		t.Fatalf("expected no frames yet, got %d frames consumed=%d", len(frames), consumed)
	}
}
