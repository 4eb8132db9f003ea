package protocol

import "testing"

func TestMemoryViewExtendWith(t *testing.T) {
	v := MemoryView{Base: 0x10, Data: []byte{1, 2, 3}}
	if err := v.ExtendWith(MemoryView{Base: 0x13, Data: []byte{4, 5}}); err != nil {
		t.Fatalf("ExtendWith: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5}
	if len(v.Data) != len(want) {
		t.Fatalf("Data = %v, want %v", v.Data, want)
	}
	for i, b := range want {
		if v.Data[i] != b {
			t.Fatalf("Data[%d] = %d, want %d", i, v.Data[i], b)
		}
	}
}

func TestMemoryViewExtendWithRejectsGap(t *testing.T) {
	v := MemoryView{Base: 0x10, Data: []byte{1, 2, 3}}
	if err := v.ExtendWith(MemoryView{Base: 0x20, Data: []byte{4}}); err == nil {
		t.Fatal("ExtendWith: want error for non-contiguous base, got nil")
	}
}

// TestMemoryViewExtendWithTruncatesAtAddressSpaceBoundary exercises the
// exact 16-bit address-space boundary: a view based two bytes short of
// 1<<16 can hold exactly one more byte before truncation, not zero.
func TestMemoryViewExtendWithTruncatesAtAddressSpaceBoundary(t *testing.T) {
	base := uint16(0xFFFE)
	v := MemoryView{Base: base, Data: []byte{0xAA}}
	if err := v.ExtendWith(MemoryView{Base: base + 1, Data: []byte{0xBB, 0xCC}}); err != nil {
		t.Fatalf("ExtendWith: %v", err)
	}
	want := []byte{0xAA, 0xBB}
	if len(v.Data) != len(want) {
		t.Fatalf("Data = %#v, want %#v (maxLen should be 1<<16 - base = 2, not 1)", v.Data, want)
	}
	for i, b := range want {
		if v.Data[i] != b {
			t.Fatalf("Data[%d] = %#x, want %#x", i, v.Data[i], b)
		}
	}
}
