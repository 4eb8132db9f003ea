package descriptor

import "testing"

func TestLookupKnownHardwareID(t *testing.T) {
	d := Lookup(10)
	if d.ProductName != "2x4HD" {
		t.Fatalf("Lookup(10).ProductName = %q, want 2x4HD", d.ProductName)
	}
	if len(d.Inputs) != 2 || len(d.Outputs) != 4 {
		t.Fatalf("Lookup(10) channel counts = %d/%d, want 2/4", len(d.Inputs), len(d.Outputs))
	}
}

func TestLookupUnknownHardwareIDFallsBackToGeneric(t *testing.T) {
	d := Lookup(250)
	if d.ProductName != "Generic" {
		t.Fatalf("Lookup(250).ProductName = %q, want Generic", d.ProductName)
	}
}

func TestDialectAddrWidth(t *testing.T) {
	d := Dialect{AddrWidth: 1, FloatEncoding: Float32LE}
	addr := d.Addr(0x20)
	if addr.Len != 1 || addr.Val != 0x20 {
		t.Fatalf("Addr = %+v, want {Val:0x20 Len:1}", addr)
	}
}

func TestDialectFixedPointValue(t *testing.T) {
	d := Dialect{AddrWidth: 2, FloatEncoding: FixedPoint}
	v := d.Value(0.5)
	if !v.IsFixed() {
		t.Fatalf("expected fixed-point dialect to produce a fixed-point Value, got %+v", v)
	}
}

func TestDecodeMasterStatus(t *testing.T) {
	ms := DecodeMasterStatus([]byte{0x00, 0x01, 79, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	if ms.Preset != 0 || ms.Source != 1 || ms.Muted {
		t.Fatalf("unexpected master status: %+v", ms)
	}
	if ms.Volume != -39.5 {
		t.Fatalf("Volume = %v, want -39.5", ms.Volume)
	}
}
