package discovery

import (
	"net"
	"testing"
	"time"
)

func TestRegistryEmitsAddedOnce(t *testing.T) {
	r := NewRegistry()
	r.Register("usb:x", false)
	r.Register("usb:x", false)

	select {
	case ev := <-r.Added():
		if ev.URL != "usb:x" {
			t.Fatalf("Added url = %q, want usb:x", ev.URL)
		}
	default:
		t.Fatal("expected an Added event")
	}

	select {
	case ev := <-r.Added():
		t.Fatalf("unexpected second Added event: %+v", ev)
	default:
	}
}

func TestRegistrySweepEvictsStaleNonStatic(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.registerAt("usb:x", false, base)
	<-r.Added()

	r.registerAt("usb:y", false, base.Add(6*time.Minute))

	select {
	case ev := <-r.Timeout():
		if ev.URL != "usb:x" {
			t.Fatalf("Timeout url = %q, want usb:x", ev.URL)
		}
	default:
		t.Fatal("expected a Timeout event for usb:x")
	}

	entries := r.Entries()
	if len(entries) != 1 || entries[0].URL != "usb:y" {
		t.Fatalf("entries = %+v, want only usb:y", entries)
	}
}

func TestRegistryStaticNeverExpires(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.registerAt("tcp:static", true, base)
	<-r.Added()

	r.registerAt("usb:other", false, base.Add(time.Hour))

	select {
	case ev := <-r.Timeout():
		if ev.URL == "tcp:static" {
			t.Fatal("static entry should never emit Timeout")
		}
	default:
	}

	found := false
	for _, e := range r.Entries() {
		if e.URL == "tcp:static" {
			found = true
		}
	}
	if !found {
		t.Fatal("static entry should remain in the registry")
	}
}

func TestBeaconRoundTrip(t *testing.T) {
	b := Beacon{
		MAC:           [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		IP:            net.IPv4(192, 168, 1, 100),
		HardwareID:    222,
		FirmwareMajor: 1,
		FirmwareMinor: 2,
		DSPID:         51,
		Serial:        1234,
		Hostname:      "Living room TV",
	}
	encoded := b.Encode()
	got, ok := DecodeBeacon(encoded)
	if !ok {
		t.Fatal("DecodeBeacon rejected a valid encoded beacon")
	}
	if got.MAC != b.MAC || !got.IP.Equal(b.IP) || got.HardwareID != b.HardwareID ||
		got.FirmwareMajor != b.FirmwareMajor || got.FirmwareMinor != b.FirmwareMinor ||
		got.DSPID != b.DSPID || got.Serial != b.Serial || got.Hostname != b.Hostname {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, b)
	}
}

func TestDecodeBeaconRejectsShortPacket(t *testing.T) {
	if _, ok := DecodeBeacon(make([]byte, 20)); ok {
		t.Fatal("expected rejection of a packet shorter than the header")
	}
}

func TestDecodeBeaconRejectsHostnameOverrun(t *testing.T) {
	packet := make([]byte, beaconHeaderSize)
	packet[35] = 10 // claims 10 bytes of hostname that aren't present
	if _, ok := DecodeBeacon(packet); ok {
		t.Fatal("expected rejection of a packet whose hostname length overruns the buffer")
	}
}
