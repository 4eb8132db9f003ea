//go:build linux

package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUSBIDDatabaseParse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usb.ids")
	contents := "" +
		"# comment line, ignored\n" +
		"2752  MiniDSP Inc.\n" +
		"\t0011  2x4HD\n" +
		"0a12  Cambridge Silicon Radio, Ltd\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	db := newUSBIDDatabase()
	db.loaded = false
	usbIDPathsSave := usbIDPaths
	usbIDPaths = []string{path}
	defer func() { usbIDPaths = usbIDPathsSave }()

	if !db.load() {
		t.Fatal("expected load to find the fixture file")
	}
	if got := db.vendorName(0x2752); got != "MiniDSP Inc." {
		t.Fatalf("vendorName = %q", got)
	}
	if got := db.productName(0x2752, 0x0011); got != "2x4HD" {
		t.Fatalf("productName = %q", got)
	}
	if got := db.vendorName(0xffff); got != "" {
		t.Fatalf("vendorName for unknown vid = %q, want empty", got)
	}
}
