package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/ardnew/dspctl/pkg"
)

// VendorID is the USB vendor id shared by every supported device, and
// DefaultProductID its most common product id, both taken from the
// reference transport's hardcoded defaults.
const (
	VendorID         gousb.ID = 0x2752
	DefaultProductID gousb.ID = 0x0011
)

// defaultPollInterval is how often PollHID re-scans when interval <= 0
// (§4.5).
const defaultPollInterval = 5 * time.Second

// PollHID scans for attached devices matching VendorID every interval
// (defaultPollInterval if non-positive), registering a
// usb://?vid=..&pid=.. URL for each one found, until ctx is done.
func PollHID(ctx context.Context, registry *Registry, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	names := newUSBIDDatabase()
	names.load()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
			return desc.Vendor == VendorID
		})
		if err != nil {
			pkg.LogWarn(pkg.ComponentDiscovery, "hid enumeration failed", "error", err)
		}
		for _, d := range devices {
			vid, pid := uint16(d.Desc.Vendor), uint16(d.Desc.Product)
			url := fmt.Sprintf("usb://?vid=%#04x&pid=%#04x", vid, pid)
			registry.Register(url, false)
			if product := names.productName(vid, pid); product != "" {
				pkg.LogInfo(pkg.ComponentDiscovery, "hid device found", "url", url, "vendor", names.vendorName(vid), "product", product)
			}
			_ = d.Close()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
