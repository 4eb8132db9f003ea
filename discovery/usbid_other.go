//go:build !linux

package discovery

// usbIDDatabase is a no-op stand-in on platforms without a usb.ids file
// at a well-known path; PollHID falls back to bare vendor/product ids.
type usbIDDatabase struct{}

func newUSBIDDatabase() *usbIDDatabase { return &usbIDDatabase{} }

func (db *usbIDDatabase) load() bool { return false }

func (db *usbIDDatabase) vendorName(vid uint16) string { return "" }

func (db *usbIDDatabase) productName(vid, pid uint16) string { return "" }
