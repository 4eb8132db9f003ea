package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/gousb"

	"github.com/ardnew/dspctl/pkg"
)

// HID report layout (§4.4): 1 report id byte followed by a 64-byte
// payload.
const (
	hidReportSize  = 65
	hidPayloadSize = 64
	hidReportID    = 0x00
	hidPadByte     = 0xFF

	hidPollInterval  = 500 * time.Millisecond
	hidWriteRetries  = 10
	hidWriteBackoff  = 250 * time.Millisecond
)

// HidReadWriter is the minimal surface the HID transport needs from a USB
// HID device. gousb's *gousb.InEndpoint/*gousb.OutEndpoint satisfy it via
// the small gousbHID adapter below.
type HidReadWriter interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// hidTransport implements Transport over a 65-byte HID report channel.
type hidTransport struct {
	dev HidReadWriter

	mu     sync.Mutex
	closed bool

	frames chan []byte
	readErr chan error
	cancel  context.CancelFunc
}

// OpenHID opens the real USB-HID device addressed by u's vid/pid pair
// (usb://?vid=...&pid=...). A URL without both vid and pid, such as a bus
// path (usb://<bus>/<path>), is rejected with pkg.ErrInvalidURL.
func OpenHID(ctx context.Context, u *url.URL) (Transport, error) {
	vidStr := u.Query().Get("vid")
	pidStr := u.Query().Get("pid")
	if vidStr == "" || pidStr == "" {
		return nil, fmt.Errorf("%w: usb URL requires vid and pid query parameters", pkg.ErrInvalidURL)
	}
	vid, err := strconv.ParseUint(vidStr, 0, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid vid: %v", pkg.ErrInvalidURL, err)
	}
	pid, err := strconv.ParseUint(pidStr, 0, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pid: %v", pkg.ErrInvalidURL, err)
	}

	usbCtx := gousb.NewContext()
	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		usbCtx.Close()
		return nil, fmt.Errorf("%w: %v", pkg.ErrNoSuchDevice, err)
	}
	if dev == nil {
		usbCtx.Close()
		return nil, pkg.ErrNoSuchDevice
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: claiming config: %v", pkg.ErrNoSuchDevice, err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: claiming interface: %v", pkg.ErrNoSuchDevice, err)
	}
	out, err := intf.OutEndpoint(1)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: %v", pkg.ErrNoSuchDevice, err)
	}
	in, err := intf.InEndpoint(1)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: %v", pkg.ErrNoSuchDevice, err)
	}

	rw := &gousbHID{out: out, in: in, intf: intf, cfg: cfg, dev: dev, usbCtx: usbCtx}
	return newHIDTransport(ctx, rw), nil
}

// gousbHID adapts a claimed gousb interface's pair of endpoints to
// HidReadWriter, owning the chain of resources that must be released
// together on Close.
type gousbHID struct {
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint
	intf *gousb.Interface
	cfg  *gousb.Config
	dev  *gousb.Device

	usbCtx *gousb.Context
}

func (g *gousbHID) Read(p []byte) (int, error)  { return g.in.Read(p) }
func (g *gousbHID) Write(p []byte) (int, error) { return g.out.Write(p) }
func (g *gousbHID) Close() error {
	g.intf.Close()
	g.cfg.Close()
	g.dev.Close()
	return g.usbCtx.Close()
}

// newHIDTransport wraps dev with the poll-and-unpad loop.
func newHIDTransport(ctx context.Context, dev HidReadWriter) *hidTransport {
	readCtx, cancel := context.WithCancel(ctx)
	t := &hidTransport{
		dev:     dev,
		frames:  make(chan []byte, 16),
		readErr: make(chan error, 1),
		cancel:  cancel,
	}
	go t.pollLoop(readCtx)
	return t
}

func (t *hidTransport) pollLoop(ctx context.Context) {
	report := make([]byte, hidReportSize)
	ticker := time.NewTicker(hidPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := t.dev.Read(report)
		if err != nil {
			select {
			case t.readErr <- err:
			default:
			}
			pkg.LogDebug(pkg.ComponentTransport, "hid read error", "error", err)
			continue
		}
		if n < 1 {
			continue
		}
		payload := bytes.TrimRight(report[1:n], string([]byte{hidPadByte}))
		if len(payload) == 0 {
			continue
		}
		frame := append([]byte(nil), payload...)
		select {
		case t.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (t *hidTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, pkg.ErrTransportClosed
	}

	select {
	case f := <-t.frames:
		return f, nil
	case err := <-t.readErr:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *hidTransport) WriteFrame(ctx context.Context, frame []byte) error {
	if len(frame) > hidPayloadSize {
		return fmt.Errorf("%w: frame of %d bytes exceeds HID payload size", pkg.ErrShortFrame, len(frame))
	}

	report := make([]byte, hidReportSize)
	report[0] = hidReportID
	copy(report[1:], frame)
	for i := 1 + len(frame); i < hidReportSize; i++ {
		report[i] = hidPadByte
	}

	var lastErr error
	for attempt := 0; attempt < hidWriteRetries; attempt++ {
		if _, err := t.dev.Write(report); err != nil {
			lastErr = err
			select {
			case <-time.After(hidWriteBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", pkg.ErrIO, lastErr)
}

func (t *hidTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.cancel()
	return t.dev.Close()
}
