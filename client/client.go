// Package client is a thin façade bound to one device descriptor,
// translating typed operations into multiplexer roundtrips (§4.7).
package client

import (
	"context"
	"encoding/binary"
	"sort"

	"github.com/ardnew/dspctl/descriptor"
	"github.com/ardnew/dspctl/multiplexer"
	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/protocol"
)

// maxMemoryChunk is the largest ReadMemory the client issues in one frame
// (§4.7), two bytes under the 61-byte protocol limit of §4.2 (HID MTU
// minus len/opcode/checksum).
const maxMemoryChunk = 59

// maxFloatsPerWindow is the largest ReadFloats span accepted in one frame.
const maxFloatsPerWindow = 14

// firChunkSize is how many coefficients FirControl.Load sends per
// FirLoadData frame (§4.7).
const firChunkSize = 14

// Client is bound to a single device's descriptor and multiplexer.
type Client struct {
	device descriptor.Device
	mux    *multiplexer.Multiplexer
}

// New binds a multiplexer to a device descriptor.
func New(device descriptor.Device, mux *multiplexer.Multiplexer) *Client {
	return &Client{device: device, mux: mux}
}

// Device returns the descriptor this client is bound to.
func (c *Client) Device() descriptor.Device { return c.device }

// DeviceInfo summarizes a device's identity.
type DeviceInfo struct {
	HardwareID byte
	DSPVersion byte
	Serial     uint32
}

// GetDeviceInfo issues ReadHardwareId and two EEPROM reads to assemble
// (hw_id, dsp_version, serial).
func (c *Client) GetDeviceInfo(ctx context.Context) (DeviceInfo, error) {
	resp, err := c.mux.Roundtrip(ctx, protocol.ReadHardwareId{})
	if err != nil {
		return DeviceInfo{}, err
	}
	hwid, ok := resp.(protocol.HardwareId)
	if !ok {
		return DeviceInfo{}, pkg.ErrUnexpectedResponse
	}
	id, err := hwid.Value()
	if err != nil {
		return DeviceInfo{}, err
	}

	fwView, err := c.ReadMemory(ctx, descriptor.FirmwareVersion, 1)
	if err != nil {
		return DeviceInfo{}, err
	}
	fwVersion, _ := fwView.ReadU8(descriptor.FirmwareVersion)

	serView, err := c.ReadMemory(ctx, descriptor.Serial, 4)
	if err != nil {
		return DeviceInfo{}, err
	}
	serBytes, _ := serView.ReadAt(descriptor.Serial, 4)

	return DeviceInfo{
		HardwareID: id,
		DSPVersion: fwVersion,
		Serial:     binary.BigEndian.Uint32(serBytes) + descriptor.SerialOffset,
	}, nil
}

// ReadMemory reads size bytes starting at base, splitting into chunks of
// at most 59 bytes and concatenating the results in order. A failure on
// any chunk aborts the whole read.
func (c *Client) ReadMemory(ctx context.Context, base uint16, size uint16) (protocol.MemoryView, error) {
	var view protocol.MemoryView
	addr := base
	remaining := size
	for remaining > 0 {
		chunk := remaining
		if chunk > maxMemoryChunk {
			chunk = maxMemoryChunk
		}
		resp, err := c.mux.Roundtrip(ctx, protocol.ReadMemory{Addr: addr, Size: uint8(chunk)})
		if err != nil {
			return protocol.MemoryView{}, err
		}
		md, ok := resp.(protocol.MemoryData)
		if !ok {
			return protocol.MemoryView{}, pkg.ErrUnexpectedResponse
		}
		if len(view.Data) == 0 {
			view = md.View()
		} else if err := view.ExtendWith(md.View()); err != nil {
			return protocol.MemoryView{}, err
		}
		addr += uint16(chunk)
		remaining -= chunk
	}
	return view, nil
}

// ReadFloatsMulti reads an arbitrary address set, producing the fewest
// ReadFloats requests covering them by greedy windowing (§4.7): sort
// addresses, open a window at the first, extend while addr-window.start
// < 14, emit, repeat.
func (c *Client) ReadFloatsMulti(ctx context.Context, addresses []uint16) (map[uint16]float32, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	sorted := append([]uint16(nil), addresses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := make(map[uint16]float32, len(addresses))
	for i := 0; i < len(sorted); {
		start := sorted[i]
		j := i + 1
		for j < len(sorted) && sorted[j]-start < maxFloatsPerWindow {
			j++
		}
		length := sorted[j-1] - start + 1

		resp, err := c.mux.Roundtrip(ctx, protocol.ReadFloats{Addr: start, Len: uint8(length)})
		if err != nil {
			return nil, err
		}
		fd, ok := resp.(protocol.FloatData)
		if !ok {
			return nil, pkg.ErrUnexpectedResponse
		}
		view := protocol.FloatView{Base: fd.Base, Data: fd.Data}
		for ; i < j; i++ {
			out[sorted[i]] = view.Get(sorted[i])
		}
	}
	return out, nil
}

// WriteDSP encodes a Write command for addr, using the device's dialect
// for both the address width and the sample encoding.
func (c *Client) WriteDSP(ctx context.Context, addr uint16, value float32) error {
	cmd := protocol.Write{Addr: c.device.Dialect.Addr(addr), Value: c.device.Dialect.Value(value)}
	_, err := c.mux.Roundtrip(ctx, cmd)
	return err
}

// MasterStatus issues the single 9-byte master-status read.
func (c *Client) MasterStatus(ctx context.Context) (descriptor.MasterStatus, error) {
	view, err := c.ReadMemory(ctx, descriptor.MasterStatusBase, uint16(descriptor.MasterStatusSize))
	if err != nil {
		return descriptor.MasterStatus{}, err
	}
	return descriptor.DecodeMasterStatus(view.Data), nil
}

// SetMute toggles the device's master mute.
func (c *Client) SetMute(ctx context.Context, muted bool) error {
	_, err := c.mux.Roundtrip(ctx, protocol.SetMute{Value: muted})
	return err
}

// SetVolume sets the device's master volume.
func (c *Client) SetVolume(ctx context.Context, db protocol.Gain) error {
	_, err := c.mux.Roundtrip(ctx, protocol.SetVolume{Value: db})
	return err
}

// SetSource selects the active input source by id.
func (c *Client) SetSource(ctx context.Context, source uint8) error {
	_, err := c.mux.Roundtrip(ctx, protocol.SetSource{Source: source})
	return err
}

// SetConfig selects a device preset.
func (c *Client) SetConfig(ctx context.Context, preset uint8, reset bool) error {
	_, err := c.mux.Roundtrip(ctx, protocol.SetConfig{Config: preset, Reset: reset})
	return err
}

// Input returns a projection onto the i'th input channel's controls.
func (c *Client) Input(i int) InputControl { return InputControl{c: c, idx: i} }

// Output returns a projection onto the i'th output channel's controls.
func (c *Client) Output(i int) OutputControl { return OutputControl{c: c, idx: i} }
