package transport

import (
	"context"
	"math"
	"sync"

	"github.com/ardnew/dspctl/descriptor"
	"github.com/ardnew/dspctl/pkg"
	"github.com/ardnew/dspctl/protocol"
)

// MockDevice emulates a DSP's EEPROM and DSP-settings memory, executing
// commands and updating its simulated state exactly as the real firmware
// would (§4.4 "Mock"). It is safe for concurrent use.
type MockDevice struct {
	HardwareID      uint8
	FirmwareVersion uint8

	mu      sync.Mutex
	eeprom  [1 << 16]byte
	dsp     [1 << 16]uint32 // settings/meters, stored as raw little-endian float bits
	maxTaps uint16
}

// NewMockDevice constructs an emulated device pre-populated with
// plausible defaults, mirroring the reference mock device's defaults.
func NewMockDevice() *MockDevice {
	d := &MockDevice{HardwareID: 10, FirmwareVersion: 100, maxTaps: 4096}
	for i := range d.eeprom {
		d.eeprom[i] = 0xFF
	}
	d.writeEEPROMu8(descriptor.Preset, 0)
	d.writeEEPROMu8(descriptor.Source, 0)
	d.writeEEPROMu8(descriptor.MasterVolume, 7)
	d.writeEEPROMu8(descriptor.Mute, 0)
	return d
}

func (d *MockDevice) writeEEPROMu8(addr uint16, v uint8) { d.eeprom[addr] = v }

// Execute runs cmd against the emulated state and returns the matching
// response, the mirror of the reference mock device's execute().
func (d *MockDevice) Execute(cmd protocol.Command) protocol.Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch c := cmd.(type) {
	case protocol.ReadHardwareId:
		return protocol.HardwareId{Payload: []byte{0x01, d.FirmwareVersion, d.HardwareID}}

	case protocol.ReadMemory:
		addr := int(c.Addr)
		size := int(c.Size)
		data := make([]byte, size)
		for i := 0; i < size; i++ {
			if addr+i < len(d.eeprom) {
				data[i] = d.eeprom[addr+i]
			} else {
				data[i] = 0xFF
			}
		}
		return protocol.MemoryData{Base: c.Addr, Data: data}

	case protocol.WriteMemory:
		addr := int(c.Addr)
		for i, b := range c.Data {
			if addr+i < len(d.eeprom) {
				d.eeprom[addr+i] = b
			}
		}
		return protocol.Ack{}

	case protocol.ReadFloats:
		addr := int(c.Addr)
		out := make([]float32, c.Len)
		for i := range out {
			out[i] = math.Float32frombits(d.dsp[addr+i])
		}
		return protocol.FloatData{Base: c.Addr, Data: out}

	case protocol.Write:
		raw := c.Value.Bytes()
		d.dsp[c.Addr.Val] = uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
		return protocol.Ack{}

	case protocol.SetConfig:
		d.writeEEPROMu8(descriptor.Preset, c.Config)
		return protocol.ConfigChanged{}

	case protocol.SetSource:
		d.writeEEPROMu8(descriptor.Source, c.Source)
		return protocol.Ack{}

	case protocol.SetMute:
		v := uint8(0)
		if c.Value {
			v = 1
		}
		d.writeEEPROMu8(descriptor.Mute, v)
		return protocol.Ack{}

	case protocol.SetVolume:
		d.writeEEPROMu8(descriptor.MasterVolume, c.Value.Byte())
		return protocol.Ack{}

	case protocol.FirLoadStart:
		return protocol.FirLoadSize{Size: d.maxTaps}

	case protocol.Unk07:
		return protocol.Unk02{}

	default:
		return protocol.Ack{}
	}
}

// mockTransport wires a MockDevice up as a Transport: writes are decoded
// as commands and executed immediately; the resulting response is framed
// and queued for the next ReadFrame, emulating a zero-latency device.
type mockTransport struct {
	device *MockDevice

	mu      sync.Mutex
	closed  bool
	frames  chan []byte
}

// NewMock constructs a Transport backed by a fresh MockDevice, used by
// both tests and the mock:// URL scheme.
func NewMock() Transport {
	return NewMockWithDevice(NewMockDevice())
}

// NewMockWithDevice constructs a Transport backed by an existing
// MockDevice, letting a test pre-seed its state before traffic begins.
func NewMockWithDevice(d *MockDevice) Transport {
	return &mockTransport{device: d, frames: make(chan []byte, 16)}
}

func (m *mockTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case f := <-m.frames:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *mockTransport) WriteFrame(ctx context.Context, frame []byte) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return pkg.ErrTransportClosed
	}

	payload, err := protocol.Frame(frame).Unframe()
	if err != nil {
		return err
	}
	cmd, err := protocol.DecodeCommand(payload)
	if err != nil {
		pkg.LogWarn(pkg.ComponentTransport, "mock device: unparsable command", "error", err)
		return nil
	}
	resp := m.device.Execute(cmd)
	reply := protocol.Encode(resp.Encode())

	select {
	case m.frames <- reply:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
