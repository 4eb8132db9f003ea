package discovery

import (
	"encoding/binary"
	"net"
)

// Beacon field offsets and sizes (§4.5, §12): a 36-byte header plus a
// length-prefixed hostname, compatible with the vendor app's own
// discovery protocol.
const (
	beaconPort       = 3999
	beaconHeaderSize = 36
)

var beaconMagic = [4]byte{0x80, 0x00, 0x05, 0xA0}

// Beacon is a single-packet UDP discovery advertisement.
type Beacon struct {
	MAC           [6]byte
	IP            net.IP
	HardwareID    uint8
	FirmwareMajor uint8
	FirmwareMinor uint8
	DSPID         uint8
	Serial        uint16
	Hostname      string
}

// DecodeBeacon parses a wire beacon packet. Packets shorter than the
// 36-byte header, or whose declared hostname length overruns the
// buffer, are rejected rather than erroring (§4.5): the caller simply
// drops them.
func DecodeBeacon(b []byte) (Beacon, bool) {
	if len(b) < beaconHeaderSize {
		return Beacon{}, false
	}
	hostnameLen := int(b[35])
	if len(b) < beaconHeaderSize+hostnameLen {
		return Beacon{}, false
	}

	var p Beacon
	copy(p.MAC[:], b[6:12])
	p.IP = append(net.IP(nil), b[14:18]...)
	p.HardwareID = b[18]
	p.FirmwareMajor = b[19]
	p.FirmwareMinor = b[20]
	p.DSPID = b[21]
	p.Serial = binary.BigEndian.Uint16(b[22:24])
	p.Hostname = string(b[36 : 36+hostnameLen])
	return p, true
}

// Encode renders p to its wire form.
func (p Beacon) Encode() []byte {
	buf := make([]byte, beaconHeaderSize+len(p.Hostname))
	copy(buf[0:4], beaconMagic[:])
	copy(buf[6:12], p.MAC[:])
	if ip4 := p.IP.To4(); ip4 != nil {
		copy(buf[14:18], ip4)
	}
	buf[18] = p.HardwareID
	buf[19] = p.FirmwareMajor
	buf[20] = p.FirmwareMinor
	buf[21] = p.DSPID
	binary.BigEndian.PutUint16(buf[22:24], p.Serial)
	buf[35] = byte(len(p.Hostname))
	copy(buf[36:], p.Hostname)
	return buf
}
