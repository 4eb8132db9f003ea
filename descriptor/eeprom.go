package descriptor

import "github.com/ardnew/dspctl/protocol"

// EEPROM cell addresses shared by every device kind (§3 "EEPROM cells").
// Ported verbatim from the reference protocol's address table.
const (
	FirmwareVersion uint16 = 0xFFA1
	Timestamp       uint16 = 0xFFC8
	Preset          uint16 = 0xFFD8
	Source          uint16 = 0xFFD9
	SourceAsync     uint16 = 0xFFA9
	MasterVolume    uint16 = 0xFFDA
	Mute            uint16 = 0xFFDB
	DiracBypass     uint16 = 0xFFE0
	ChannelMode     uint16 = 0xFFE5
	Serial          uint16 = 0xFFFC
	SerialShort     uint16 = 0xFFFE

	// SerialOffset is added to the raw SERIAL/SERIAL_SHORT cell value to
	// obtain the printed serial number.
	SerialOffset uint32 = 900000

	// MasterStatusBase is the base address a single 9-byte read drains to
	// obtain preset/source/volume/mute in one round trip (§3). The
	// remaining 5 bytes of the read are unused padding.
	MasterStatusBase uint16 = Preset
	// MasterStatusSize is the read length that covers preset through mute.
	MasterStatusSize uint8 = 9
)

// MasterStatus is the decoded result of a single 9-byte read starting at
// MasterStatusBase.
type MasterStatus struct {
	Preset uint8
	Source uint8
	Volume protocol.Gain
	Muted  bool
}

// DecodeMasterStatus parses the bytes returned by reading MasterStatusBase
// for MasterStatusSize bytes.
func DecodeMasterStatus(b []byte) MasterStatus {
	var ms MasterStatus
	if len(b) < 4 {
		return ms
	}
	ms.Preset = b[0]
	ms.Source = b[1]
	ms.Volume = protocol.GainFromByte(b[2])
	ms.Muted = b[3] == 1
	return ms
}
