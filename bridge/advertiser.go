package bridge

import (
	"context"
	"net"

	"github.com/ardnew/dspctl/discovery"
)

// BeaconConfig supplies the fields needed to advertise this node's own
// discovery beacon; the bridge only advertises when one is provided
// (§4.9).
type BeaconConfig struct {
	Hostname string
	MAC      [6]byte
	IP       net.IP

	HardwareID    uint8
	FirmwareMajor uint8
	FirmwareMinor uint8
	DSPID         uint8
	Serial        uint16
}

// Advertise broadcasts cfg's beacon every second until ctx is done.
func Advertise(ctx context.Context, cfg BeaconConfig) error {
	adv := discovery.Advertiser{
		Hostname:      cfg.Hostname,
		MAC:           cfg.MAC,
		IP:            cfg.IP,
		HardwareID:    cfg.HardwareID,
		FirmwareMajor: cfg.FirmwareMajor,
		FirmwareMinor: cfg.FirmwareMinor,
		DSPID:         cfg.DSPID,
		Serial:        cfg.Serial,
	}
	return adv.Run(ctx)
}
