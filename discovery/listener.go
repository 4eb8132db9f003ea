package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ardnew/dspctl/pkg"
)

// advertiseInterval is how often a node re-emits its own beacon (§4.5).
const advertiseInterval = time.Second

// ListenBeacons runs a UDP listener on port 3999, registering a
// tcp://<ip>:<tcpPort> URL in registry for every valid beacon received,
// until ctx is done.
func ListenBeacons(ctx context.Context, registry *Registry, tcpPort int) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: beaconPort})
	if err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrIO, err)
	}
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	buf := make([]byte, 512)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: %v", pkg.ErrIO, err)
		}
		beacon, ok := DecodeBeacon(buf[:n])
		if !ok {
			continue
		}
		registry.Register(fmt.Sprintf("tcp://%s:%d", beacon.IP.String(), tcpPort), false)
	}
}

// Advertiser periodically broadcasts this node's own discovery beacon.
type Advertiser struct {
	Hostname      string
	MAC           [6]byte
	IP            net.IP
	HardwareID    uint8
	FirmwareMajor uint8
	FirmwareMinor uint8
	DSPID         uint8
	Serial        uint16
}

func (a Advertiser) beacon() Beacon {
	return Beacon{
		MAC:           a.MAC,
		IP:            a.IP,
		HardwareID:    a.HardwareID,
		FirmwareMajor: a.FirmwareMajor,
		FirmwareMinor: a.FirmwareMinor,
		DSPID:         a.DSPID,
		Serial:        a.Serial,
		Hostname:      a.Hostname,
	}
}

// Run broadcasts a's beacon every second until ctx is done.
func (a Advertiser) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return fmt.Errorf("%w: %v", pkg.ErrIO, err)
	}
	defer conn.Close()

	dst := &net.UDPAddr{IP: net.IPv4bcast, Port: beaconPort}
	packet := a.beacon().Encode()

	ticker := time.NewTicker(advertiseInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := conn.WriteToUDP(packet, dst); err != nil {
				pkg.LogWarn(pkg.ComponentDiscovery, "beacon broadcast failed", "error", err)
			}
		}
	}
}
