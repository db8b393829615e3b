// Package sniffer attaches to a network device for live frame capture
// and raw frame injection. It is a test/demonstration collaborator of
// the header layers, not part of the core: its contract is an opaque
// byte slice in, success or failure out.
package sniffer

import (
	"fmt"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	log "github.com/sirupsen/logrus"
)

const (
	maxCapLen  = 65535
	capTimeout = time.Second
)

// Packet one captured frame.
type Packet struct {
	Time   time.Time
	CapLen uint
	PktLen uint
	Data   []byte
}

// Stats network packets capture statistic info.
type Stats struct {
	PktsRecvd     uint
	PktsDropped   uint
	PktsIfDropped uint
}

// Sniffer raw Ethernet device handle.
type Sniffer interface {
	SetFilter(filter string) error
	NextPacket(pkt *Packet) error
	SendFrame(data []byte) error
	Stats() (*Stats, error)
	Close() error
}

type handle struct {
	dev  string
	pcap *pcap.Handle
}

// Open create a capture/injection handle on a network device. Devices
// with a non-Ethernet link type are rejected, the header layers target
// Ethernet framing.
func Open(netDev string) (Sniffer, error) {
	h, err := pcap.OpenLive(netDev, maxCapLen, true, capTimeout)
	if err != nil {
		return nil, err
	}

	if lt := h.LinkType(); lt != layers.LinkTypeEthernet {
		h.Close()
		return nil, fmt.Errorf("device %s link type %s is not Ethernet", netDev, lt)
	}

	return &handle{dev: netDev, pcap: h}, nil
}

// SetFilter set BPF filter.
func (h *handle) SetFilter(filter string) error {
	return h.pcap.SetBPFFilter(filter)
}

// NextPacket get next network packet. On capture timeout pkt.Data is
// left nil and no error is returned.
func (h *handle) NextPacket(pkt *Packet) error {
	data, ci, err := h.pcap.ReadPacketData()
	if err == pcap.NextErrorTimeoutExpired {
		pkt.Data = nil
		return nil
	}
	if err != nil {
		return err
	}

	pkt.Time = ci.Timestamp
	pkt.CapLen = uint(ci.CaptureLength)
	pkt.PktLen = uint(ci.Length)
	pkt.Data = data

	return nil
}

// SendFrame inject a finished frame out the device.
func (h *handle) SendFrame(data []byte) error {
	log.Debugf("Send frame of %d bytes via %s.", len(data), h.dev)

	return h.pcap.WritePacketData(data)
}

// Stats get network packets capture statistic info.
func (h *handle) Stats() (*Stats, error) {
	cstats, err := h.pcap.Stats()
	if err != nil {
		return nil, err
	}

	stats := new(Stats)
	stats.PktsRecvd = uint(cstats.PacketsReceived)
	stats.PktsDropped = uint(cstats.PacketsDropped)
	stats.PktsIfDropped = uint(cstats.PacketsIfDropped)

	return stats, nil
}

// Close close the device handle.
func (h *handle) Close() error {
	h.pcap.Close()

	return nil
}
