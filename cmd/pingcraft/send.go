package main

import (
	"fmt"
	"net"
	"time"

	"github.com/NotYetOS/net/layers"
	"github.com/NotYetOS/net/sniffer"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var waitFor time.Duration

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build an echo request frame and inject it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		if err := setupLogger(cfg); err != nil {
			return err
		}

		return send(cfg)
	},
}

func init() {
	sendCmd.Flags().DurationVarP(&waitFor, "wait", "w", 0, "How long to wait for the echo reply (0: don't wait)")
	rootCmd.AddCommand(sendCmd)
}

func send(cfg *Config) error {
	frame, err := buildEchoFrame(cfg)
	if err != nil {
		return err
	}

	snf, err := sniffer.Open(cfg.Device)
	if err != nil {
		return err
	}
	defer snf.Close()

	if waitFor > 0 {
		if err := snf.SetFilter("icmp"); err != nil {
			return err
		}
	}

	if err := snf.SendFrame(frame); err != nil {
		return err
	}
	log.Infof("Sent %d bytes echo request via %s.", len(frame), cfg.Device)

	if waitFor > 0 {
		return awaitReply(snf, cfg)
	}

	return nil
}

// buildEchoFrame assembles the Ethernet/IPv4/ICMPv4 echo request in a
// single buffer, innermost layer composed in place through the outer
// layers' payload views.
func buildEchoFrame(cfg *Config) ([]byte, error) {
	srcMAC, dstMAC, err := resolveMACs(cfg)
	if err != nil {
		return nil, err
	}
	srcIP, err := parseIPv4(cfg.SrcIP)
	if err != nil {
		return nil, err
	}
	dstIP, err := parseIPv4(cfg.DstIP)
	if err != nil {
		return nil, err
	}

	payload := []byte(cfg.Payload)
	ipLen := layers.IPv4HeaderLen + layers.ICMPv4HeaderLen + len(payload)
	if ipLen > 0xFFFF {
		return nil, fmt.Errorf("payload of %d bytes does not fit the IPv4 total length field", len(payload))
	}
	buf := make([]byte, layers.EthernetFrameLen(ipLen))

	frame := layers.NewEthernetMut(buf)
	frame.SetDstAddr(dstMAC)
	frame.SetSrcAddr(srcMAC)
	frame.SetEtherType(layers.EtherTypeIPv4)

	ip := layers.NewIPv4Mut(frame.PayloadMut())
	ip.SetVersion(4)
	ip.SetHeaderLen(layers.IPv4HeaderLen)
	ip.SetDSCP(0)
	ip.SetECN(0)
	ip.SetTotalLen(uint16(ipLen))
	ip.SetIdent(0)
	ip.ClearFlags()
	ip.SetDontFrag(true)
	ip.SetMoreFrags(false)
	ip.SetFragOffset(0)
	ip.SetTTL(cfg.TTL)
	ip.SetProtocol(layers.IPv4ProtocolICMP)
	ip.SetSrcAddr(srcIP)
	ip.SetDstAddr(dstIP)
	ip.FillChecksum()

	icmp := layers.NewICMPv4Mut(ip.PayloadMut())
	icmp.SetMsgType(layers.ICMPv4EchoRequest)
	icmp.SetMsgCode(0)
	icmp.SetEchoIdent(cfg.Ident)
	icmp.SetEchoSeqNo(cfg.Seq)
	copy(icmp.DataMut(), payload)
	icmp.FillChecksum()

	return buf, nil
}

// awaitReply captures frames until the matching echo reply shows up or
// the deadline passes. Layer nesting is explicit: each view is composed
// by hand from the previous layer's payload.
func awaitReply(snf sniffer.Sniffer, cfg *Config) error {
	deadline := time.Now().Add(waitFor)

	var pkt sniffer.Packet
	for time.Now().Before(deadline) {
		if err := snf.NextPacket(&pkt); err != nil {
			return err
		}
		if pkt.Data == nil {
			continue
		}

		frame, err := layers.ParseEthernet(pkt.Data)
		if err != nil || frame.EtherType() != layers.EtherTypeIPv4 {
			continue
		}
		ip, err := layers.ParseIPv4(frame.Payload())
		if err != nil || ip.Protocol() != layers.IPv4ProtocolICMP {
			continue
		}
		icmp, err := layers.ParseICMPv4(ip.Payload())
		if err != nil {
			continue
		}
		if icmp.MsgType() != layers.ICMPv4EchoReply || icmp.EchoIdent() != cfg.Ident {
			continue
		}

		if !icmp.VerifyChecksum() {
			log.Warnf("Echo reply with bad checksum from %s.", ip.SrcAddr())
			continue
		}
		log.Infof("Echo reply from %s: ident=0x%04X seq=0x%04X.",
			ip.SrcAddr(), icmp.EchoIdent(), icmp.EchoSeqNo())

		return nil
	}

	return fmt.Errorf("no echo reply within %s", waitFor)
}

func resolveMACs(cfg *Config) (src, dst layers.MACAddress, err error) {
	hw, err := net.ParseMAC(cfg.DstMAC)
	if err != nil {
		return src, dst, fmt.Errorf("bad dst_mac: %w", err)
	}
	dst = layers.MACFromBytes(hw)

	if cfg.SrcMAC != "" {
		hw, err = net.ParseMAC(cfg.SrcMAC)
		if err != nil {
			return src, dst, fmt.Errorf("bad src_mac: %w", err)
		}
	} else {
		intf, ierr := net.InterfaceByName(cfg.Device)
		if ierr != nil {
			return src, dst, ierr
		}
		hw = intf.HardwareAddr
	}
	src = layers.MACFromBytes(hw)

	return src, dst, nil
}

func parseIPv4(s string) (layers.Address, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return layers.Address{}, fmt.Errorf("bad IPv4 address: %q", s)
	}

	return layers.AddressFromBytes(ip.To4()), nil
}
