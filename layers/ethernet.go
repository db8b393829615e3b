package layers

import (
	"encoding/binary"
	"fmt"
	"net"
)

// EtherType Ethernet payload type tag.
type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeVLAN EtherType = 0x8100
	EtherTypeIPv6 EtherType = 0x86DD
	EtherTypeECTP EtherType = 0x9000

	// EtherTypeUnsupported catch-all for unknown type tags; encodes as 0.
	EtherTypeUnsupported EtherType = 0x0000
)

// DecodeEtherType decode a 2-byte type tag value. Unknown values decode
// to EtherTypeUnsupported, never an error.
func DecodeEtherType(val uint16) EtherType {
	switch EtherType(val) {
	case EtherTypeIPv4, EtherTypeARP, EtherTypeVLAN, EtherTypeIPv6, EtherTypeECTP:
		return EtherType(val)

	default:
		return EtherTypeUnsupported
	}
}

// Value get the wire value of an EtherType.
func (et EtherType) Value() uint16 {
	return uint16(et)
}

// Name get EtherType name.
func (et EtherType) Name() string {
	switch et {
	case EtherTypeIPv4:
		return "IPv4"

	case EtherTypeARP:
		return "ARP"

	case EtherTypeVLAN:
		return "VLAN"

	case EtherTypeIPv6:
		return "IPv6"

	case EtherTypeECTP:
		return "ECTP"

	default:
		return fmt.Sprintf("ethernet type 0x%04X", uint16(et))
	}
}

// MACAddress 6-byte Ethernet hardware address.
type MACAddress [6]byte

// BroadcastMAC the all-ones broadcast address.
var BroadcastMAC = MACAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// MACFromBytes copy the first 6 bytes of data into a MACAddress.
func MACFromBytes(data []byte) MACAddress {
	var addr MACAddress
	copy(addr[:], data)

	return addr
}

// Bytes get the address octets.
func (a MACAddress) Bytes() []byte {
	return a[:]
}

// IsBroadcast reports whether the address is the broadcast address.
func (a MACAddress) IsBroadcast() bool {
	return a == BroadcastMAC
}

// IsMulticast reports whether the group bit is set.
func (a MACAddress) IsMulticast() bool {
	return a[0]&0x01 == 1
}

// IsUnicast reports whether the address is neither broadcast nor multicast.
func (a MACAddress) IsUnicast() bool {
	return !a.IsBroadcast() && !a.IsMulticast()
}

// IsLocal reports whether the address is locally administered.
func (a MACAddress) IsLocal() bool {
	return a[0]&0x02 != 0
}

func (a MACAddress) String() string {
	return net.HardwareAddr(a[:]).String()
}

// Ethernet II header layout.
const (
	ethDstAddr   = 0
	ethSrcAddr   = 6
	ethEtherType = 12
	ethPayload   = 14
)

// EthernetHeaderLen length of an Ethernet II header.
const EthernetHeaderLen = ethPayload

// EthernetFrameLen total frame length for a payload of the given size.
func EthernetFrameLen(payloadLen int) int {
	return EthernetHeaderLen + payloadLen
}

// Ethernet is a read-only view of an Ethernet II frame. The view borrows
// the buffer; it never copies it.
type Ethernet []byte

// ParseEthernet wrap data in a checked read-only frame view.
func ParseEthernet(data []byte) (Ethernet, error) {
	f := Ethernet(data)
	if err := f.CheckLen(); err != nil {
		return nil, err
	}

	return f, nil
}

// CheckLen verify the buffer can hold an Ethernet header.
func (f Ethernet) CheckLen() error {
	if len(f) < EthernetHeaderLen {
		return fmt.Errorf("invalid (too small) Ethernet capture length (%d < %d): %w",
			len(f), EthernetHeaderLen, ErrTruncated)
	}

	return nil
}

// DstAddr get the destination hardware address.
func (f Ethernet) DstAddr() MACAddress {
	return MACFromBytes(f[ethDstAddr:ethSrcAddr])
}

// SrcAddr get the source hardware address.
func (f Ethernet) SrcAddr() MACAddress {
	return MACFromBytes(f[ethSrcAddr:ethEtherType])
}

// EtherType decode the payload type tag.
func (f Ethernet) EtherType() EtherType {
	return DecodeEtherType(binary.BigEndian.Uint16(f[ethEtherType:ethPayload]))
}

// Payload get the frame payload. Ethernet carries no length field; the
// buffer's own length is authoritative.
func (f Ethernet) Payload() []byte {
	return f[ethPayload:]
}

// Bytes get the underlying buffer.
func (f Ethernet) Bytes() []byte {
	return f
}

func (f Ethernet) String() string {
	desc := "Ethernet: "

	desc += fmt.Sprintf("srcMac=%s, ", f.SrcAddr())
	desc += fmt.Sprintf("dstMac=%s, ", f.DstAddr())
	desc += fmt.Sprintf("ethernetType=%s", f.EtherType().Name())

	return desc
}

// EthernetMut is a read-write view over the same layout. The embedded
// read-only view supplies the accessors.
type EthernetMut struct {
	Ethernet
}

// NewEthernetMut wrap data in an unchecked read-write frame view, for
// building a frame in a pre-allocated buffer.
func NewEthernetMut(data []byte) EthernetMut {
	return EthernetMut{Ethernet(data)}
}

// ParseEthernetMut wrap data in a checked read-write frame view.
func ParseEthernetMut(data []byte) (EthernetMut, error) {
	f := NewEthernetMut(data)
	if err := f.CheckLen(); err != nil {
		return EthernetMut{}, err
	}

	return f, nil
}

// SetDstAddr set the destination hardware address.
func (f EthernetMut) SetDstAddr(addr MACAddress) {
	copy(f.Ethernet[ethDstAddr:ethSrcAddr], addr[:])
}

// SetSrcAddr set the source hardware address.
func (f EthernetMut) SetSrcAddr(addr MACAddress) {
	copy(f.Ethernet[ethSrcAddr:ethEtherType], addr[:])
}

// SetEtherType encode the payload type tag.
func (f EthernetMut) SetEtherType(et EtherType) {
	binary.BigEndian.PutUint16(f.Ethernet[ethEtherType:ethPayload], et.Value())
}

// PayloadMut get the frame payload for writing.
func (f EthernetMut) PayloadMut() []byte {
	return f.Ethernet[ethPayload:]
}
