package layers

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/NotYetOS/net/checksum"
)

// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |Version|  IHL  |Type of Service|          Total Length         |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |         Identification        |Flags|      Fragment Offset    |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |  Time to Live |    Protocol   |         Header Checksum       |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                       Source Address                          |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                    Destination Address                        |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

// Version IP version number carried by the first header nibble.
type Version uint8

const (
	Version4 Version = 4
	Version6 Version = 6
)

// DecodeIPVersion sniff the IP version of a raw packet. A version nibble
// other than 4 or 6 is an error, unlike unknown enum values elsewhere.
func DecodeIPVersion(data []byte) (Version, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("invalid (empty) IP capture: %w", ErrTruncated)
	}

	switch v := data[0] >> 4; v {
	case 4:
		return Version4, nil

	case 6:
		return Version6, nil

	default:
		return 0, fmt.Errorf("invalid IP version %d: %w", v, ErrUnrecognized)
	}
}

// IPv4Protocol IPv4 protocol type.
type IPv4Protocol uint8

const (
	IPv4ProtocolHopByHop  IPv4Protocol = 0x00
	IPv4ProtocolICMP      IPv4Protocol = 0x01
	IPv4ProtocolIGMP      IPv4Protocol = 0x02
	IPv4ProtocolTCP       IPv4Protocol = 0x06
	IPv4ProtocolUDP       IPv4Protocol = 0x11
	IPv4ProtocolIPv6Route IPv4Protocol = 0x2B
	IPv4ProtocolIPv6Frag  IPv4Protocol = 0x2C
	IPv4ProtocolICMPv6    IPv4Protocol = 0x3A
	IPv4ProtocolIPv6NoNxt IPv4Protocol = 0x3B
	IPv4ProtocolIPv6Opts  IPv4Protocol = 0x3C

	// IPv4ProtocolTest private placeholder value used by the send harness.
	IPv4ProtocolTest IPv4Protocol = 0xFD

	// IPv4ProtocolUnsupported catch-all for unknown protocol numbers.
	IPv4ProtocolUnsupported IPv4Protocol = 0xFF
)

// DecodeIPv4Protocol decode a protocol number. Unknown values decode to
// IPv4ProtocolUnsupported, never an error.
func DecodeIPv4Protocol(val uint8) IPv4Protocol {
	switch IPv4Protocol(val) {
	case IPv4ProtocolHopByHop, IPv4ProtocolICMP, IPv4ProtocolIGMP,
		IPv4ProtocolTCP, IPv4ProtocolUDP,
		IPv4ProtocolIPv6Route, IPv4ProtocolIPv6Frag, IPv4ProtocolICMPv6,
		IPv4ProtocolIPv6NoNxt, IPv4ProtocolIPv6Opts,
		IPv4ProtocolTest:
		return IPv4Protocol(val)

	default:
		return IPv4ProtocolUnsupported
	}
}

// Value get the wire value of an IPv4 protocol number.
func (p IPv4Protocol) Value() uint8 {
	return uint8(p)
}

// Name get IPv4 protocol name.
func (p IPv4Protocol) Name() string {
	switch p {
	case IPv4ProtocolHopByHop:
		return "HopByHop"

	case IPv4ProtocolICMP:
		return "ICMPv4"

	case IPv4ProtocolIGMP:
		return "IGMP"

	case IPv4ProtocolTCP:
		return "TCP"

	case IPv4ProtocolUDP:
		return "UDP"

	case IPv4ProtocolTest:
		return "Test"

	default:
		return fmt.Sprintf("IPv4 proto 0x%02X", uint8(p))
	}
}

// Address 4-byte IPv4 address.
type Address [4]byte

var (
	// AddressUnspecified the all-zero address.
	AddressUnspecified = Address{0, 0, 0, 0}
	// AddressBroadcast the limited broadcast address.
	AddressBroadcast = Address{255, 255, 255, 255}
	// AddressAllSystems the all-systems multicast group.
	AddressAllSystems = Address{224, 0, 0, 1}
	// AddressAllRouters the all-routers multicast group.
	AddressAllRouters = Address{224, 0, 0, 2}
)

// AddressFromBytes copy the first 4 bytes of data into an Address.
func AddressFromBytes(data []byte) Address {
	var addr Address
	copy(addr[:], data)

	return addr
}

// Bytes get the address octets.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsUnspecified reports whether the address is all zeroes.
func (a Address) IsUnspecified() bool {
	return a == AddressUnspecified
}

// IsBroadcast reports whether the address is the limited broadcast address.
func (a Address) IsBroadcast() bool {
	return a == AddressBroadcast
}

// IsMulticast reports whether the address is in the local multicast block.
func (a Address) IsMulticast() bool {
	return a[0] == 224
}

// IsLinkLocal reports whether the address is in 169.254.0.0/16.
func (a Address) IsLinkLocal() bool {
	return a[0] == 169 && a[1] == 254
}

// IsLoopback reports whether the address is in 127.0.0.0/8.
func (a Address) IsLoopback() bool {
	return a[0] == 127
}

// IsUnicast reports whether the address is none of broadcast, multicast
// or unspecified.
func (a Address) IsUnicast() bool {
	return !a.IsBroadcast() && !a.IsMulticast() && !a.IsUnspecified()
}

func (a Address) String() string {
	return net.IP(a[:]).String()
}

// IPv4 header layout.
const (
	ipVerIHL   = 0
	ipDSCPECN  = 1
	ipLength   = 2
	ipIdent    = 4
	ipFlagsOff = 6
	ipTTL      = 8
	ipProtocol = 9
	ipChecksum = 10
	ipSrcAddr  = 12
	ipDstAddr  = 16
	ipPayload  = 20
)

// Flag bits of the 16-bit flags/fragment-offset word. Bit 15 is reserved
// and must stay clear.
const (
	ipFlagDontFrag  = 0x4000
	ipFlagMoreFrags = 0x2000
	ipFragOffMask   = 0x1FFF
)

// IPv4HeaderLen minimum length of an IPv4 header (no options).
const IPv4HeaderLen = ipPayload

// IPv4 is a read-only view of an IPv4 datagram.
type IPv4 []byte

// ParseIPv4 wrap data in a checked read-only packet view.
func ParseIPv4(data []byte) (IPv4, error) {
	p := IPv4(data)
	if err := p.CheckLen(); err != nil {
		return nil, err
	}

	return p, nil
}

// CheckLen verify buffer length against the minimum header length, the
// declared header length and the declared total length, in that order.
// A declared header length below the fixed minimum would exclude
// mandatory fields, so it is rejected before any accessor slices by it.
func (p IPv4) CheckLen() error {
	if len(p) < IPv4HeaderLen {
		return fmt.Errorf("invalid (too small) IPv4 capture length (%d < %d): %w",
			len(p), IPv4HeaderLen, ErrTruncated)
	}
	if p.HeaderLen() < IPv4HeaderLen {
		return fmt.Errorf("invalid (too small) IPv4 header length (%d < %d): %w",
			p.HeaderLen(), IPv4HeaderLen, ErrMalformed)
	}
	if len(p) < p.HeaderLen() {
		return fmt.Errorf("invalid (too small) IPv4 capture length < IPv4 header length (%d < %d): %w",
			len(p), p.HeaderLen(), ErrTruncated)
	}
	if p.HeaderLen() > int(p.TotalLen()) {
		return fmt.Errorf("invalid IPv4 header length > IPv4 length (%d > %d): %w",
			p.HeaderLen(), p.TotalLen(), ErrMalformed)
	}
	if len(p) < int(p.TotalLen()) {
		return fmt.Errorf("invalid (too small) IPv4 capture length < IPv4 length (%d < %d): %w",
			len(p), p.TotalLen(), ErrTruncated)
	}

	return nil
}

// Version get the version nibble.
func (p IPv4) Version() uint8 {
	return p[ipVerIHL] >> 4
}

// HeaderLen get the header length in bytes. The wire stores it in 32-bit
// words.
func (p IPv4) HeaderLen() int {
	return int(p[ipVerIHL]&0x0F) << 2
}

// DSCP get the differentiated services code point.
func (p IPv4) DSCP() uint8 {
	return p[ipDSCPECN] >> 2
}

// ECN get the explicit congestion notification bits.
func (p IPv4) ECN() uint8 {
	return p[ipDSCPECN] & 0x03
}

// TotalLen get the declared datagram length, header included.
func (p IPv4) TotalLen() uint16 {
	return binary.BigEndian.Uint16(p[ipLength : ipLength+2])
}

// Ident get the identification field.
func (p IPv4) Ident() uint16 {
	return binary.BigEndian.Uint16(p[ipIdent : ipIdent+2])
}

// DontFrag get the don't-fragment flag.
func (p IPv4) DontFrag() bool {
	return p.flags()&ipFlagDontFrag != 0
}

// MoreFrags get the more-fragments flag.
func (p IPv4) MoreFrags() bool {
	return p.flags()&ipFlagMoreFrags != 0
}

// FragOffset get the fragment offset in bytes. The wire stores it in
// 8-byte units.
func (p IPv4) FragOffset() int {
	return int(p.flags()&ipFragOffMask) << 3
}

// TTL get the time-to-live field.
func (p IPv4) TTL() uint8 {
	return p[ipTTL]
}

// Protocol decode the payload protocol number.
func (p IPv4) Protocol() IPv4Protocol {
	return DecodeIPv4Protocol(p[ipProtocol])
}

// Checksum get the stored header checksum.
func (p IPv4) Checksum() uint16 {
	return binary.BigEndian.Uint16(p[ipChecksum : ipChecksum+2])
}

// SrcAddr get the source address.
func (p IPv4) SrcAddr() Address {
	return AddressFromBytes(p[ipSrcAddr:ipDstAddr])
}

// DstAddr get the destination address.
func (p IPv4) DstAddr() Address {
	return AddressFromBytes(p[ipDstAddr:ipPayload])
}

// Payload get the datagram payload, between the declared header length
// and the declared total length. Trailing buffer bytes beyond the total
// length are not part of this datagram.
func (p IPv4) Payload() []byte {
	return p[p.HeaderLen():p.TotalLen()]
}

// Bytes get the underlying buffer.
func (p IPv4) Bytes() []byte {
	return p
}

// VerifyChecksum reports whether the stored checksum matches the header
// contents. The IPv4 checksum is scoped to the header only: the sum runs
// over the header with the checksum field excluded, and its complement is
// compared against the stored value.
func (p IPv4) VerifyChecksum() bool {
	sum := checksum.Combine(
		checksum.Sum(p[:ipChecksum]),
		checksum.Sum(p[ipChecksum+2:p.HeaderLen()]),
	)

	return ^sum == p.Checksum()
}

func (p IPv4) flags() uint16 {
	return binary.BigEndian.Uint16(p[ipFlagsOff : ipFlagsOff+2])
}

func (p IPv4) String() string {
	desc := "IPv4: "

	desc += fmt.Sprintf("version=%d, ", p.Version())
	desc += fmt.Sprintf("ipHeaderLength=%d, ", p.HeaderLen())
	desc += fmt.Sprintf("DSCP=%d, ", p.DSCP())
	desc += fmt.Sprintf("ECN=%d, ", p.ECN())
	desc += fmt.Sprintf("length=%d, ", p.TotalLen())
	desc += fmt.Sprintf("id=%d, ", p.Ident())
	desc += fmt.Sprintf("DF=%t, ", p.DontFrag())
	desc += fmt.Sprintf("MF=%t, ", p.MoreFrags())
	desc += fmt.Sprintf("fragOffset=%d, ", p.FragOffset())
	desc += fmt.Sprintf("TTL=%d, ", p.TTL())
	desc += fmt.Sprintf("protocol=%s, ", p.Protocol().Name())
	desc += fmt.Sprintf("checksum=%d, ", p.Checksum())
	desc += fmt.Sprintf("srcIP=%s, ", p.SrcAddr())
	desc += fmt.Sprintf("dstIP=%s", p.DstAddr())

	return desc
}

// IPv4Mut is a read-write view over the same layout.
type IPv4Mut struct {
	IPv4
}

// NewIPv4Mut wrap data in an unchecked read-write packet view.
func NewIPv4Mut(data []byte) IPv4Mut {
	return IPv4Mut{IPv4(data)}
}

// ParseIPv4Mut wrap data in a checked read-write packet view.
func ParseIPv4Mut(data []byte) (IPv4Mut, error) {
	p := NewIPv4Mut(data)
	if err := p.CheckLen(); err != nil {
		return IPv4Mut{}, err
	}

	return p, nil
}

// SetVersion set the version nibble.
func (p IPv4Mut) SetVersion(v uint8) {
	p.IPv4[ipVerIHL] = p.IPv4[ipVerIHL]&0x0F | v<<4
}

// SetHeaderLen set the header length from a byte count; the wire stores
// 32-bit words.
func (p IPv4Mut) SetHeaderLen(n int) {
	p.IPv4[ipVerIHL] = p.IPv4[ipVerIHL]&0xF0 | uint8(n>>2)&0x0F
}

// SetDSCP set the differentiated services code point.
func (p IPv4Mut) SetDSCP(v uint8) {
	p.IPv4[ipDSCPECN] = p.IPv4[ipDSCPECN]&0x03 | v<<2
}

// SetECN set the explicit congestion notification bits.
func (p IPv4Mut) SetECN(v uint8) {
	p.IPv4[ipDSCPECN] = p.IPv4[ipDSCPECN]&0xFC | v&0x03
}

// SetTotalLen set the declared datagram length.
func (p IPv4Mut) SetTotalLen(n uint16) {
	binary.BigEndian.PutUint16(p.IPv4[ipLength:ipLength+2], n)
}

// SetIdent set the identification field.
func (p IPv4Mut) SetIdent(id uint16) {
	binary.BigEndian.PutUint16(p.IPv4[ipIdent:ipIdent+2], id)
}

// ClearFlags clear the three flag bits, reserved bit included.
func (p IPv4Mut) ClearFlags() {
	p.setFlags(p.flags() & ipFragOffMask)
}

// SetDontFrag set or clear the don't-fragment flag.
func (p IPv4Mut) SetDontFrag(v bool) {
	p.setFlag(ipFlagDontFrag, v)
}

// SetMoreFrags set or clear the more-fragments flag.
func (p IPv4Mut) SetMoreFrags(v bool) {
	p.setFlag(ipFlagMoreFrags, v)
}

// SetFragOffset set the fragment offset from a byte count; the wire
// stores 8-byte units.
func (p IPv4Mut) SetFragOffset(off int) {
	p.setFlags(p.flags()&^uint16(ipFragOffMask) | uint16(off>>3)&ipFragOffMask)
}

// SetTTL set the time-to-live field.
func (p IPv4Mut) SetTTL(ttl uint8) {
	p.IPv4[ipTTL] = ttl
}

// SetProtocol encode the payload protocol number.
func (p IPv4Mut) SetProtocol(proto IPv4Protocol) {
	p.IPv4[ipProtocol] = proto.Value()
}

// SetChecksum set the header checksum field.
func (p IPv4Mut) SetChecksum(sum uint16) {
	binary.BigEndian.PutUint16(p.IPv4[ipChecksum:ipChecksum+2], sum)
}

// SetSrcAddr set the source address.
func (p IPv4Mut) SetSrcAddr(addr Address) {
	copy(p.IPv4[ipSrcAddr:ipDstAddr], addr[:])
}

// SetDstAddr set the destination address.
func (p IPv4Mut) SetDstAddr(addr Address) {
	copy(p.IPv4[ipDstAddr:ipPayload], addr[:])
}

// PayloadMut get the datagram payload for writing.
func (p IPv4Mut) PayloadMut() []byte {
	return p.IPv4[p.HeaderLen():p.TotalLen()]
}

// FillChecksum compute the header checksum and write it back. The
// checksum field is zeroed first so the sum covers exactly the header
// with an empty checksum.
func (p IPv4Mut) FillChecksum() {
	p.SetChecksum(0)
	p.SetChecksum(^checksum.Sum(p.IPv4[:p.HeaderLen()]))
}

func (p IPv4Mut) setFlags(v uint16) {
	binary.BigEndian.PutUint16(p.IPv4[ipFlagsOff:ipFlagsOff+2], v)
}

func (p IPv4Mut) setFlag(mask uint16, v bool) {
	if v {
		p.setFlags(p.flags() | mask)
	} else {
		p.setFlags(p.flags() &^ mask)
	}
}
