package layers

import (
	"testing"

	"github.com/NotYetOS/net/checksum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIPv4Header(t *testing.T, bufLen int) IPv4Mut {
	t.Helper()

	p := NewIPv4Mut(make([]byte, bufLen))
	p.SetVersion(4)
	p.SetHeaderLen(20)
	p.SetDSCP(0)
	p.SetECN(0)
	p.SetTotalLen(uint16(bufLen))
	p.SetIdent(0)
	p.ClearFlags()
	p.SetDontFrag(true)
	p.SetMoreFrags(false)
	p.SetFragOffset(0)
	p.SetTTL(0x20)
	p.SetProtocol(IPv4ProtocolICMP)
	p.SetSrcAddr(Address{172, 27, 60, 82})
	p.SetDstAddr(Address{10, 10, 10, 1})
	p.FillChecksum()
	require.NoError(t, p.CheckLen())

	return p
}

func TestIPv4RoundTrip(t *testing.T) {
	p := NewIPv4Mut(make([]byte, 40))
	p.SetVersion(4)
	p.SetHeaderLen(20)
	p.SetDSCP(0x3F)
	p.SetECN(0x3)
	p.SetTotalLen(40)
	p.SetIdent(0xBEEF)
	p.ClearFlags()
	p.SetDontFrag(true)
	p.SetMoreFrags(true)
	p.SetFragOffset(6000)
	p.SetTTL(64)
	p.SetProtocol(IPv4ProtocolUDP)
	p.SetSrcAddr(Address{192, 168, 1, 1})
	p.SetDstAddr(Address{192, 168, 1, 2})

	assert.Equal(t, uint8(4), p.Version())
	assert.Equal(t, 20, p.HeaderLen())
	assert.Equal(t, uint8(0x3F), p.DSCP())
	assert.Equal(t, uint8(0x3), p.ECN())
	assert.Equal(t, uint16(40), p.TotalLen())
	assert.Equal(t, uint16(0xBEEF), p.Ident())
	assert.True(t, p.DontFrag())
	assert.True(t, p.MoreFrags())
	assert.Equal(t, 6000, p.FragOffset())
	assert.Equal(t, uint8(64), p.TTL())
	assert.Equal(t, IPv4ProtocolUDP, p.Protocol())
	assert.Equal(t, Address{192, 168, 1, 1}, p.SrcAddr())
	assert.Equal(t, Address{192, 168, 1, 2}, p.DstAddr())
}

func TestIPv4NoCrossFieldBleed(t *testing.T) {
	p := NewIPv4Mut(make([]byte, 20))
	p.SetVersion(4)
	p.SetHeaderLen(20)

	// Byte 1 is shared by DSCP and ECN, byte 0 by version and IHL.
	p.SetDSCP(0x3F)
	p.SetECN(0x3)
	assert.Equal(t, uint8(4), p.Version())
	assert.Equal(t, 20, p.HeaderLen())

	p.SetVersion(6)
	p.SetHeaderLen(24)
	assert.Equal(t, uint8(0x3F), p.DSCP())
	assert.Equal(t, uint8(0x3), p.ECN())

	// Flags and fragment offset share one 16-bit word.
	p.SetFragOffset(0xFF8)
	p.SetDontFrag(true)
	p.SetMoreFrags(false)
	assert.Equal(t, 0xFF8, p.FragOffset())
	assert.True(t, p.DontFrag())
	assert.False(t, p.MoreFrags())

	p.SetFragOffset(8)
	assert.True(t, p.DontFrag())
	assert.Equal(t, 8, p.FragOffset())
}

func TestIPv4CheckLen(t *testing.T) {
	// Shorter than any IPv4 header.
	_, err := ParseIPv4(make([]byte, 19))
	assert.ErrorIs(t, err, ErrTruncated)

	// Header length claims more than the whole datagram.
	buf := make([]byte, 24)
	p := NewIPv4Mut(buf)
	p.SetVersion(4)
	p.SetHeaderLen(24)
	p.SetTotalLen(20)
	assert.ErrorIs(t, p.CheckLen(), ErrMalformed)

	// Buffer shorter than the declared header length fails first.
	short := NewIPv4Mut(make([]byte, 20))
	short.SetVersion(4)
	short.SetHeaderLen(24)
	short.SetTotalLen(20)
	assert.ErrorIs(t, short.CheckLen(), ErrTruncated)

	// Datagram cut short of its declared total length.
	cut := NewIPv4Mut(make([]byte, 25))
	cut.SetVersion(4)
	cut.SetHeaderLen(20)
	cut.SetTotalLen(30)
	assert.ErrorIs(t, cut.CheckLen(), ErrTruncated)

	// Trailing bytes beyond the total length are fine.
	ok := buildIPv4Header(t, 28)
	ok.SetTotalLen(24)
	assert.NoError(t, ok.CheckLen())
}

func TestIPv4CheckLenRejectsShortHeaderLen(t *testing.T) {
	// An IHL nibble below 5 declares a header that excludes mandatory
	// fields; the checked constructors refuse it before any accessor can
	// slice with an inverted range.
	for ihl := 0; ihl <= 4; ihl++ {
		buf := make([]byte, 20)
		buf[0] = 0x40 | byte(ihl)
		buf[3] = 20 // total length

		_, err := ParseIPv4(buf)
		assert.ErrorIs(t, err, ErrMalformed, "IHL nibble %d", ihl)

		_, err = ParseIPv4Mut(buf)
		assert.ErrorIs(t, err, ErrMalformed, "IHL nibble %d", ihl)
	}
}

func TestIPv4PayloadBounds(t *testing.T) {
	// Payload stops at the declared total length, not the buffer end.
	p := buildIPv4Header(t, 30)
	p.SetTotalLen(28)
	copy(p.PayloadMut(), []byte{1, 2, 3, 4, 5, 6, 7, 8})

	assert.Len(t, p.Payload(), 8)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, p.Payload())
}

func TestIPv4ChecksumIdempotence(t *testing.T) {
	p := buildIPv4Header(t, 28)
	assert.True(t, p.VerifyChecksum())

	// The two verification formulations must agree: summing the header
	// as received, checksum field included, gives all ones.
	assert.Equal(t, uint16(0xFFFF), checksum.Sum(p.Bytes()[:p.HeaderLen()]))

	// Stable under repeated fills.
	was := p.Checksum()
	p.FillChecksum()
	assert.Equal(t, was, p.Checksum())
}

func TestIPv4ChecksumSensitivity(t *testing.T) {
	p := buildIPv4Header(t, 20)

	for bit := 0; bit < 20*8; bit++ {
		p.IPv4[bit/8] ^= 1 << (bit % 8)
		assert.False(t, p.VerifyChecksum(), "bit %d flip went undetected", bit)
		p.IPv4[bit/8] ^= 1 << (bit % 8)
	}
	assert.True(t, p.VerifyChecksum())
}

func TestDecodeIPVersion(t *testing.T) {
	v, err := DecodeIPVersion([]byte{0x45})
	require.NoError(t, err)
	assert.Equal(t, Version4, v)

	v, err = DecodeIPVersion([]byte{0x60})
	require.NoError(t, err)
	assert.Equal(t, Version6, v)

	_, err = DecodeIPVersion([]byte{0x25})
	assert.ErrorIs(t, err, ErrUnrecognized)

	_, err = DecodeIPVersion(nil)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeIPv4Protocol(t *testing.T) {
	assert.Equal(t, IPv4ProtocolICMP, DecodeIPv4Protocol(0x01))
	assert.Equal(t, IPv4ProtocolTCP, DecodeIPv4Protocol(0x06))
	assert.Equal(t, IPv4ProtocolUDP, DecodeIPv4Protocol(0x11))
	assert.Equal(t, IPv4ProtocolTest, DecodeIPv4Protocol(0xFD))

	assert.Equal(t, IPv4ProtocolUnsupported, DecodeIPv4Protocol(0x63))
	assert.Equal(t, uint8(0xFF), IPv4ProtocolUnsupported.Value())
}

func TestAddressPredicates(t *testing.T) {
	assert.True(t, AddressUnspecified.IsUnspecified())
	assert.True(t, AddressBroadcast.IsBroadcast())
	assert.True(t, AddressAllSystems.IsMulticast())
	assert.True(t, AddressAllRouters.IsMulticast())

	assert.True(t, Address{169, 254, 1, 1}.IsLinkLocal())
	assert.True(t, Address{127, 0, 0, 1}.IsLoopback())

	unicast := Address{10, 0, 0, 1}
	assert.True(t, unicast.IsUnicast())
	assert.False(t, unicast.IsBroadcast())
	assert.False(t, unicast.IsMulticast())

	assert.Equal(t, "172.27.60.82", Address{172, 27, 60, 82}.String())
}
