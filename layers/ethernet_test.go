package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ethFrameBytes = append([]byte{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
	0x11, 0x12, 0x13, 0x14, 0x15, 0x16,
	0x08, 0x00,
}, ethPayloadBytes...)

var ethPayloadBytes = func() []byte {
	p := make([]byte, 50)
	p[0] = 0xAA
	p[49] = 0xFF
	return p
}()

func TestEthernetDeconstruct(t *testing.T) {
	frame, err := ParseEthernet(ethFrameBytes)
	require.NoError(t, err)

	assert.Equal(t, MACAddress{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, frame.DstAddr())
	assert.Equal(t, MACAddress{0x11, 0x12, 0x13, 0x14, 0x15, 0x16}, frame.SrcAddr())
	assert.Equal(t, EtherTypeIPv4, frame.EtherType())
	assert.Equal(t, ethPayloadBytes, frame.Payload())
}

func TestEthernetConstruct(t *testing.T) {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 0xA5
	}

	frame, err := ParseEthernetMut(buf)
	require.NoError(t, err)
	frame.SetDstAddr(MACAddress{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	frame.SetSrcAddr(MACAddress{0x11, 0x12, 0x13, 0x14, 0x15, 0x16})
	frame.SetEtherType(EtherTypeIPv4)
	copy(frame.PayloadMut(), ethPayloadBytes)

	assert.Equal(t, ethFrameBytes, frame.Bytes())
}

func TestEthernetCheckLen(t *testing.T) {
	_, err := ParseEthernet(make([]byte, 13))
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = ParseEthernet(make([]byte, 14))
	assert.NoError(t, err)
}

func TestEthernetViewsShareBuffer(t *testing.T) {
	buf := make([]byte, 14)
	mut := NewEthernetMut(buf)
	ro := Ethernet(buf)

	mut.SetEtherType(EtherTypeECTP)
	assert.Equal(t, EtherTypeECTP, ro.EtherType())
	assert.Equal(t, []byte{0x90, 0x00}, buf[12:14])
}

func TestDecodeEtherType(t *testing.T) {
	assert.Equal(t, EtherTypeIPv4, DecodeEtherType(0x0800))
	assert.Equal(t, EtherTypeARP, DecodeEtherType(0x0806))
	assert.Equal(t, EtherTypeVLAN, DecodeEtherType(0x8100))
	assert.Equal(t, EtherTypeIPv6, DecodeEtherType(0x86DD))
	assert.Equal(t, EtherTypeECTP, DecodeEtherType(0x9000))

	// Unknown tags are data, not errors.
	assert.Equal(t, EtherTypeUnsupported, DecodeEtherType(0x1234))
	assert.Equal(t, uint16(0), EtherTypeUnsupported.Value())
}

func TestMACAddressPredicates(t *testing.T) {
	assert.True(t, BroadcastMAC.IsBroadcast())
	assert.True(t, BroadcastMAC.IsMulticast())
	assert.True(t, BroadcastMAC.IsLocal())
	assert.False(t, BroadcastMAC.IsUnicast())

	unicast := MACAddress{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	assert.True(t, unicast.IsUnicast())
	assert.False(t, unicast.IsBroadcast())
	assert.False(t, unicast.IsMulticast())
	assert.False(t, unicast.IsLocal())

	multicast := MACAddress{0x01, 0x00, 0x5E, 0x00, 0x00, 0x01}
	assert.True(t, multicast.IsMulticast())
	assert.False(t, multicast.IsUnicast())

	local := MACAddress{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	assert.True(t, local.IsLocal())
	assert.True(t, local.IsUnicast())

	assert.Equal(t, "01:02:03:04:05:06", MACAddress{1, 2, 3, 4, 5, 6}.String())
}
