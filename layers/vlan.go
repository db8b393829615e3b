package layers

import (
	"encoding/binary"
	"fmt"
)

// 802.1Q tag layout: PCP (3 bits), DEI (1 bit) and VLAN ID (12 bits) in
// the first two bytes, encapsulated EtherType in the next two.
const (
	vlanTCI       = 0
	vlanEtherType = 2
	vlanPayload   = 4
)

// VLANHeaderLen length of an 802.1Q tag header.
const VLANHeaderLen = vlanPayload

// VLAN is a read-only view of an 802.1Q VLAN tag.
type VLAN []byte

// ParseVLAN wrap data in a checked read-only tag view.
func ParseVLAN(data []byte) (VLAN, error) {
	v := VLAN(data)
	if err := v.CheckLen(); err != nil {
		return nil, err
	}

	return v, nil
}

// CheckLen verify the buffer can hold a VLAN tag header.
func (v VLAN) CheckLen() error {
	if len(v) < VLANHeaderLen {
		return fmt.Errorf("invalid (too small) VLAN capture length (%d < %d): %w",
			len(v), VLANHeaderLen, ErrTruncated)
	}

	return nil
}

// Priority get the priority code point.
func (v VLAN) Priority() uint8 {
	return v[vlanTCI] >> 5
}

// DropEligible get the drop eligible indicator.
func (v VLAN) DropEligible() bool {
	return v[vlanTCI]&0x10 != 0
}

// ID get the VLAN identifier.
func (v VLAN) ID() uint16 {
	return binary.BigEndian.Uint16(v[vlanTCI:vlanEtherType]) & 0x0FFF
}

// EtherType decode the encapsulated payload type tag.
func (v VLAN) EtherType() EtherType {
	return DecodeEtherType(binary.BigEndian.Uint16(v[vlanEtherType:vlanPayload]))
}

// Payload get the encapsulated payload.
func (v VLAN) Payload() []byte {
	return v[vlanPayload:]
}

// Bytes get the underlying buffer.
func (v VLAN) Bytes() []byte {
	return v
}

func (v VLAN) String() string {
	desc := "VLAN: "

	desc += fmt.Sprintf("priority=%d, ", v.Priority())
	desc += fmt.Sprintf("dropEligible=%t, ", v.DropEligible())
	desc += fmt.Sprintf("id=%d, ", v.ID())
	desc += fmt.Sprintf("ethernetType=%s", v.EtherType().Name())

	return desc
}

// VLANMut is a read-write view over the same layout.
type VLANMut struct {
	VLAN
}

// NewVLANMut wrap data in an unchecked read-write tag view.
func NewVLANMut(data []byte) VLANMut {
	return VLANMut{VLAN(data)}
}

// ParseVLANMut wrap data in a checked read-write tag view.
func ParseVLANMut(data []byte) (VLANMut, error) {
	v := NewVLANMut(data)
	if err := v.CheckLen(); err != nil {
		return VLANMut{}, err
	}

	return v, nil
}

// SetPriority set the priority code point.
func (v VLANMut) SetPriority(p uint8) {
	v.VLAN[vlanTCI] = v.VLAN[vlanTCI]&0x1F | p<<5
}

// SetDropEligible set or clear the drop eligible indicator.
func (v VLANMut) SetDropEligible(d bool) {
	if d {
		v.VLAN[vlanTCI] |= 0x10
	} else {
		v.VLAN[vlanTCI] &^= 0x10
	}
}

// SetID set the VLAN identifier.
func (v VLANMut) SetID(id uint16) {
	tci := binary.BigEndian.Uint16(v.VLAN[vlanTCI:vlanEtherType])
	binary.BigEndian.PutUint16(v.VLAN[vlanTCI:vlanEtherType], tci&0xF000|id&0x0FFF)
}

// SetEtherType encode the encapsulated payload type tag.
func (v VLANMut) SetEtherType(et EtherType) {
	binary.BigEndian.PutUint16(v.VLAN[vlanEtherType:vlanPayload], et.Value())
}

// PayloadMut get the encapsulated payload for writing.
func (v VLANMut) PayloadMut() []byte {
	return v.VLAN[vlanPayload:]
}
