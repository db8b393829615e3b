package layers

import (
	"encoding/binary"
	"fmt"

	"github.com/NotYetOS/net/checksum"
)

// ICMPv4Message ICMPv4 message type.
type ICMPv4Message uint8

const (
	ICMPv4EchoReply   ICMPv4Message = 0
	ICMPv4EchoRequest ICMPv4Message = 8

	// ICMPv4Unsupported catch-all for unknown message types.
	ICMPv4Unsupported ICMPv4Message = 0xFF
)

// DecodeICMPv4Message decode a message type value. Unknown values decode
// to ICMPv4Unsupported, never an error.
func DecodeICMPv4Message(val uint8) ICMPv4Message {
	switch ICMPv4Message(val) {
	case ICMPv4EchoReply, ICMPv4EchoRequest:
		return ICMPv4Message(val)

	default:
		return ICMPv4Unsupported
	}
}

// Value get the wire value of a message type.
func (m ICMPv4Message) Value() uint8 {
	return uint8(m)
}

// Name get ICMPv4 message type name.
func (m ICMPv4Message) Name() string {
	switch m {
	case ICMPv4EchoReply:
		return "EchoReply"

	case ICMPv4EchoRequest:
		return "EchoRequest"

	default:
		return fmt.Sprintf("ICMPv4 type 0x%02X", uint8(m))
	}
}

// ICMPv4 header layout. The 4 bytes after the checksum are an
// identifier/sequence pair for echo messages and an opaque unused field
// for everything else.
const (
	icmpType     = 0
	icmpCode     = 1
	icmpChecksum = 2
	icmpUnused   = 4
	icmpIdent    = 4
	icmpSeqNo    = 6
	icmpData     = 8
)

// ICMPv4HeaderLen length of an ICMPv4 header.
const ICMPv4HeaderLen = icmpData

// ICMPv4 is a read-only view of an ICMPv4 message.
type ICMPv4 []byte

// ParseICMPv4 wrap data in a checked read-only message view.
func ParseICMPv4(data []byte) (ICMPv4, error) {
	p := ICMPv4(data)
	if err := p.CheckLen(); err != nil {
		return nil, err
	}

	return p, nil
}

// CheckLen verify the buffer can hold an ICMPv4 header.
func (p ICMPv4) CheckLen() error {
	if len(p) < ICMPv4HeaderLen {
		return fmt.Errorf("invalid (too small) ICMPv4 capture length (%d < %d): %w",
			len(p), ICMPv4HeaderLen, ErrTruncated)
	}

	return nil
}

// MsgType decode the message type.
func (p ICMPv4) MsgType() ICMPv4Message {
	return DecodeICMPv4Message(p[icmpType])
}

// MsgCode get the message code.
func (p ICMPv4) MsgCode() uint8 {
	return p[icmpCode]
}

// Checksum get the stored checksum.
func (p ICMPv4) Checksum() uint16 {
	return binary.BigEndian.Uint16(p[icmpChecksum : icmpChecksum+2])
}

// EchoIdent get the echo identifier. Meaningful for echo messages only.
func (p ICMPv4) EchoIdent() uint16 {
	return binary.BigEndian.Uint16(p[icmpIdent : icmpIdent+2])
}

// EchoSeqNo get the echo sequence number. Meaningful for echo messages only.
func (p ICMPv4) EchoSeqNo() uint16 {
	return binary.BigEndian.Uint16(p[icmpSeqNo : icmpSeqNo+2])
}

// Unused get the 4-byte trailer of non-echo messages.
func (p ICMPv4) Unused() []byte {
	return p[icmpUnused:icmpData]
}

// HeaderLen get the header length. Every modeled message type carries an
// 8-byte header; the message type only decides which trailer accessors
// are meaningful.
func (p ICMPv4) HeaderLen() int {
	return icmpData
}

// Data get the message body.
func (p ICMPv4) Data() []byte {
	return p[p.HeaderLen():]
}

// Bytes get the underlying buffer.
func (p ICMPv4) Bytes() []byte {
	return p
}

// VerifyChecksum reports whether the message checksums correctly. The
// ICMPv4 checksum covers the whole message, so summing the buffer as
// received, checksum field included, must give all ones.
func (p ICMPv4) VerifyChecksum() bool {
	return checksum.Sum(p) == 0xFFFF
}

func (p ICMPv4) String() string {
	desc := "ICMPv4: "

	desc += fmt.Sprintf("type=%s, ", p.MsgType().Name())
	desc += fmt.Sprintf("code=%d, ", p.MsgCode())
	desc += fmt.Sprintf("checksum=%d", p.Checksum())

	return desc
}

// ICMPv4Mut is a read-write view over the same layout.
type ICMPv4Mut struct {
	ICMPv4
}

// NewICMPv4Mut wrap data in an unchecked read-write message view.
func NewICMPv4Mut(data []byte) ICMPv4Mut {
	return ICMPv4Mut{ICMPv4(data)}
}

// ParseICMPv4Mut wrap data in a checked read-write message view.
func ParseICMPv4Mut(data []byte) (ICMPv4Mut, error) {
	p := NewICMPv4Mut(data)
	if err := p.CheckLen(); err != nil {
		return ICMPv4Mut{}, err
	}

	return p, nil
}

// SetMsgType encode the message type.
func (p ICMPv4Mut) SetMsgType(m ICMPv4Message) {
	p.ICMPv4[icmpType] = m.Value()
}

// SetMsgCode set the message code.
func (p ICMPv4Mut) SetMsgCode(code uint8) {
	p.ICMPv4[icmpCode] = code
}

// SetChecksum set the checksum field.
func (p ICMPv4Mut) SetChecksum(sum uint16) {
	binary.BigEndian.PutUint16(p.ICMPv4[icmpChecksum:icmpChecksum+2], sum)
}

// SetEchoIdent set the echo identifier.
func (p ICMPv4Mut) SetEchoIdent(ident uint16) {
	binary.BigEndian.PutUint16(p.ICMPv4[icmpIdent:icmpIdent+2], ident)
}

// SetEchoSeqNo set the echo sequence number.
func (p ICMPv4Mut) SetEchoSeqNo(seq uint16) {
	binary.BigEndian.PutUint16(p.ICMPv4[icmpSeqNo:icmpSeqNo+2], seq)
}

// DataMut get the message body for writing.
func (p ICMPv4Mut) DataMut() []byte {
	return p.ICMPv4[p.HeaderLen():]
}

// FillChecksum compute the whole-message checksum and write it back.
func (p ICMPv4Mut) FillChecksum() {
	p.SetChecksum(0)
	p.SetChecksum(^checksum.Sum(p.ICMPv4))
}
