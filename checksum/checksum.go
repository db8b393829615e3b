// Package checksum implements the Internet checksum defined by RFC 1071,
// shared by the IPv4 and ICMPv4 header layers.
package checksum

import (
	"encoding/binary"
)

// fold propagates the carries of a 32-bit accumulator into its low 16
// bits. Two rounds are enough for any sum of a 64KB buffer.
func fold(sum uint32) uint16 {
	sum = (sum >> 16) + (sum & 0xFFFF)
	sum += sum >> 16

	return uint16(sum)
}

// Sum computes the ones'-complement sum of data interpreted as big-endian
// 16-bit words. An odd trailing byte counts as the high byte of a virtual
// word. The result is the uncomplemented running sum; callers complement
// it themselves when filling a checksum field.
func Sum(data []byte) uint16 {
	var sum uint32

	// 32-byte batches keep the loop tight for full-datagram scans.
	for len(data) >= 32 {
		for i := 0; i < 32; i += 2 {
			sum += uint32(binary.BigEndian.Uint16(data[i : i+2]))
		}
		data = data[32:]
	}
	for len(data) >= 2 {
		sum += uint32(binary.BigEndian.Uint16(data[:2]))
		data = data[2:]
	}
	if len(data) == 1 {
		sum += uint32(data[0]) << 8
	}

	return fold(sum)
}

// Combine merges already-computed partial sums with the same
// accumulate-and-fold rule. For even-sized regions this equals summing
// the concatenated regions in one pass.
func Combine(sums ...uint16) uint16 {
	var sum uint32

	for _, s := range sums {
		sum += uint32(s)
	}

	return fold(sum)
}
