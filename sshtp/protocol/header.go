package protocol

import "encoding/binary"

// PacketHeaderSize is the size of the length and padding length fields.
const PacketHeaderSize = 5

// PacketHeader is the unencrypted view of the first five bytes of a packet.
// Format:
//
//	4 bytes: packet length (big endian), excluding itself and the MAC
//	1 byte:  padding length
//
// Bounds are not checked here; the reader validates them against its limits.
type PacketHeader struct {
	Length        uint32
	PaddingLength uint8
}

// ParsePacketHeader reads a header from b. It reports false when b holds
// fewer than PacketHeaderSize bytes.
func ParsePacketHeader(b []byte) (PacketHeader, bool) {
	if len(b) < PacketHeaderSize {
		return PacketHeader{}, false
	}
	return PacketHeader{
		Length:        binary.BigEndian.Uint32(b[:4]),
		PaddingLength: b[4],
	}, true
}

// Write stores h into b. It reports false when b is too small.
func (h PacketHeader) Write(b []byte) bool {
	if len(b) < PacketHeaderSize {
		return false
	}
	binary.BigEndian.PutUint32(b[:4], h.Length)
	b[4] = h.PaddingLength
	return true
}

// PayloadLength is the number of message bytes carried by the packet.
// It is negative when the padding length is inconsistent with Length.
func (h PacketHeader) PayloadLength() int {
	return int(h.Length) - 1 - int(h.PaddingLength)
}
