package protocol

import (
	"encoding/binary"
	"math/big"
)

var bigOne = big.NewInt(1)

// MPIntBytes returns the body of the mpint encoding of n: big endian two's
// complement, minimal length. Zero has an empty body.
func MPIntBytes(n *big.Int) []byte {
	switch n.Sign() {
	case 0:
		return nil
	case 1:
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// Two's complement of a negative value: invert the bits of |n|-1.
	m := new(big.Int).Neg(n)
	m.Sub(m, bigOne)
	b := m.Bytes()
	for i := range b {
		b[i] ^= 0xff
	}
	if len(b) == 0 || b[0]&0x80 == 0 {
		b = append([]byte{0xff}, b...)
	}
	return b
}

// MPIntByteCount is the encoded size of n including the length prefix.
func MPIntByteCount(n *big.Int) int {
	return 4 + len(MPIntBytes(n))
}

// AppendMPInt appends the length prefixed mpint encoding of n to dst.
func AppendMPInt(dst []byte, n *big.Int) []byte {
	body := MPIntBytes(n)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(body)))
	return append(dst, body...)
}

// ParseMPInt decodes an mpint body. An empty body is zero.
func ParseMPInt(body []byte) *big.Int {
	n := new(big.Int)
	if len(body) == 0 {
		return n
	}
	if body[0]&0x80 == 0 {
		return n.SetBytes(body)
	}
	inv := make([]byte, len(body))
	for i, b := range body {
		inv[i] = ^b
	}
	n.SetBytes(inv)
	n.Add(n, bigOne)
	return n.Neg(n)
}

// IsMinimalMPInt reports whether body is the canonical encoding of its value.
func IsMinimalMPInt(body []byte) bool {
	if len(body) < 2 {
		return len(body) == 0 || body[0] != 0
	}
	switch body[0] {
	case 0x00:
		return body[1]&0x80 != 0
	case 0xff:
		return body[1]&0x80 == 0
	}
	return true
}
