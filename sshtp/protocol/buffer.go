package protocol

import (
	"errors"
	"math/big"
)

var ErrBufferKind = errors.New("protocol: message buffer holds a different kind of value")

type bufferKind uint8

const (
	bufferRaw bufferKind = iota
	bufferString
	bufferBigInt
)

// MessageBuffer is a length prefixed field. Decoders hand out raw views into
// the packet being read; the value is only materialized on request. A raw
// view taken from an IncomingPacket becomes unusable once the packet is
// advanced, so anything that must outlive the read goes through Owned first.
type MessageBuffer struct {
	kind  bufferKind
	raw   []byte
	str   string
	num   *big.Int
	owner *IncomingPacket
}

// BytesBuffer wraps b, which the caller must not modify afterwards.
func BytesBuffer(b []byte) MessageBuffer {
	return MessageBuffer{kind: bufferRaw, raw: b}
}

func StringBuffer(s string) MessageBuffer {
	return MessageBuffer{kind: bufferString, str: s}
}

// BigIntBuffer holds n, encoded as an mpint.
func BigIntBuffer(n *big.Int) MessageBuffer {
	return MessageBuffer{kind: bufferBigInt, num: n}
}

// Valid reports whether the buffer can still be read.
func (b MessageBuffer) Valid() bool {
	return b.owner == nil || !b.owner.released
}

// Len is the size of the field body.
func (b MessageBuffer) Len() int {
	switch b.kind {
	case bufferString:
		return len(b.str)
	case bufferBigInt:
		return len(MPIntBytes(b.num))
	default:
		return len(b.raw)
	}
}

// ByteCount is the encoded size including the length prefix.
func (b MessageBuffer) ByteCount() int { return 4 + b.Len() }

// Bytes returns the field body. For a raw buffer the result aliases the
// packet it was read from.
func (b MessageBuffer) Bytes() ([]byte, error) {
	if !b.Valid() {
		return nil, ErrPacketReleased
	}
	switch b.kind {
	case bufferString:
		return []byte(b.str), nil
	case bufferBigInt:
		return MPIntBytes(b.num), nil
	default:
		return b.raw, nil
	}
}

func (b MessageBuffer) AsString() (string, error) {
	switch b.kind {
	case bufferString:
		return b.str, nil
	case bufferBigInt:
		return "", ErrBufferKind
	}
	if !b.Valid() {
		return "", ErrPacketReleased
	}
	return string(b.raw), nil
}

// AsBigInt interprets the field as an mpint.
func (b MessageBuffer) AsBigInt() (*big.Int, error) {
	switch b.kind {
	case bufferBigInt:
		return new(big.Int).Set(b.num), nil
	case bufferString:
		return nil, ErrBufferKind
	}
	if !b.Valid() {
		return nil, ErrPacketReleased
	}
	return ParseMPInt(b.raw), nil
}

// Owned returns a copy that no longer depends on the packet it came from.
func (b MessageBuffer) Owned() (MessageBuffer, error) {
	if b.kind != bufferRaw || b.owner == nil {
		return b, nil
	}
	if !b.Valid() {
		return MessageBuffer{}, ErrPacketReleased
	}
	return BytesBuffer(append([]byte(nil), b.raw...)), nil
}
