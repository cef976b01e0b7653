package protocol

import "errors"

var (
	ErrPacketReleased = errors.New("protocol: packet buffer already released")
	ErrEmptyPayload   = errors.New("protocol: packet has no payload")
)

// IncomingPacket is a packet as read from the stream. Its payload aliases
// the reader's buffer and is only usable until Advance is called, after
// which the buffer belongs to the next read.
type IncomingPacket struct {
	Header   PacketHeader
	Sequence uint32

	payload  []byte
	released bool
}

func NewIncomingPacket(header PacketHeader, seq uint32, payload []byte) *IncomingPacket {
	return &IncomingPacket{Header: header, Sequence: seq, payload: payload}
}

func (p *IncomingPacket) Payload() ([]byte, error) {
	if p.released {
		return nil, ErrPacketReleased
	}
	return p.payload, nil
}

func (p *IncomingPacket) Number() (MessageNumber, error) {
	b, err := p.Payload()
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, ErrEmptyPayload
	}
	return MessageNumber(b[0]), nil
}

// Reader returns a reader over the payload whose buffers borrow from p.
func (p *IncomingPacket) Reader() (*Reader, error) {
	b, err := p.Payload()
	if err != nil {
		return nil, err
	}
	return &Reader{buf: b, owner: p}, nil
}

// Advance releases the payload. Buffers read from the packet become invalid.
func (p *IncomingPacket) Advance() {
	p.released = true
	p.payload = nil
}

func (p *IncomingPacket) Released() bool { return p.released }

// ToMemoryPacket copies the packet into memory it owns.
func (p *IncomingPacket) ToMemoryPacket() (*MemoryPacket, error) {
	b, err := p.Payload()
	if err != nil {
		return nil, err
	}
	return &MemoryPacket{
		Header:   p.Header,
		Sequence: p.Sequence,
		Payload:  append([]byte(nil), b...),
	}, nil
}

// MemoryPacket is an owned copy of a packet.
type MemoryPacket struct {
	Header   PacketHeader
	Sequence uint32
	Payload  []byte
}

func (m *MemoryPacket) Number() (MessageNumber, error) {
	if len(m.Payload) == 0 {
		return 0, ErrEmptyPayload
	}
	return MessageNumber(m.Payload[0]), nil
}

func (m *MemoryPacket) Reader() *Reader { return NewReader(m.Payload) }
