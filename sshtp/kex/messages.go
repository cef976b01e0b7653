package kex

import "github.com/TheusHen/sshtp/sshtp/protocol"

// KexDHInit is SSH_MSG_KEXDH_INIT. Exchange holds the client public value:
// mpint e for finite field groups, string Q_C for curve25519. Both share
// the same wire shape, a length prefixed body.
type KexDHInit struct {
	Exchange protocol.MessageBuffer
}

func (m *KexDHInit) Number() protocol.MessageNumber { return protocol.MessageKexDHInit }
func (m *KexDHInit) ByteCount() int                 { return 1 + m.Exchange.ByteCount() }

func (m *KexDHInit) NewEncoder() protocol.Encoder {
	return &fieldEncoder{number: protocol.MessageKexDHInit, fields: []protocol.MessageBuffer{m.Exchange}}
}

func (m *KexDHInit) NewDecoder() protocol.Decoder {
	return &fieldDecoder{number: protocol.MessageKexDHInit, fields: []*protocol.MessageBuffer{&m.Exchange}}
}

// KexDHReply is SSH_MSG_KEXDH_REPLY: the server host key blob K_S, the
// server public value, and the signature over the exchange hash.
type KexDHReply struct {
	HostKey   protocol.MessageBuffer
	Exchange  protocol.MessageBuffer
	Signature protocol.MessageBuffer
}

func (m *KexDHReply) Number() protocol.MessageNumber { return protocol.MessageKexDHReply }

func (m *KexDHReply) ByteCount() int {
	return 1 + m.HostKey.ByteCount() + m.Exchange.ByteCount() + m.Signature.ByteCount()
}

func (m *KexDHReply) NewEncoder() protocol.Encoder {
	return &fieldEncoder{
		number: protocol.MessageKexDHReply,
		fields: []protocol.MessageBuffer{m.HostKey, m.Exchange, m.Signature},
	}
}

func (m *KexDHReply) NewDecoder() protocol.Decoder {
	return &fieldDecoder{
		number: protocol.MessageKexDHReply,
		fields: []*protocol.MessageBuffer{&m.HostKey, &m.Exchange, &m.Signature},
	}
}

// fieldEncoder writes a message number followed by length prefixed fields,
// one stage per field, yielding whenever the segment is full.
type fieldEncoder struct {
	number protocol.MessageNumber
	fields []protocol.MessageBuffer
	stage  int
}

func (e *fieldEncoder) Encode(w *protocol.Writer) bool {
	if e.stage == 0 {
		if !w.Reserve(1) {
			return false
		}
		w.WriteUint8(uint8(e.number))
		e.stage++
	}
	for e.stage <= len(e.fields) {
		f := e.fields[e.stage-1]
		if !w.Reserve(f.ByteCount()) {
			return false
		}
		w.WriteBuffer(f)
		e.stage++
	}
	return true
}

func (e *fieldEncoder) Reset() { e.stage = 0 }

// fieldDecoder mirrors fieldEncoder. Fields are borrowed from the packet.
type fieldDecoder struct {
	number protocol.MessageNumber
	fields []*protocol.MessageBuffer
	stage  int
}

func (d *fieldDecoder) Decode(r *protocol.Reader) protocol.Status {
	if d.stage == 0 {
		if s := protocol.ExpectNumber(r, d.number); s != protocol.StatusDone {
			return s
		}
		d.stage++
	}
	for d.stage <= len(d.fields) {
		b, ok := r.ReadBuffer()
		if !ok {
			return protocol.StatusNeedMoreData
		}
		*d.fields[d.stage-1] = b
		d.stage++
	}
	return protocol.StatusDone
}

func (d *fieldDecoder) Reset() { d.stage = 0 }
