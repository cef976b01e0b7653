package protocol

import "bytes"

// NewKeys is SSH_MSG_NEWKEYS.
type NewKeys struct{}

func (m *NewKeys) Number() MessageNumber { return MessageNewKeys }
func (m *NewKeys) ByteCount() int        { return 1 }

func (m *NewKeys) NewEncoder() Encoder {
	return &wholeEncoder{size: 1, encode: func(w *Writer) { w.WriteUint8(uint8(MessageNewKeys)) }}
}

func (m *NewKeys) NewDecoder() Decoder {
	return &wholeDecoder{decode: func(r *Reader) Status { return ExpectNumber(r, MessageNewKeys) }}
}

// Ignore is SSH_MSG_IGNORE.
type Ignore struct {
	Data []byte
}

func (m *Ignore) Number() MessageNumber { return MessageIgnore }
func (m *Ignore) ByteCount() int        { return 1 + 4 + len(m.Data) }

func (m *Ignore) NewEncoder() Encoder {
	return &wholeEncoder{size: m.ByteCount(), encode: func(w *Writer) {
		w.WriteUint8(uint8(MessageIgnore))
		w.WriteString(m.Data)
	}}
}

func (m *Ignore) NewDecoder() Decoder {
	return &wholeDecoder{decode: func(r *Reader) Status {
		if s := ExpectNumber(r, MessageIgnore); s != StatusDone {
			return s
		}
		b, ok := r.ReadBuffer()
		if !ok {
			return StatusNeedMoreData
		}
		m.Data = bytes.Clone(b.raw)
		return StatusDone
	}}
}

// Debug is SSH_MSG_DEBUG.
type Debug struct {
	AlwaysDisplay bool
	Message       string
	Language      string
}

func (m *Debug) Number() MessageNumber { return MessageDebug }
func (m *Debug) ByteCount() int        { return 1 + 1 + 4 + len(m.Message) + 4 + len(m.Language) }

func (m *Debug) NewEncoder() Encoder {
	return &wholeEncoder{size: m.ByteCount(), encode: func(w *Writer) {
		w.WriteUint8(uint8(MessageDebug))
		w.WriteBool(m.AlwaysDisplay)
		w.WriteString([]byte(m.Message))
		w.WriteString([]byte(m.Language))
	}}
}

func (m *Debug) NewDecoder() Decoder {
	return &wholeDecoder{decode: func(r *Reader) Status {
		if s := ExpectNumber(r, MessageDebug); s != StatusDone {
			return s
		}
		display, ok := r.ReadBool()
		if !ok {
			return StatusNeedMoreData
		}
		msg, ok := readString(r)
		if !ok {
			return StatusNeedMoreData
		}
		lang, ok := readString(r)
		if !ok {
			return StatusNeedMoreData
		}
		m.AlwaysDisplay, m.Message, m.Language = display, msg, lang
		return StatusDone
	}}
}

// Unimplemented is SSH_MSG_UNIMPLEMENTED. It names the rejected packet by
// its sequence number.
type Unimplemented struct {
	Sequence uint32
}

func (m *Unimplemented) Number() MessageNumber { return MessageUnimplemented }
func (m *Unimplemented) ByteCount() int        { return 5 }

func (m *Unimplemented) NewEncoder() Encoder {
	return &wholeEncoder{size: 5, encode: func(w *Writer) {
		w.WriteUint8(uint8(MessageUnimplemented))
		w.WriteUint32(m.Sequence)
	}}
}

func (m *Unimplemented) NewDecoder() Decoder {
	return &wholeDecoder{decode: func(r *Reader) Status {
		if s := ExpectNumber(r, MessageUnimplemented); s != StatusDone {
			return s
		}
		seq, ok := r.ReadUint32()
		if !ok {
			return StatusNeedMoreData
		}
		m.Sequence = seq
		return StatusDone
	}}
}

// ServiceRequest is SSH_MSG_SERVICE_REQUEST.
type ServiceRequest struct {
	Service string
}

func (m *ServiceRequest) Number() MessageNumber { return MessageServiceRequest }
func (m *ServiceRequest) ByteCount() int        { return 1 + 4 + len(m.Service) }

func (m *ServiceRequest) NewEncoder() Encoder {
	return serviceEncoder(MessageServiceRequest, m.Service)
}

func (m *ServiceRequest) NewDecoder() Decoder {
	return serviceDecoder(MessageServiceRequest, &m.Service)
}

// ServiceAccept is SSH_MSG_SERVICE_ACCEPT.
type ServiceAccept struct {
	Service string
}

func (m *ServiceAccept) Number() MessageNumber { return MessageServiceAccept }
func (m *ServiceAccept) ByteCount() int        { return 1 + 4 + len(m.Service) }

func (m *ServiceAccept) NewEncoder() Encoder {
	return serviceEncoder(MessageServiceAccept, m.Service)
}

func (m *ServiceAccept) NewDecoder() Decoder {
	return serviceDecoder(MessageServiceAccept, &m.Service)
}

func serviceEncoder(n MessageNumber, service string) Encoder {
	return &wholeEncoder{size: 1 + 4 + len(service), encode: func(w *Writer) {
		w.WriteUint8(uint8(n))
		w.WriteString([]byte(service))
	}}
}

func serviceDecoder(n MessageNumber, service *string) Decoder {
	return &wholeDecoder{decode: func(r *Reader) Status {
		if s := ExpectNumber(r, n); s != StatusDone {
			return s
		}
		v, ok := readString(r)
		if !ok {
			return StatusNeedMoreData
		}
		*service = v
		return StatusDone
	}}
}
