package protocol

import (
	"errors"
	"fmt"
)

var ErrInvalidData = errors.New("protocol: invalid message data")

// Message is a payload that can be framed into a packet.
type Message interface {
	Number() MessageNumber
	// ByteCount is the exact encoded size, message number included.
	ByteCount() int
	NewEncoder() Encoder
}

// Encoder writes a message field by field. Encode returns false when the
// writer's segment is full: flush it and call Encode again.
type Encoder interface {
	Encode(w *Writer) bool
	Reset()
}

// Decoder fills the message it was created for. Decode may be called again
// after StatusNeedMoreData and continues where it stopped.
type Decoder interface {
	Decode(r *Reader) Status
	Reset()
}

// Marshal encodes m into a new slice.
func Marshal(m Message) []byte {
	w := &Writer{buf: make([]byte, 0, m.ByteCount())}
	enc := m.NewEncoder()
	for !enc.Encode(w) {
		// an unbounded writer accepts every field
	}
	return w.buf
}

// Decode runs d over a complete payload. Running out of input is an error
// here because nothing more will arrive.
func Decode(r *Reader, d Decoder) error {
	switch s := d.Decode(r); s {
	case StatusDone:
		if r.Len() != 0 {
			return fmt.Errorf("%w: %d trailing bytes", ErrInvalidData, r.Len())
		}
		return nil
	case StatusNeedMoreData:
		return fmt.Errorf("%w: truncated message", ErrInvalidData)
	default:
		return ErrInvalidData
	}
}

// DecodePacket decodes the payload of p with d.
func DecodePacket(p *IncomingPacket, d Decoder) error {
	r, err := p.Reader()
	if err != nil {
		return err
	}
	return Decode(r, d)
}

// Unmarshal decodes an owned payload with d.
func Unmarshal(payload []byte, d Decoder) error {
	return Decode(NewReader(payload), d)
}

// wholeDecoder decodes small messages in one step: it consumes nothing
// until all fields are present, which keeps it resumable.
type wholeDecoder struct {
	decode func(r *Reader) Status
	status Status
	ran    bool
}

func (d *wholeDecoder) Decode(r *Reader) Status {
	if d.ran && d.status != StatusNeedMoreData {
		return d.status
	}
	probe := *r
	d.status = d.decode(&probe)
	d.ran = true
	if d.status == StatusDone {
		*r = probe
	}
	return d.status
}

func (d *wholeDecoder) Reset() {
	d.ran = false
	d.status = StatusNeedMoreData
}

// wholeEncoder writes a small message in one step.
type wholeEncoder struct {
	size   int
	encode func(w *Writer)
	done   bool
}

func (e *wholeEncoder) Encode(w *Writer) bool {
	if e.done {
		return true
	}
	if !w.Reserve(e.size) {
		return false
	}
	e.encode(w)
	e.done = true
	return true
}

func (e *wholeEncoder) Reset() { e.done = false }

// ExpectNumber consumes the message number and checks it against want.
func ExpectNumber(r *Reader, want MessageNumber) Status {
	b, ok := r.ReadUint8()
	if !ok {
		return StatusNeedMoreData
	}
	if MessageNumber(b) != want {
		return StatusInvalidData
	}
	return StatusDone
}

// readString reads a length prefixed field as a string.
func readString(r *Reader) (string, bool) {
	b, ok := r.ReadBuffer()
	if !ok {
		return "", false
	}
	return string(b.raw), true
}
