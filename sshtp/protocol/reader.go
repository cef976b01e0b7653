package protocol

import "encoding/binary"

// Status is the outcome of one incremental decode step.
type Status int

const (
	// StatusDone means the message is fully decoded.
	StatusDone Status = iota
	// StatusNeedMoreData means decoding stopped at a unit boundary and can
	// resume once more bytes are fed to the reader.
	StatusNeedMoreData
	// StatusInvalidData means the input violates the message format.
	StatusInvalidData
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusNeedMoreData:
		return "need more data"
	case StatusInvalidData:
		return "invalid data"
	default:
		return "unknown"
	}
}

// Reader is a cursor over bytes that may arrive in pieces. Reads either
// consume a complete unit or nothing at all, so a decoder that stops with
// StatusNeedMoreData can resume after Feed without losing its place.
type Reader struct {
	buf   []byte
	off   int
	owner *IncomingPacket
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Feed appends more input. Slices returned earlier stay valid.
func (r *Reader) Feed(b []byte) {
	rest := r.buf[r.off:len(r.buf):len(r.buf)]
	r.buf = append(rest, b...)
	r.off = 0
}

// Len is the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Peek returns the next n bytes without consuming them.
func (r *Reader) Peek(n int) ([]byte, bool) {
	if n < 0 || r.Len() < n {
		return nil, false
	}
	return r.buf[r.off : r.off+n], true
}

// Skip consumes n bytes. It reports false, consuming nothing, when fewer are available.
func (r *Reader) Skip(n int) bool {
	if n < 0 || r.Len() < n {
		return false
	}
	r.off += n
	return true
}

func (r *Reader) ReadBytes(n int) ([]byte, bool) {
	b, ok := r.Peek(n)
	if ok {
		r.off += n
	}
	return b, ok
}

func (r *Reader) ReadUint8() (uint8, bool) {
	b, ok := r.ReadBytes(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (r *Reader) ReadBool() (bool, bool) {
	v, ok := r.ReadUint8()
	return v != 0, ok
}

func (r *Reader) ReadUint32() (uint32, bool) {
	b, ok := r.ReadBytes(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

// ReadBuffer reads a length prefixed field without copying it. The result
// borrows from the reader's input, and from the packet that owns it if any.
func (r *Reader) ReadBuffer() (MessageBuffer, bool) {
	head, ok := r.Peek(4)
	if !ok {
		return MessageBuffer{}, false
	}
	n := binary.BigEndian.Uint32(head)
	if uint64(r.Len()-4) < uint64(n) {
		return MessageBuffer{}, false
	}
	r.off += 4
	body := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return MessageBuffer{kind: bufferRaw, raw: body, owner: r.owner}, true
}
