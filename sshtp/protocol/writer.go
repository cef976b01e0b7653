package protocol

import (
	"encoding/binary"
	"math/big"
)

// Writer stages encoded bytes in a segment of a nominal size. Encoders ask
// Reserve before each field; when the segment is full the owner flushes it
// (Consume) and calls the encoder again. A field larger than the segment is
// still accepted right after a flush, so encoding always makes progress.
// A Writer with size 0 is unbounded.
type Writer struct {
	buf     []byte
	size    int
	flushed bool
	err     error
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, max(size, 64)), size: size}
}

// Reserve reports whether n more bytes should be written now.
func (w *Writer) Reserve(n int) bool {
	if w.size == 0 || w.flushed || len(w.buf) == 0 {
		return true
	}
	return len(w.buf)+n <= w.size
}

func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the staged bytes. They remain valid until the next write.
func (w *Writer) Bytes() []byte { return w.buf }

// Consume drops the first n staged bytes, keeping the remainder for the next flush.
func (w *Writer) Consume(n int) {
	rest := copy(w.buf, w.buf[n:])
	w.buf = w.buf[:rest]
	w.flushed = true
}

func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.flushed = false
	w.err = nil
}

// Err returns the first error met while writing a field, such as a
// MessageBuffer whose packet was already released.
func (w *Writer) Err() error { return w.err }

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
	w.flushed = false
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
		return
	}
	w.WriteUint8(0)
}

func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	w.flushed = false
}

// WriteRaw appends b without a length prefix.
func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
	w.flushed = false
}

// WriteString appends b as a length prefixed string field.
func (w *Writer) WriteString(b []byte) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(b)))
	w.buf = append(w.buf, b...)
	w.flushed = false
}

func (w *Writer) WriteMPInt(n *big.Int) {
	w.buf = AppendMPInt(w.buf, n)
	w.flushed = false
}

func (w *Writer) WriteNameList(names []string) {
	w.buf = AppendNameList(w.buf, names)
	w.flushed = false
}

// WriteBuffer appends the length prefixed encoding of b. A failure is kept
// and reported by Err; the field is then written empty.
func (w *Writer) WriteBuffer(b MessageBuffer) {
	body, err := b.Bytes()
	if err != nil && w.err == nil {
		w.err = err
	}
	w.WriteString(body)
}
