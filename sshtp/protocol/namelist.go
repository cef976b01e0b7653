package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// MaxNameLength caps a single name. Names are scanned in place in the
// receive buffer, so the cap bounds how far the decoder looks ahead.
const MaxNameLength = 256

var ErrInvalidNameList = errors.New("protocol: invalid name-list")

// NamelistStatus is the outcome of one NamelistDecoder step.
type NamelistStatus int

const (
	// NamelistLength: the length prefix was read; call Decode again.
	NamelistLength NamelistStatus = iota
	// NamelistNeedsData: the current name is incomplete.
	NamelistNeedsData
	// NamelistNameTooBig: a name exceeds MaxNameLength.
	NamelistNameTooBig
	// NamelistComplete: every name has been appended.
	NamelistComplete
)

type namelistState uint8

const (
	awaitingLength namelistState = iota
	awaitingNames
	namelistDone
)

// NamelistDecoder decodes a name-list incrementally. Only complete names
// are consumed from the reader.
type NamelistDecoder struct {
	state     namelistState
	remaining int
	// a delimiter was consumed, so one more (possibly empty) name follows
	afterComma bool
}

func (d *NamelistDecoder) Reset() {
	*d = NamelistDecoder{}
}

// Decode appends the names available in r to names.
func (d *NamelistDecoder) Decode(names *[]string, r *Reader) NamelistStatus {
	switch d.state {
	case awaitingLength:
		n, ok := r.ReadUint32()
		if !ok {
			return NamelistNeedsData
		}
		d.remaining = int(n)
		d.state = awaitingNames
		return NamelistLength
	case namelistDone:
		return NamelistComplete
	}

	for {
		if d.remaining == 0 {
			if d.afterComma {
				*names = append(*names, "")
			}
			d.afterComma = false
			d.state = namelistDone
			return NamelistComplete
		}

		window := min(r.Len(), d.remaining)
		data, _ := r.Peek(window)
		if i := bytes.IndexByte(data, ','); i >= 0 {
			if i > MaxNameLength {
				return NamelistNameTooBig
			}
			*names = append(*names, string(data[:i]))
			r.Skip(i + 1)
			d.remaining -= i + 1
			d.afterComma = true
			continue
		}

		if window == d.remaining {
			// The rest of the list is buffered and holds the last name.
			if window > MaxNameLength {
				return NamelistNameTooBig
			}
			*names = append(*names, string(data))
			r.Skip(window)
			d.remaining = 0
			d.afterComma = false
			d.state = namelistDone
			return NamelistComplete
		}
		if window > MaxNameLength {
			return NamelistNameTooBig
		}
		return NamelistNeedsData
	}
}

// NameListByteCount is the encoded size of names including the length prefix.
func NameListByteCount(names []string) int {
	n := 4
	for i, s := range names {
		if i > 0 {
			n++
		}
		n += len(s)
	}
	return n
}

func AppendNameList(dst []byte, names []string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(NameListByteCount(names)-4))
	for i, s := range names {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, s...)
	}
	return dst
}

// ValidateNameList checks that names can be sent as a name-list.
func ValidateNameList(names []string) error {
	for _, s := range names {
		if s == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidNameList)
		}
		if len(s) > MaxNameLength {
			return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidNameList, MaxNameLength)
		}
		if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r > '~' || r == ',' }) >= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidNameList, s)
		}
	}
	return nil
}
