package protocol

import (
	"fmt"
	"io"
)

// CookieSize is the length of the random KEXINIT cookie.
const CookieSize = 16

// KexInit is SSH_MSG_KEXINIT. The name-lists are in wire order.
type KexInit struct {
	Cookie                  [CookieSize]byte
	KexAlgorithms           []string
	ServerHostKeyAlgorithms []string
	CiphersClientServer     []string
	CiphersServerClient     []string
	MACsClientServer        []string
	MACsServerClient        []string
	CompressionClientServer []string
	CompressionServerClient []string
	LanguagesClientServer   []string
	LanguagesServerClient   []string
	FirstKexPacketFollows   bool
	Reserved                uint32
}

const kexInitNameLists = 10

func (m *KexInit) lists() [kexInitNameLists]*[]string {
	return [kexInitNameLists]*[]string{
		&m.KexAlgorithms,
		&m.ServerHostKeyAlgorithms,
		&m.CiphersClientServer,
		&m.CiphersServerClient,
		&m.MACsClientServer,
		&m.MACsServerClient,
		&m.CompressionClientServer,
		&m.CompressionServerClient,
		&m.LanguagesClientServer,
		&m.LanguagesServerClient,
	}
}

// NewCookie fills the cookie from rand.
func (m *KexInit) NewCookie(rand io.Reader) error {
	_, err := io.ReadFull(rand, m.Cookie[:])
	return err
}

// Validate checks every name-list. Empty lists are allowed.
func (m *KexInit) Validate() error {
	for i, l := range m.lists() {
		if err := ValidateNameList(*l); err != nil {
			return fmt.Errorf("kexinit list %d: %w", i, err)
		}
	}
	return nil
}

func (m *KexInit) Number() MessageNumber { return MessageKexInit }

func (m *KexInit) ByteCount() int {
	n := 1 + CookieSize + 1 + 4
	for _, l := range m.lists() {
		n += NameListByteCount(*l)
	}
	return n
}

func (m *KexInit) NewEncoder() Encoder { return &kexInitEncoder{msg: m} }

func (m *KexInit) NewDecoder() Decoder { return &kexInitDecoder{msg: m} }

type kexInitState uint8

const (
	kexInitNumber kexInitState = iota
	kexInitCookie
	kexInitNameList
	kexInitTail
	kexInitCompleted
)

type kexInitDecoder struct {
	msg   *KexInit
	state kexInitState
	list  int
	names NamelistDecoder
}

func (d *kexInitDecoder) Reset() {
	d.state = kexInitNumber
	d.list = 0
	d.names.Reset()
}

func (d *kexInitDecoder) Decode(r *Reader) Status {
	for {
		switch d.state {
		case kexInitNumber:
			if s := ExpectNumber(r, MessageKexInit); s != StatusDone {
				return s
			}
			d.state = kexInitCookie
		case kexInitCookie:
			b, ok := r.ReadBytes(CookieSize)
			if !ok {
				return StatusNeedMoreData
			}
			copy(d.msg.Cookie[:], b)
			for _, l := range d.msg.lists() {
				*l = nil
			}
			d.list = 0
			d.names.Reset()
			d.state = kexInitNameList
		case kexInitNameList:
			target := d.msg.lists()[d.list]
			switch d.names.Decode(target, r) {
			case NamelistLength:
				continue
			case NamelistNeedsData:
				return StatusNeedMoreData
			case NamelistNameTooBig:
				return StatusInvalidData
			}
			d.list++
			d.names.Reset()
			if d.list == kexInitNameLists {
				d.state = kexInitTail
			}
		case kexInitTail:
			b, ok := r.Peek(5)
			if !ok {
				return StatusNeedMoreData
			}
			r.Skip(5)
			d.msg.FirstKexPacketFollows = b[0] != 0
			d.msg.Reserved = uint32(b[1])<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])
			d.state = kexInitCompleted
		case kexInitCompleted:
			return StatusDone
		}
	}
}

type kexInitEncoder struct {
	msg   *KexInit
	state kexInitState
	list  int
}

func (e *kexInitEncoder) Reset() {
	e.state = kexInitNumber
	e.list = 0
}

func (e *kexInitEncoder) Encode(w *Writer) bool {
	for {
		switch e.state {
		case kexInitNumber:
			if !w.Reserve(1 + CookieSize) {
				return false
			}
			w.WriteUint8(uint8(MessageKexInit))
			w.WriteRaw(e.msg.Cookie[:])
			e.state = kexInitNameList
		case kexInitNameList:
			l := *e.msg.lists()[e.list]
			if !w.Reserve(NameListByteCount(l)) {
				return false
			}
			w.WriteNameList(l)
			e.list++
			if e.list == kexInitNameLists {
				e.state = kexInitTail
			}
		case kexInitTail:
			if !w.Reserve(5) {
				return false
			}
			w.WriteBool(e.msg.FirstKexPacketFollows)
			w.WriteUint32(e.msg.Reserved)
			e.state = kexInitCompleted
		default:
			return true
		}
	}
}
