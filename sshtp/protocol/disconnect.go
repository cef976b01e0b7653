package protocol

import "fmt"

// DisconnectReason is the reason code carried by SSH_MSG_DISCONNECT.
type DisconnectReason uint32

const (
	DisconnectHostNotAllowedToConnect     DisconnectReason = 1
	DisconnectProtocolError               DisconnectReason = 2
	DisconnectKeyExchangeFailed           DisconnectReason = 3
	DisconnectReserved                    DisconnectReason = 4
	DisconnectMACError                    DisconnectReason = 5
	DisconnectCompressionError            DisconnectReason = 6
	DisconnectServiceNotAvailable         DisconnectReason = 7
	DisconnectProtocolVersionNotSupported DisconnectReason = 8
	DisconnectHostKeyNotVerifiable        DisconnectReason = 9
	DisconnectConnectionLost              DisconnectReason = 10
	DisconnectByApplication               DisconnectReason = 11
	DisconnectTooManyConnections          DisconnectReason = 12
	DisconnectAuthCancelledByUser         DisconnectReason = 13
	DisconnectNoMoreAuthMethodsAvailable  DisconnectReason = 14
	DisconnectIllegalUserName             DisconnectReason = 15
)

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectHostNotAllowedToConnect:
		return "host not allowed to connect"
	case DisconnectProtocolError:
		return "protocol error"
	case DisconnectKeyExchangeFailed:
		return "key exchange failed"
	case DisconnectReserved:
		return "reserved"
	case DisconnectMACError:
		return "mac error"
	case DisconnectCompressionError:
		return "compression error"
	case DisconnectServiceNotAvailable:
		return "service not available"
	case DisconnectProtocolVersionNotSupported:
		return "protocol version not supported"
	case DisconnectHostKeyNotVerifiable:
		return "host key not verifiable"
	case DisconnectConnectionLost:
		return "connection lost"
	case DisconnectByApplication:
		return "disconnected by application"
	case DisconnectTooManyConnections:
		return "too many connections"
	case DisconnectAuthCancelledByUser:
		return "auth cancelled by user"
	case DisconnectNoMoreAuthMethodsAvailable:
		return "no more auth methods available"
	case DisconnectIllegalUserName:
		return "illegal user name"
	default:
		return fmt.Sprintf("reason %d", uint32(r))
	}
}

// Disconnect is SSH_MSG_DISCONNECT.
type Disconnect struct {
	Reason      DisconnectReason
	Description string
	Language    string
}

func (m *Disconnect) Number() MessageNumber { return MessageDisconnect }

func (m *Disconnect) ByteCount() int {
	return 1 + 4 + 4 + len(m.Description) + 4 + len(m.Language)
}

func (m *Disconnect) NewEncoder() Encoder {
	return &wholeEncoder{size: m.ByteCount(), encode: func(w *Writer) {
		w.WriteUint8(uint8(MessageDisconnect))
		w.WriteUint32(uint32(m.Reason))
		w.WriteString([]byte(m.Description))
		w.WriteString([]byte(m.Language))
	}}
}

func (m *Disconnect) NewDecoder() Decoder {
	return &wholeDecoder{decode: func(r *Reader) Status {
		if s := ExpectNumber(r, MessageDisconnect); s != StatusDone {
			return s
		}
		reason, ok := r.ReadUint32()
		if !ok {
			return StatusNeedMoreData
		}
		desc, ok := readString(r)
		if !ok {
			return StatusNeedMoreData
		}
		lang, ok := readString(r)
		if !ok {
			return StatusNeedMoreData
		}
		m.Reason, m.Description, m.Language = DisconnectReason(reason), desc, lang
		return StatusDone
	}}
}
