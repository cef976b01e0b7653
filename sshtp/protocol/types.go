package protocol

import "fmt"

// MessageNumber is the first byte of every packet payload.
type MessageNumber uint8

const (
	MessageDisconnect     MessageNumber = 1
	MessageIgnore         MessageNumber = 2
	MessageUnimplemented  MessageNumber = 3
	MessageDebug          MessageNumber = 4
	MessageServiceRequest MessageNumber = 5
	MessageServiceAccept  MessageNumber = 6
	MessageKexInit        MessageNumber = 20
	MessageNewKeys        MessageNumber = 21
	MessageKexDHInit      MessageNumber = 30
	MessageKexDHReply     MessageNumber = 31
)

// Message numbers 30 to 49 belong to the negotiated key exchange method.
const (
	firstKexAlgorithmMessage MessageNumber = 30
	lastKexAlgorithmMessage  MessageNumber = 49
)

// IsKexAlgorithm reports whether n is reserved for the key exchange method.
func (n MessageNumber) IsKexAlgorithm() bool {
	return n >= firstKexAlgorithmMessage && n <= lastKexAlgorithmMessage
}

func (n MessageNumber) String() string {
	switch n {
	case MessageDisconnect:
		return "DISCONNECT"
	case MessageIgnore:
		return "IGNORE"
	case MessageUnimplemented:
		return "UNIMPLEMENTED"
	case MessageDebug:
		return "DEBUG"
	case MessageServiceRequest:
		return "SERVICE_REQUEST"
	case MessageServiceAccept:
		return "SERVICE_ACCEPT"
	case MessageKexInit:
		return "KEXINIT"
	case MessageNewKeys:
		return "NEWKEYS"
	case MessageKexDHInit:
		return "KEXDH_INIT"
	case MessageKexDHReply:
		return "KEXDH_REPLY"
	default:
		return fmt.Sprintf("MESSAGE_%d", uint8(n))
	}
}

// Mode is the side of the connection a peer plays.
type Mode int

const (
	ModeClient Mode = iota
	ModeServer
)

func (m Mode) String() string {
	switch m {
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	default:
		return "unknown"
	}
}
