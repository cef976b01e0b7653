package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

var (
	ErrMalformedIdentification    = protocol.ErrMalformedIdentification
	ErrProtocolVersionUnsupported = errors.New("session: protocol version not supported")
	ErrIdentificationTimeout      = errors.New("session: identification exchange timed out")
	ErrOversizedPacket            = errors.New("session: packet exceeds maximum packet size")
	ErrMalformedPacket            = errors.New("session: malformed packet")
	ErrMACMismatch                = errors.New("session: MAC verification failed")
	ErrInvalidKexSequence         = errors.New("session: invalid key exchange sequence")
	ErrInvalidState               = errors.New("session: operation not valid in current state")
	ErrPeerClosed                 = errors.New("session: peer closed")

	// ErrTruncatedStream reports a stream that ended inside a packet or an
	// identification line. It matches io.EOF.
	ErrTruncatedStream = fmt.Errorf("session: stream truncated: %w", io.EOF)
)

// DisconnectError is returned when the remote peer sends SSH_MSG_DISCONNECT.
type DisconnectError struct {
	Reason      protocol.DisconnectReason
	Description string
}

func (e *DisconnectError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("session: disconnected by peer: %s", e.Reason)
	}
	return fmt.Sprintf("session: disconnected by peer: %s: %s", e.Reason, e.Description)
}
