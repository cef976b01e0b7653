package kex

import (
	"context"
	stdcrypto "crypto"
	"crypto/rand"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/sshtp/sshtp/crypto"
	"github.com/TheusHen/sshtp/sshtp/hostkey"
	"github.com/TheusHen/sshtp/sshtp/protocol"
)

var (
	ErrWeakExchangeValue    = errors.New("kex: weak or invalid exchange value")
	ErrNoCommonAlgorithm    = errors.New("kex: no common algorithm")
	ErrHostKeyVerification  = errors.New("kex: host key verification failed")
	ErrUnexpectedMessage    = errors.New("kex: unexpected message")
	ErrUnsupportedAlgorithm = errors.New("kex: unsupported algorithm")
)

// Conn is the packet sink a key exchange writes to.
type Conn interface {
	WritePacket(ctx context.Context, m protocol.Message) error
}

// ExchangeContext is everything one key exchange round needs to know about
// the connection. It is built by the peer after both KEXINITs are known.
type ExchangeContext struct {
	Mode protocol.Mode

	// ClientIdentification and ServerIdentification are V_C and V_S,
	// without the trailing CRLF.
	ClientIdentification string
	ServerIdentification string

	// ClientKexInit and ServerKexInit are I_C and I_S: the exact KEXINIT
	// payloads as sent on the wire.
	ClientKexInit []byte
	ServerKexInit []byte

	HostKeyAlgorithm string
	// HostKey signs the exchange hash. Server only.
	HostKey hostkey.Signer
	// HostKeyCallback decides whether to trust the server. Client only.
	HostKeyCallback hostkey.Callback

	// SessionID is the exchange hash of the first key exchange on this
	// connection, or nil during that first exchange.
	SessionID []byte

	Rand   io.Reader
	Logger logrus.FieldLogger
}

func (ec *ExchangeContext) rand() io.Reader {
	if ec.Rand == nil {
		return rand.Reader
	}
	return ec.Rand
}

func (ec *ExchangeContext) logger() logrus.FieldLogger {
	if ec.Logger == nil {
		return logrus.StandardLogger()
	}
	return ec.Logger
}

// Algorithm is a key exchange method. A registered Algorithm is a
// prototype: Reset returns a fresh instance for one exchange round.
//
// Start is called once both KEXINITs are known. Process is then called for
// every packet with a message number in the key exchange range until it
// returns a non-nil Output.
type Algorithm interface {
	Name() string
	Hash() stdcrypto.Hash
	Reset() Algorithm
	Start(ctx context.Context, conn Conn, ec *ExchangeContext) error
	Process(ctx context.Context, conn Conn, pkt *protocol.IncomingPacket) (*Output, error)
}

const (
	NameCurve25519SHA256 = "curve25519-sha256"
	NameDHGroup14SHA256  = "diffie-hellman-group14-sha256"
	NameDHGroup14SHA1    = "diffie-hellman-group14-sha1"
)

// DefaultKeyExchanges returns the key exchange methods in preference order.
func DefaultKeyExchanges() *crypto.Registry[Algorithm] {
	return crypto.NewRegistry(Curve25519SHA256(), DHGroup14SHA256(), DHGroup14SHA1())
}
