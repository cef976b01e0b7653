package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/sshtp/sshtp/crypto"
	"github.com/TheusHen/sshtp/sshtp/hostkey"
	"github.com/TheusHen/sshtp/sshtp/kex"
	"github.com/TheusHen/sshtp/sshtp/protocol"
)

const (
	DefaultMaximumPacketSize       = 131072
	DefaultIdentificationTimeout   = 5 * time.Second
	DefaultIdentificationScanLimit = 8192
	DefaultWriteBufferSize         = 32 * 1024
	DefaultSoftwareVersion         = "sshtp_0.1"

	// MinimumPacketSize is the smallest maximum packet size a peer may
	// configure: every implementation must accept 35000 byte packets.
	MinimumPacketSize = 35000
)

var ErrInvalidConfig = errors.New("session: invalid config")

// Config configures a Peer. A Peer copies its Config and never modifies
// the registries or signers it refers to, so one Config may be shared by
// many peers.
type Config struct {
	// MaximumPacketSize bounds packet_length+4 of received packets.
	MaximumPacketSize uint32
	// IdentificationTimeout bounds the identification exchange. Zero
	// disables the timeout.
	IdentificationTimeout time.Duration
	// IdentificationScanLimit bounds the bytes read while looking for the
	// remote identification line, preamble lines included.
	IdentificationScanLimit int
	// WriteBufferSize is the segment size used to stage outgoing packets.
	WriteBufferSize int

	SoftwareVersion string
	Comments        string

	KeyExchanges *crypto.Registry[kex.Algorithm]
	Ciphers      *crypto.Registry[crypto.CipherAlgorithm]
	MACs         *crypto.Registry[crypto.MACAlgorithm]

	// HostKeyAlgorithms is the host key preference of a client. A server
	// offers the algorithms of its HostKeys instead.
	HostKeyAlgorithms []string
	// HostKeys are the server host keys, one signer per algorithm.
	HostKeys []hostkey.Signer
	// HostKeyCallback is required by clients.
	HostKeyCallback hostkey.Callback

	Rand   io.Reader
	Logger logrus.FieldLogger
}

// DefaultConfig returns a Config with every default filled in. Callers
// still have to supply HostKeys (server) or HostKeyCallback (client).
func DefaultConfig() *Config {
	return &Config{
		MaximumPacketSize:       DefaultMaximumPacketSize,
		IdentificationTimeout:   DefaultIdentificationTimeout,
		IdentificationScanLimit: DefaultIdentificationScanLimit,
		WriteBufferSize:         DefaultWriteBufferSize,
		SoftwareVersion:         DefaultSoftwareVersion,
		KeyExchanges:            kex.DefaultKeyExchanges(),
		Ciphers:                 crypto.DefaultCiphers(),
		MACs:                    crypto.DefaultMACs(),
		HostKeyAlgorithms: []string{
			hostkey.AlgorithmEd25519,
			hostkey.AlgorithmRSASHA512,
			hostkey.AlgorithmRSASHA256,
			hostkey.AlgorithmRSASHA1,
		},
		Rand:   rand.Reader,
		Logger: logrus.StandardLogger(),
	}
}

// withDefaults returns a copy of c where unset fields take their defaults.
func (c *Config) withDefaults() Config {
	d := DefaultConfig()
	out := *c
	if out.MaximumPacketSize == 0 {
		out.MaximumPacketSize = d.MaximumPacketSize
	}
	if out.IdentificationScanLimit == 0 {
		out.IdentificationScanLimit = d.IdentificationScanLimit
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.SoftwareVersion == "" {
		out.SoftwareVersion = d.SoftwareVersion
	}
	if out.KeyExchanges == nil {
		out.KeyExchanges = d.KeyExchanges
	}
	if out.Ciphers == nil {
		out.Ciphers = d.Ciphers
	}
	if out.MACs == nil {
		out.MACs = d.MACs
	}
	if out.HostKeyAlgorithms == nil {
		out.HostKeyAlgorithms = d.HostKeyAlgorithms
	}
	if out.Rand == nil {
		out.Rand = d.Rand
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	out.HostKeys = append([]hostkey.Signer(nil), c.HostKeys...)
	out.HostKeyAlgorithms = append([]string(nil), out.HostKeyAlgorithms...)
	return out
}

// Validate checks that c can run a peer in mode.
func (c *Config) Validate(mode protocol.Mode) error {
	if c.MaximumPacketSize < MinimumPacketSize {
		return fmt.Errorf("%w: maximum packet size %d is below %d", ErrInvalidConfig, c.MaximumPacketSize, MinimumPacketSize)
	}
	if c.IdentificationScanLimit < protocol.MaxIdentificationLength {
		return fmt.Errorf("%w: identification scan limit %d is below %d", ErrInvalidConfig, c.IdentificationScanLimit, protocol.MaxIdentificationLength)
	}
	if c.WriteBufferSize <= 0 {
		return fmt.Errorf("%w: write buffer size must be positive", ErrInvalidConfig)
	}
	if c.KeyExchanges == nil || c.KeyExchanges.Len() == 0 {
		return fmt.Errorf("%w: no key exchange algorithms", ErrInvalidConfig)
	}
	if c.Ciphers == nil || c.Ciphers.Len() == 0 {
		return fmt.Errorf("%w: no ciphers", ErrInvalidConfig)
	}
	if c.MACs == nil || c.MACs.Len() == 0 {
		return fmt.Errorf("%w: no MACs", ErrInvalidConfig)
	}
	switch mode {
	case protocol.ModeServer:
		if len(c.HostKeys) == 0 {
			return fmt.Errorf("%w: server needs at least one host key", ErrInvalidConfig)
		}
	case protocol.ModeClient:
		if c.HostKeyCallback == nil {
			return fmt.Errorf("%w: client needs a host key callback", ErrInvalidConfig)
		}
		if len(c.HostKeyAlgorithms) == 0 {
			return fmt.Errorf("%w: no host key algorithms", ErrInvalidConfig)
		}
	}
	if _, err := c.Identification().Line(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Identification is the local identification line.
func (c *Config) Identification() protocol.Identification {
	return protocol.Identification{
		ProtocolVersion: protocol.ProtocolVersion,
		SoftwareVersion: c.SoftwareVersion,
		Comments:        c.Comments,
	}
}

// hostKeyAlgorithms lists what this side offers in KEXINIT.
func (c *Config) hostKeyAlgorithms(mode protocol.Mode) []string {
	if mode == protocol.ModeClient {
		return c.HostKeyAlgorithms
	}
	names := make([]string, 0, len(c.HostKeys))
	for _, s := range c.HostKeys {
		names = append(names, s.Name())
	}
	return names
}

func (c *Config) hostKey(algorithm string) hostkey.Signer {
	for _, s := range c.HostKeys {
		if s.Name() == algorithm {
			return s
		}
	}
	return nil
}
