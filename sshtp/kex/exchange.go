package kex

import (
	"bytes"
	"context"
	stdcrypto "crypto"
	"fmt"
	"io"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/sshtp/sshtp/hostkey"
	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// method is the group specific half of an exchange. Public values are the
// bodies of the exchange value fields.
type method interface {
	generate(rand io.Reader) ([]byte, error)
	agree(peer []byte) (*big.Int, error)
}

// exchange runs the KEXDH_INIT / KEXDH_REPLY message flow shared by the
// finite field and curve25519 methods.
type exchange struct {
	name      string
	hash      stdcrypto.Hash
	newMethod func() method

	ec    *ExchangeContext
	m     method
	local []byte
	done  bool
}

func newExchange(name string, h stdcrypto.Hash, newMethod func() method) *exchange {
	return &exchange{name: name, hash: h, newMethod: newMethod}
}

func (x *exchange) Name() string         { return x.name }
func (x *exchange) Hash() stdcrypto.Hash { return x.hash }

func (x *exchange) Reset() Algorithm {
	return newExchange(x.name, x.hash, x.newMethod)
}

func (x *exchange) Start(ctx context.Context, conn Conn, ec *ExchangeContext) error {
	if x.ec != nil {
		return fmt.Errorf("%w: %s already started", ErrUnexpectedMessage, x.name)
	}
	switch ec.Mode {
	case protocol.ModeServer:
		if ec.HostKey == nil || ec.HostKey.Name() != ec.HostKeyAlgorithm {
			return fmt.Errorf("%w: no host key for %s", ErrUnsupportedAlgorithm, ec.HostKeyAlgorithm)
		}
	case protocol.ModeClient:
		if _, ok := hostkey.KeyTypeForAlgorithm(ec.HostKeyAlgorithm); !ok {
			return fmt.Errorf("%w: host key %s", ErrUnsupportedAlgorithm, ec.HostKeyAlgorithm)
		}
	}

	x.ec = ec
	x.m = x.newMethod()
	local, err := x.m.generate(ec.rand())
	if err != nil {
		return err
	}
	x.local = local

	if ec.Mode == protocol.ModeClient {
		return conn.WritePacket(ctx, &KexDHInit{Exchange: protocol.BytesBuffer(local)})
	}
	return nil
}

func (x *exchange) Process(ctx context.Context, conn Conn, pkt *protocol.IncomingPacket) (*Output, error) {
	if x.ec == nil || x.done {
		return nil, fmt.Errorf("%w: %s not in progress", ErrUnexpectedMessage, x.name)
	}
	num, err := pkt.Number()
	if err != nil {
		return nil, err
	}
	if x.ec.Mode == protocol.ModeServer {
		if num != protocol.MessageKexDHInit {
			return nil, fmt.Errorf("%w: %s, want %s", ErrUnexpectedMessage, num, protocol.MessageKexDHInit)
		}
		return x.reply(ctx, conn, pkt)
	}
	if num != protocol.MessageKexDHReply {
		return nil, fmt.Errorf("%w: %s, want %s", ErrUnexpectedMessage, num, protocol.MessageKexDHReply)
	}
	return x.verify(pkt)
}

// reply is the server half: answer KEXDH_INIT with a signed KEXDH_REPLY.
func (x *exchange) reply(ctx context.Context, conn Conn, pkt *protocol.IncomingPacket) (*Output, error) {
	var init KexDHInit
	if err := protocol.DecodePacket(pkt, init.NewDecoder()); err != nil {
		return nil, err
	}
	peer, err := init.Exchange.Bytes()
	if err != nil {
		return nil, err
	}
	k, err := x.m.agree(peer)
	if err != nil {
		return nil, err
	}

	ec := x.ec
	hostKey := ec.HostKey.PublicKey().Marshal()
	h := ComputeExchangeHash(x.hash, HashInput{
		ClientID:      ec.ClientIdentification,
		ServerID:      ec.ServerIdentification,
		ClientKexInit: ec.ClientKexInit,
		ServerKexInit: ec.ServerKexInit,
		HostKey:       hostKey,
		ClientPublic:  peer,
		ServerPublic:  x.local,
		K:             k,
	})
	sig, err := ec.HostKey.Sign(ec.rand(), h)
	if err != nil {
		return nil, fmt.Errorf("sign exchange hash: %w", err)
	}
	reply := &KexDHReply{
		HostKey:   protocol.BytesBuffer(hostKey),
		Exchange:  protocol.BytesBuffer(x.local),
		Signature: protocol.BytesBuffer(sig),
	}
	if err := conn.WritePacket(ctx, reply); err != nil {
		return nil, err
	}
	return x.finish(h, k), nil
}

// verify is the client half: check the server host key and its signature
// over the exchange hash.
func (x *exchange) verify(pkt *protocol.IncomingPacket) (*Output, error) {
	var reply KexDHReply
	if err := protocol.DecodePacket(pkt, reply.NewDecoder()); err != nil {
		return nil, err
	}
	ec := x.ec

	blob, err := reply.HostKey.Bytes()
	if err != nil {
		return nil, err
	}
	pub, err := hostkey.ParsePublicKey(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostKeyVerification, err)
	}
	if want, _ := hostkey.KeyTypeForAlgorithm(ec.HostKeyAlgorithm); pub.Type() != want {
		return nil, fmt.Errorf("%w: %s key for %s", ErrHostKeyVerification, pub.Type(), ec.HostKeyAlgorithm)
	}
	if ec.HostKeyCallback == nil {
		return nil, fmt.Errorf("%w: no host key callback", ErrHostKeyVerification)
	}
	if err := ec.HostKeyCallback(pub); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostKeyVerification, err)
	}

	peer, err := reply.Exchange.Bytes()
	if err != nil {
		return nil, err
	}
	k, err := x.m.agree(peer)
	if err != nil {
		return nil, err
	}
	h := ComputeExchangeHash(x.hash, HashInput{
		ClientID:      ec.ClientIdentification,
		ServerID:      ec.ServerIdentification,
		ClientKexInit: ec.ClientKexInit,
		ServerKexInit: ec.ServerKexInit,
		HostKey:       blob,
		ClientPublic:  x.local,
		ServerPublic:  peer,
		K:             k,
	})
	sig, err := reply.Signature.Bytes()
	if err != nil {
		return nil, err
	}
	if err := pub.Verify(ec.HostKeyAlgorithm, h, sig); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostKeyVerification, err)
	}
	ec.logger().WithFields(logrus.Fields{
		"kex":         x.name,
		"host_key":    ec.HostKeyAlgorithm,
		"fingerprint": hostkey.Fingerprint(pub),
	}).Debug("server host key verified")
	return x.finish(h, k), nil
}

func (x *exchange) finish(h []byte, k *big.Int) *Output {
	x.done = true
	sessionID := x.ec.SessionID
	if len(sessionID) == 0 {
		sessionID = h
	}
	return &Output{
		ExchangeHash: h,
		SessionID:    bytes.Clone(sessionID),
		SharedSecret: k,
		Hash:         x.hash,
	}
}
