package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/sshtp/sshtp/kex"
	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// ExchangeKeys runs the first key exchange: KEXINIT in both directions,
// the negotiated key exchange method, then NEWKEYS in both directions.
// Outgoing keys are installed after sending NEWKEYS and incoming keys after
// receiving it, after which the peer is open.
func (p *Peer) ExchangeKeys(ctx context.Context) (*kex.Output, error) {
	if err := p.require(StateKeyExchange); err != nil {
		return nil, err
	}
	stop := p.watch(ctx)
	defer stop()
	out, err := p.exchangeKeys(ctx)
	if err != nil {
		return nil, p.fatal(err)
	}
	if err := p.advance(StateOpen); err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"kex":      p.algorithms.KeyExchange,
		"host_key": p.algorithms.HostKey,
		"cipher":   p.algorithms.Cipher(p.outgoing()),
		"mac":      p.algorithms.MAC(p.outgoing()),
	}).Info("key exchange complete")
	return out, nil
}

func (p *Peer) outgoing() kex.Direction {
	if p.mode == protocol.ModeClient {
		return kex.ClientToServer
	}
	return kex.ServerToClient
}

func (p *Peer) incoming() kex.Direction {
	if p.mode == protocol.ModeClient {
		return kex.ServerToClient
	}
	return kex.ClientToServer
}

func (p *Peer) newKexInit() (*protocol.KexInit, error) {
	ciphers, macs := p.cfg.Ciphers.Names(), p.cfg.MACs.Names()
	m := &protocol.KexInit{
		KexAlgorithms:           p.cfg.KeyExchanges.Names(),
		ServerHostKeyAlgorithms: p.cfg.hostKeyAlgorithms(p.mode),
		CiphersClientServer:     ciphers,
		CiphersServerClient:     ciphers,
		MACsClientServer:        macs,
		MACsServerClient:        macs,
		CompressionClientServer: []string{kex.CompressionNone},
		CompressionServerClient: []string{kex.CompressionNone},
	}
	if err := m.NewCookie(p.cfg.Rand); err != nil {
		return nil, fmt.Errorf("kexinit cookie: %w", err)
	}
	return m, m.Validate()
}

func (p *Peer) exchangeKeys(ctx context.Context) (*kex.Output, error) {
	localInit, err := p.newKexInit()
	if err != nil {
		return nil, err
	}
	localPayload := protocol.Marshal(localInit)
	if err := p.writePacket(localInit); err != nil {
		return nil, err
	}

	var (
		alg       kex.Algorithm
		skipGuess bool
		out       *kex.Output
	)
	for out == nil {
		pkt, err := p.readPacket()
		if err != nil {
			return nil, err
		}
		num, err := pkt.Number()
		if err != nil {
			return nil, err
		}
		switch {
		case num == protocol.MessageKexInit:
			if alg != nil {
				return nil, fmt.Errorf("%w: second KEXINIT", ErrInvalidKexSequence)
			}
			alg, skipGuess, err = p.startExchange(ctx, pkt, localInit, localPayload)
			if err != nil {
				return nil, err
			}
		case num.IsKexAlgorithm():
			if alg == nil {
				return nil, fmt.Errorf("%w: %s before KEXINIT", ErrInvalidKexSequence, num)
			}
			if skipGuess {
				skipGuess = false
				p.log.WithField("message", num.String()).Debug("discarding wrongly guessed key exchange packet")
				continue
			}
			if out, err = alg.Process(ctx, p, pkt); err != nil {
				if errors.Is(err, kex.ErrUnexpectedMessage) {
					return nil, fmt.Errorf("%w: %w", ErrInvalidKexSequence, err)
				}
				return nil, err
			}
		case num == protocol.MessageIgnore, num == protocol.MessageDebug, num == protocol.MessageUnimplemented:
			continue
		case num == protocol.MessageDisconnect:
			return nil, disconnected(pkt)
		case num == protocol.MessageNewKeys:
			return nil, fmt.Errorf("%w: NEWKEYS before the exchange completed", ErrInvalidKexSequence)
		default:
			return nil, fmt.Errorf("%w: %s during key exchange", ErrInvalidKexSequence, num)
		}
	}

	if err := p.writePacket(&protocol.NewKeys{}); err != nil {
		return nil, err
	}
	if err := p.installKeys(out, p.outgoing()); err != nil {
		return nil, err
	}

	pkt, err := p.readPacket()
	if err != nil {
		return nil, err
	}
	num, err := pkt.Number()
	if err != nil {
		return nil, err
	}
	switch num {
	case protocol.MessageNewKeys:
	case protocol.MessageDisconnect:
		return nil, disconnected(pkt)
	default:
		return nil, fmt.Errorf("%w: %s instead of NEWKEYS", ErrInvalidKexSequence, num)
	}
	if err := p.installKeys(out, p.incoming()); err != nil {
		return nil, err
	}
	p.sessionID = out.SessionID
	return out, nil
}

// startExchange handles the remote KEXINIT: negotiate, then start the
// chosen key exchange method. It reports whether the next key exchange
// packet is a wrong guess to be discarded.
func (p *Peer) startExchange(ctx context.Context, pkt *protocol.IncomingPacket, localInit *protocol.KexInit, localPayload []byte) (kex.Algorithm, bool, error) {
	var remoteInit protocol.KexInit
	if err := protocol.DecodePacket(pkt, remoteInit.NewDecoder()); err != nil {
		return nil, false, fmt.Errorf("%w: kexinit: %w", ErrMalformedPacket, err)
	}
	owned, err := pkt.ToMemoryPacket()
	if err != nil {
		return nil, false, err
	}
	remotePayload := owned.Payload

	clientInit, serverInit := localInit, &remoteInit
	clientPayload, serverPayload := localPayload, remotePayload
	clientID, serverID := p.local.String(), p.remote.String()
	remoteMode := protocol.ModeServer
	if p.mode == protocol.ModeServer {
		clientInit, serverInit = serverInit, clientInit
		clientPayload, serverPayload = serverPayload, clientPayload
		clientID, serverID = serverID, clientID
		remoteMode = protocol.ModeClient
	}
	p.remoteHash = kex.HASSH(&remoteInit, remoteMode)

	algs, err := kex.Negotiate(clientInit, serverInit)
	if err != nil {
		return nil, false, err
	}
	p.algorithms = algs
	proto, ok := p.cfg.KeyExchanges.Lookup(algs.KeyExchange)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", kex.ErrUnsupportedAlgorithm, algs.KeyExchange)
	}
	p.log.WithFields(logrus.Fields{
		"kex":          algs.KeyExchange,
		"host_key":     algs.HostKey,
		"remote_hassh": p.remoteHash,
	}).Debug("algorithms negotiated")

	ec := &kex.ExchangeContext{
		Mode:                 p.mode,
		ClientIdentification: clientID,
		ServerIdentification: serverID,
		ClientKexInit:        clientPayload,
		ServerKexInit:        serverPayload,
		HostKeyAlgorithm:     algs.HostKey,
		SessionID:            bytes.Clone(p.sessionID),
		Rand:                 p.cfg.Rand,
		Logger:               p.log,
	}
	if p.mode == protocol.ModeServer {
		ec.HostKey = p.cfg.hostKey(algs.HostKey)
	} else {
		ec.HostKeyCallback = p.cfg.HostKeyCallback
	}

	alg := proto.Reset()
	if err := alg.Start(ctx, p, ec); err != nil {
		return nil, false, err
	}
	skip := remoteInit.FirstKexPacketFollows && !kex.GuessMatches(clientInit, serverInit)
	return alg, skip, nil
}

// installKeys switches one direction to the negotiated cipher and MAC.
func (p *Peer) installKeys(out *kex.Output, d kex.Direction) error {
	cipherAlg, ok := p.cfg.Ciphers.Lookup(p.algorithms.Cipher(d))
	if !ok {
		return fmt.Errorf("%w: cipher %s", kex.ErrUnsupportedAlgorithm, p.algorithms.Cipher(d))
	}
	macAlg, ok := p.cfg.MACs.Lookup(p.algorithms.MAC(d))
	if !ok {
		return fmt.Errorf("%w: MAC %s", kex.ErrUnsupportedAlgorithm, p.algorithms.MAC(d))
	}
	c, err := cipherAlg.New(
		out.DeriveBytes(cipherAlg.KeySize(), d, kex.PurposeKey),
		out.DeriveBytes(cipherAlg.IVSize(), d, kex.PurposeIV),
	)
	if err != nil {
		return err
	}
	m, err := macAlg.New(out.DeriveBytes(macAlg.KeySize(), d, kex.PurposeIntegrity))
	if err != nil {
		return err
	}
	if d == p.outgoing() {
		p.writeCipher, p.writeMAC = c, m
	} else {
		p.readCipher, p.readMAC = c, m
	}
	return nil
}
