package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// ExchangeIdentification sends the local identification line and reads the
// remote one. Lines before the remote identification that do not start
// with "SSH-" are skipped. The exchange is bounded by
// Config.IdentificationTimeout; when it expires the peer is closed with
// ErrIdentificationTimeout.
func (p *Peer) ExchangeIdentification(ctx context.Context, local protocol.Identification) (protocol.Identification, error) {
	if err := p.require(StateIdentificationExchange); err != nil {
		return protocol.Identification{}, err
	}
	line, err := local.Line()
	if err != nil {
		return protocol.Identification{}, err
	}

	if p.cfg.IdentificationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.cfg.IdentificationTimeout, ErrIdentificationTimeout)
		defer cancel()
	}
	stop := p.watch(ctx)
	defer stop()

	if _, err := p.conn.Write(line); err != nil {
		return protocol.Identification{}, p.fatal(err)
	}
	remote, err := p.readIdentification()
	if err != nil {
		return protocol.Identification{}, p.fatal(err)
	}
	if remote.ProtocolVersion != protocol.ProtocolVersion {
		return protocol.Identification{}, p.fatal(fmt.Errorf("%w: %q", ErrProtocolVersionUnsupported, remote.ProtocolVersion))
	}

	p.local, p.remote = local, remote
	if err := p.advance(StateKeyExchange); err != nil {
		return protocol.Identification{}, err
	}
	p.log.WithFields(logrus.Fields{
		"local":  local.String(),
		"remote": remote.String(),
	}).Info("identification exchanged")
	return remote, nil
}

// readIdentification reads lines from the same buffered reader packets are
// read from, so bytes following the identification line are kept.
func (p *Peer) readIdentification() (protocol.Identification, error) {
	scanned := 0
	line := make([]byte, 0, protocol.MaxIdentificationLength)
	for {
		line = line[:0]
		for {
			b, err := p.r.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) {
					if scanned == 0 {
						return protocol.Identification{}, io.EOF
					}
					return protocol.Identification{}, ErrTruncatedStream
				}
				return protocol.Identification{}, err
			}
			scanned++
			if scanned > p.cfg.IdentificationScanLimit {
				return protocol.Identification{}, fmt.Errorf("%w: no identification within %d bytes", ErrMalformedIdentification, p.cfg.IdentificationScanLimit)
			}
			line = append(line, b)
			if b == '\n' {
				break
			}
			if len(line) >= protocol.MaxIdentificationLength {
				return protocol.Identification{}, fmt.Errorf("%w: line longer than %d bytes", ErrMalformedIdentification, protocol.MaxIdentificationLength)
			}
		}

		if !bytes.HasPrefix(line, []byte("SSH-")) {
			p.log.WithField("line", string(bytes.TrimRight(line, "\r\n"))).Debug("skipping preamble line")
			continue
		}
		body, ok := bytes.CutSuffix(line, []byte("\r\n"))
		if !ok {
			return protocol.Identification{}, fmt.Errorf("%w: line not terminated by CRLF", ErrMalformedIdentification)
		}
		return protocol.ParseIdentification(body)
	}
}
