package session

import (
	"context"
	"io"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// HandshakeClient runs the client side of the transport handshake over
// conn and returns an open peer. On failure conn is closed.
func HandshakeClient(ctx context.Context, conn io.ReadWriteCloser, cfg *Config) (*Peer, error) {
	return handshake(ctx, protocol.ModeClient, conn, cfg)
}

// HandshakeServer runs the server side of the transport handshake over
// conn and returns an open peer. On failure conn is closed.
func HandshakeServer(ctx context.Context, conn io.ReadWriteCloser, cfg *Config) (*Peer, error) {
	return handshake(ctx, protocol.ModeServer, conn, cfg)
}

func handshake(ctx context.Context, mode protocol.Mode, conn io.ReadWriteCloser, cfg *Config) (*Peer, error) {
	p, err := NewPeer(mode, conn, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := p.ExchangeIdentification(ctx, p.cfg.Identification()); err != nil {
		p.Close()
		return nil, err
	}
	if _, err := p.ExchangeKeys(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
