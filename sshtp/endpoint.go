package sshtp

import (
	"context"
	"errors"
	"net/http"

	"github.com/TheusHen/sshtp/sshtp/session"
	"github.com/TheusHen/sshtp/sshtp/transport/quic"
	"github.com/TheusHen/sshtp/sshtp/transport/websocket"
)

var ErrNotListening = errors.New("sshtp: endpoint is not listening")

// Endpoint accepts and dials SSH transports over QUIC. One Config serves
// both roles: HostKeys for accepted peers, HostKeyCallback for dialed ones.
type Endpoint struct {
	Config   *session.Config
	listener *quic.Listener
}

func NewEndpoint(cfg *session.Config) *Endpoint {
	if cfg == nil {
		cfg = session.DefaultConfig()
	}
	return &Endpoint{Config: cfg}
}

func (e *Endpoint) Listen(addr string) error {
	ln, err := quic.Listen(addr)
	if err != nil {
		return err
	}
	e.listener = ln
	return nil
}

func (e *Endpoint) Close() error {
	if e.listener == nil {
		return nil
	}
	return e.listener.Close()
}

func (e *Endpoint) ListenAddr() string {
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Accept waits for the next connection and runs the server handshake on it.
func (e *Endpoint) Accept(ctx context.Context) (*session.Peer, error) {
	if e.listener == nil {
		return nil, ErrNotListening
	}
	st, err := e.listener.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return session.HandshakeServer(ctx, st, e.Config)
}

// Dial connects to addr and runs the client handshake.
func (e *Endpoint) Dial(ctx context.Context, addr string) (*session.Peer, error) {
	st, err := quic.DialStream(ctx, addr)
	if err != nil {
		return nil, err
	}
	return session.HandshakeClient(ctx, st, e.Config)
}

// DialWebSocket runs the client handshake over a WebSocket at url.
func (e *Endpoint) DialWebSocket(ctx context.Context, url string) (*session.Peer, error) {
	conn, err := websocket.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return session.HandshakeClient(ctx, conn, e.Config)
}

// UpgradeWebSocket upgrades an HTTP request and runs the server handshake.
func (e *Endpoint) UpgradeWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session.Peer, error) {
	conn, err := websocket.Upgrade(w, r)
	if err != nil {
		return nil, err
	}
	return session.HandshakeServer(ctx, conn, e.Config)
}
