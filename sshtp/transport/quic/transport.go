// Package quic carries an SSH transport over a single bidirectional QUIC
// stream per connection.
package quic

import (
	"context"
	"errors"
	"net"
	"time"

	q "github.com/quic-go/quic-go"
)

// DefaultIdleTimeout closes QUIC connections that stay silent this long.
const DefaultIdleTimeout = 60 * time.Second

const closeGrace = 250 * time.Millisecond

func quicConfig() *q.Config {
	return &q.Config{
		MaxIdleTimeout:  DefaultIdleTimeout,
		KeepAlivePeriod: DefaultIdleTimeout / 3,
	}
}

// Stream is the byte stream an SSH peer runs over. Closing it closes the
// QUIC connection it belongs to.
type Stream struct {
	q.Stream
	conn q.Connection
}

func (s *Stream) LocalAddr() net.Addr  { return s.conn.LocalAddr() }
func (s *Stream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// Close ends both directions of the stream, then closes the connection
// once the remote has closed it or closeGrace has passed, whichever is
// first. Data written before Close gets that long to be delivered.
func (s *Stream) Close() error {
	err := s.Stream.Close()
	s.Stream.CancelRead(0)
	t := time.NewTimer(closeGrace)
	defer t.Stop()
	select {
	case <-s.conn.Context().Done():
	case <-t.C:
	}
	return errors.Join(err, s.conn.CloseWithError(0, ""))
}

type Listener struct {
	inner *q.Listener
}

func Listen(addr string) (*Listener, error) {
	tlsConf, err := newTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, quicConfig())
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

// Accept waits for the next QUIC connection.
func (l *Listener) Accept(ctx context.Context) (q.Connection, error) {
	return l.inner.Accept(ctx)
}

// AcceptStream waits for a connection and its first stream. The stream
// only shows up once the dialer has written to it.
func (l *Listener) AcceptStream(ctx context.Context) (*Stream, error) {
	conn, err := l.Accept(ctx)
	if err != nil {
		return nil, err
	}
	st, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return nil, err
	}
	return &Stream{Stream: st, conn: conn}, nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) Close() error { return l.inner.Close() }

func Dial(ctx context.Context, addr string) (q.Connection, error) {
	tlsConf, err := newTLSConfig()
	if err != nil {
		return nil, err
	}
	return q.DialAddr(ctx, addr, tlsConf, quicConfig())
}

// DialStream connects to addr and opens the stream the SSH transport
// runs on.
func DialStream(ctx context.Context, addr string) (*Stream, error) {
	conn, err := Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	st, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return nil, err
	}
	return &Stream{Stream: st, conn: conn}, nil
}
