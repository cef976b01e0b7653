package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/sshtp/sshtp/crypto"
	"github.com/TheusHen/sshtp/sshtp/kex"
	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// State is the lifecycle stage of a Peer. States only move forward.
type State int

const (
	StateIdentificationExchange State = iota
	StateKeyExchange
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdentificationExchange:
		return "identification-exchange"
	case StateKeyExchange:
		return "key-exchange"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Peer is one end of an SSH transport connection. It is driven by a single
// goroutine; Close and the State accessors may be called from any other.
type Peer struct {
	mode protocol.Mode
	conn io.ReadWriteCloser
	cfg  Config
	log  logrus.FieldLogger
	r    *bufio.Reader

	mu       sync.Mutex
	state    State
	closeErr error
	// done is closed once the stream is closed and the state is Closed.
	done chan struct{}

	local      protocol.Identification
	remote     protocol.Identification
	algorithms kex.Algorithms
	sessionID  []byte
	remoteHash string

	readSeq    uint32
	readCipher crypto.Cipher
	readMAC    crypto.MAC
	readBuf    []byte
	pending    *protocol.IncomingPacket

	writeSeq    uint32
	writeCipher crypto.Cipher
	writeMAC    crypto.MAC
	w           *protocol.Writer
	padding     [255]byte
}

// NewPeer wraps conn. A nil cfg means DefaultConfig. The peer owns conn
// from here on and closes it when the peer closes.
func NewPeer(mode protocol.Mode, conn io.ReadWriteCloser, cfg *Config) (*Peer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := cfg.withDefaults()
	if err := c.Validate(mode); err != nil {
		return nil, err
	}
	readCipher, _ := crypto.NoneCipher.New(nil, nil)
	writeCipher, _ := crypto.NoneCipher.New(nil, nil)
	readMAC, _ := crypto.NoneMAC.New(nil)
	writeMAC, _ := crypto.NoneMAC.New(nil)
	return &Peer{
		mode:        mode,
		conn:        conn,
		cfg:         c,
		log:         c.Logger.WithFields(logrus.Fields{"mode": mode.String()}),
		r:           bufio.NewReader(conn),
		readCipher:  readCipher,
		readMAC:     readMAC,
		readBuf:     make([]byte, 0, 4096),
		writeCipher: writeCipher,
		writeMAC:    writeMAC,
		w:           protocol.NewWriter(c.WriteBufferSize),
		done:        make(chan struct{}),
	}, nil
}

func (p *Peer) Mode() protocol.Mode { return p.mode }

func (p *Peer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error that closed the peer, or nil while it is usable.
func (p *Peer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeErr
}

// SessionID is the exchange hash of the first key exchange.
func (p *Peer) SessionID() []byte { return p.sessionID }

func (p *Peer) LocalIdentification() protocol.Identification { return p.local }

func (p *Peer) RemoteIdentification() protocol.Identification { return p.remote }

// Algorithms returns the negotiated algorithms once key exchange started.
func (p *Peer) Algorithms() kex.Algorithms { return p.algorithms }

// RemoteHASSH is the HASSH fingerprint of the remote KEXINIT.
func (p *Peer) RemoteHASSH() string { return p.remoteHash }

// require checks that the peer is in one of states.
func (p *Peer) require(states ...State) error {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()
	if state >= StateClosing {
		<-p.done
		return ErrPeerClosed
	}
	for _, s := range states {
		if state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidState, state)
}

// advance moves to a later state unless the peer was closed meanwhile.
func (p *Peer) advance(to State) error {
	p.mu.Lock()
	if p.state >= StateClosing {
		p.mu.Unlock()
		<-p.done
		return p.Err()
	}
	p.state = to
	p.mu.Unlock()
	return nil
}

// shutdown closes the stream with cause. It reports false if the peer was
// already closing, after waiting for that close to finish.
func (p *Peer) shutdown(cause error) bool {
	p.mu.Lock()
	if p.state >= StateClosing {
		p.mu.Unlock()
		<-p.done
		return false
	}
	p.state = StateClosing
	p.closeErr = cause
	p.mu.Unlock()

	_ = p.conn.Close()

	p.mu.Lock()
	p.state = StateClosed
	p.mu.Unlock()
	close(p.done)
	return true
}

// fatal closes the peer because of err and returns the error the caller
// should see: err itself, or the cause if the peer was closed first, for
// example by a cancelled context.
func (p *Peer) fatal(err error) error {
	if p.shutdown(err) {
		if !errors.Is(err, io.EOF) || errors.Is(err, ErrTruncatedStream) {
			p.log.WithError(err).Warn("closing peer")
		}
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeErr
}

// watch closes the peer with the context's cause once ctx is done, which
// unblocks any pending read or write.
func (p *Peer) watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		if p.shutdown(context.Cause(ctx)) {
			p.log.WithError(context.Cause(ctx)).Debug("context done, peer closed")
		}
	})
}

// Close closes the peer and its stream. Pending operations fail. It
// returns once the stream is closed, also when another goroutine got there
// first.
func (p *Peer) Close() error {
	p.shutdown(ErrPeerClosed)
	return nil
}

// Disconnect sends SSH_MSG_DISCONNECT and closes the peer.
func (p *Peer) Disconnect(ctx context.Context, reason protocol.DisconnectReason, description string) error {
	if err := p.require(StateKeyExchange, StateOpen); err != nil {
		return err
	}
	stop := p.watch(ctx)
	defer stop()
	err := p.writePacket(&protocol.Disconnect{Reason: reason, Description: description})
	p.shutdown(ErrPeerClosed)
	return err
}

// disconnected turns a received SSH_MSG_DISCONNECT into an error.
func disconnected(pkt *protocol.IncomingPacket) error {
	var m protocol.Disconnect
	if err := protocol.DecodePacket(pkt, m.NewDecoder()); err != nil {
		return fmt.Errorf("%w: disconnect: %w", ErrMalformedPacket, err)
	}
	return &DisconnectError{Reason: m.Reason, Description: m.Description}
}

// Next returns the next packet for a higher layer. Transport messages that
// need no answer (ignore, debug, unimplemented) are skipped, and a
// disconnect closes the peer with a *DisconnectError.
func (p *Peer) Next(ctx context.Context) (*protocol.IncomingPacket, error) {
	if err := p.require(StateOpen); err != nil {
		return nil, err
	}
	stop := p.watch(ctx)
	defer stop()
	for {
		pkt, err := p.readPacket()
		if err != nil {
			return nil, p.fatal(err)
		}
		num, err := pkt.Number()
		if err != nil {
			return nil, p.fatal(err)
		}
		switch num {
		case protocol.MessageIgnore, protocol.MessageDebug, protocol.MessageUnimplemented:
			p.log.WithField("message", num.String()).Debug("skipping transport message")
			continue
		case protocol.MessageDisconnect:
			return nil, p.fatal(disconnected(pkt))
		case protocol.MessageKexInit:
			return nil, p.fatal(fmt.Errorf("%w: re-exchange is not supported", ErrInvalidKexSequence))
		}
		return pkt, nil
	}
}
