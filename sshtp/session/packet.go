package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// minPadding is the smallest padding a packet may carry.
const minPadding = 4

// ReadPacket reads, decrypts and verifies the next packet. The returned
// packet and any buffer borrowed from it stay valid until the next read.
// A stream that ends cleanly between packets yields io.EOF.
func (p *Peer) ReadPacket(ctx context.Context) (*protocol.IncomingPacket, error) {
	if err := p.require(StateKeyExchange, StateOpen); err != nil {
		return nil, err
	}
	stop := p.watch(ctx)
	defer stop()
	pkt, err := p.readPacket()
	if err != nil {
		return nil, p.fatal(err)
	}
	return pkt, nil
}

// WritePacket encodes, pads, encrypts and authenticates m.
func (p *Peer) WritePacket(ctx context.Context, m protocol.Message) error {
	if err := p.require(StateKeyExchange, StateOpen); err != nil {
		return err
	}
	stop := p.watch(ctx)
	defer stop()
	if err := p.writePacket(m); err != nil {
		return p.fatal(err)
	}
	return nil
}

func (p *Peer) readPacket() (*protocol.IncomingPacket, error) {
	if p.pending != nil {
		p.pending.Advance()
		p.pending = nil
	}

	first := max(protocol.PacketHeaderSize, p.readCipher.BlockSize())
	buf := p.readBuf[:first]
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return nil, streamError(err)
	}
	if err := p.decrypt(buf); err != nil {
		return nil, err
	}
	header, _ := protocol.ParsePacketHeader(buf)

	// Nothing beyond the first block is buffered before the size check.
	total := uint64(header.Length) + 4
	if total > uint64(p.cfg.MaximumPacketSize) {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrOversizedPacket, total, p.cfg.MaximumPacketSize)
	}
	align := uint64(max(8, p.readCipher.BlockSize()))
	switch {
	case total < uint64(first):
		return nil, fmt.Errorf("%w: packet length %d", ErrMalformedPacket, header.Length)
	case total%align != 0:
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformedPacket, total, align)
	case header.PaddingLength < minPadding:
		return nil, fmt.Errorf("%w: padding %d below %d", ErrMalformedPacket, header.PaddingLength, minPadding)
	case header.PayloadLength() < 1:
		return nil, fmt.Errorf("%w: padding %d leaves no payload", ErrMalformedPacket, header.PaddingLength)
	}

	macSize := p.readMAC.Size()
	size := int(total) + macSize
	if cap(p.readBuf) < size {
		grown := make([]byte, size)
		copy(grown, buf)
		p.readBuf = grown[:0]
	}
	buf = p.readBuf[:size]
	if _, err := io.ReadFull(p.r, buf[first:]); err != nil {
		return nil, truncated(err)
	}
	if err := p.decrypt(buf[first:total]); err != nil {
		return nil, err
	}

	seq := p.readSeq
	p.readMAC.Reset(seq)
	p.readMAC.Write(buf[:total])
	if !p.readMAC.Verify(buf[total:]) {
		return nil, fmt.Errorf("%w: packet %d", ErrMACMismatch, seq)
	}
	p.readSeq++

	payload := buf[protocol.PacketHeaderSize : protocol.PacketHeaderSize+header.PayloadLength()]
	pkt := protocol.NewIncomingPacket(header, seq, payload)
	p.pending = pkt
	p.log.WithFields(logrus.Fields{
		"seq":     seq,
		"message": protocol.MessageNumber(payload[0]).String(),
		"length":  len(payload),
	}).Debug("read packet")
	return pkt, nil
}

// decrypt decrypts whole blocks of b in place.
func (p *Peer) decrypt(b []byte) error {
	n, err := p.readCipher.Decrypt(b, b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("%w: %d bytes not block aligned", ErrMalformedPacket, len(b))
	}
	return nil
}

// streamError maps a failed read at a packet boundary: a clean end of
// stream is io.EOF, a partial header is a truncation.
func streamError(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedStream
	}
	return err
}

// truncated maps a failed read inside a packet.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedStream
	}
	return err
}

// paddingLength returns the padding for a payload of n bytes so that the
// whole packet, length field included, is a multiple of
// max(8, blockSize), with at least four bytes of padding.
func paddingLength(n, blockSize int) int {
	align := max(8, blockSize)
	padding := align - (protocol.PacketHeaderSize+n)%align
	if padding < minPadding {
		padding += align
	}
	return padding
}

func (p *Peer) writePacket(m protocol.Message) error {
	n := m.ByteCount()
	padding := paddingLength(n, p.writeCipher.BlockSize())
	header := protocol.PacketHeader{
		Length:        uint32(1 + n + padding),
		PaddingLength: uint8(padding),
	}

	seq := p.writeSeq
	p.writeMAC.Reset(seq)
	w := p.w
	w.Reset()

	var head [protocol.PacketHeaderSize]byte
	header.Write(head[:])
	w.WriteRaw(head[:])
	enc := m.NewEncoder()
	for !enc.Encode(w) {
		if err := p.flush(false); err != nil {
			return err
		}
	}
	if err := w.Err(); err != nil {
		return err
	}
	pad := p.padding[:padding]
	if _, err := io.ReadFull(p.cfg.Rand, pad); err != nil {
		return fmt.Errorf("read padding: %w", err)
	}
	w.WriteRaw(pad)
	if err := p.flush(true); err != nil {
		return err
	}
	p.writeSeq++

	p.log.WithFields(logrus.Fields{
		"seq":     seq,
		"message": m.Number().String(),
		"length":  n,
	}).Debug("wrote packet")
	return nil
}

// flush feeds the block aligned prefix of the staged segment to the MAC,
// encrypts it in place and writes it out. The final flush of a packet
// takes everything and appends the MAC tag.
func (p *Peer) flush(final bool) error {
	w := p.w
	buf := w.Bytes()
	n := len(buf)
	if !final {
		n -= n % p.writeCipher.BlockSize()
	}
	chunk := buf[:n]
	p.writeMAC.Write(chunk)
	done, err := p.writeCipher.Encrypt(chunk, chunk)
	if err != nil {
		return err
	}
	if done != n {
		return fmt.Errorf("%w: %d bytes not block aligned", ErrMalformedPacket, n)
	}
	out := chunk
	if final {
		out = p.writeMAC.Sum(chunk)
	}
	if len(out) > 0 {
		if _, err := p.conn.Write(out); err != nil {
			return err
		}
	}
	w.Consume(n)
	return nil
}
