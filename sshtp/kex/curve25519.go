package kex

import (
	stdcrypto "crypto"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/curve25519"
)

// x25519 is one side of curve25519-sha256 (RFC 8731). Public values travel
// as 32 byte strings; the shared secret is encoded as an mpint.
type x25519 struct {
	priv [32]byte
}

func (m *x25519) generate(r io.Reader) ([]byte, error) {
	if _, err := io.ReadFull(r, m.priv[:]); err != nil {
		return nil, err
	}
	// Clamp per RFC 7748.
	m.priv[0] &= 248
	m.priv[31] &= 127
	m.priv[31] |= 64
	return curve25519.X25519(m.priv[:], curve25519.Basepoint)
}

func (m *x25519) agree(peer []byte) (*big.Int, error) {
	if len(peer) != curve25519.PointSize {
		return nil, fmt.Errorf("%w: %d byte curve25519 value", ErrWeakExchangeValue, len(peer))
	}
	var zero [curve25519.PointSize]byte
	if subtle.ConstantTimeCompare(peer, zero[:]) == 1 {
		return nil, fmt.Errorf("%w: zero curve25519 value", ErrWeakExchangeValue)
	}
	// X25519 fails on low order points, whose shared secret is all zero.
	shared, err := curve25519.X25519(m.priv[:], peer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakExchangeValue, err)
	}
	return new(big.Int).SetBytes(shared), nil
}

// Curve25519SHA256 is curve25519-sha256.
func Curve25519SHA256() Algorithm {
	return newExchange(NameCurve25519SHA256, stdcrypto.SHA256, func() method { return &x25519{} })
}
