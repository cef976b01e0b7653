package kex

import (
	stdcrypto "crypto"
	"crypto/rand"
	_ "crypto/sha1"
	_ "crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// Group 14 from RFC 3526: a 2048-bit MODP group with generator 2.
var (
	group14Prime, _  = new(big.Int).SetString("FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF6955817183995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF", 16)
	group14Generator = big.NewInt(2)
	group14PMinus1   = new(big.Int).Sub(group14Prime, big.NewInt(1))
	bigOne           = big.NewInt(1)
)

const (
	group14Bits = 2048
	// minExponentBits is the smallest private exponent accepted.
	minExponentBits = 1024
)

// Group14Prime returns a copy of the group 14 modulus.
func Group14Prime() *big.Int { return new(big.Int).Set(group14Prime) }

// ValidateGroup14Value checks a received public value, given as an mpint
// body, and returns it. The value must be a positive, minimally encoded
// mpint of at least 2048 bits on the wire and lie strictly between 1 and
// p-1.
func ValidateGroup14Value(body []byte) (*big.Int, error) {
	if len(body)*8 < group14Bits {
		return nil, fmt.Errorf("%w: %d byte value", ErrWeakExchangeValue, len(body))
	}
	if !protocol.IsMinimalMPInt(body) || body[0]&0x80 != 0 {
		return nil, fmt.Errorf("%w: non-canonical encoding", ErrWeakExchangeValue)
	}
	v := protocol.ParseMPInt(body)
	if v.Cmp(bigOne) <= 0 || v.Cmp(group14PMinus1) >= 0 {
		return nil, fmt.Errorf("%w: out of range", ErrWeakExchangeValue)
	}
	return v, nil
}

// dhGroup14 is one side of a finite field Diffie-Hellman exchange.
type dhGroup14 struct {
	x *big.Int
}

// generate picks a private exponent and returns the public value as an
// mpint body. A value the peer would reject is discarded and regenerated.
func (m *dhGroup14) generate(r io.Reader) ([]byte, error) {
	for {
		x, err := rand.Int(r, group14PMinus1)
		if err != nil {
			return nil, err
		}
		if x.BitLen() < minExponentBits {
			continue
		}
		body := protocol.MPIntBytes(new(big.Int).Exp(group14Generator, x, group14Prime))
		if _, err := ValidateGroup14Value(body); err != nil {
			continue
		}
		m.x = x
		return body, nil
	}
}

func (m *dhGroup14) agree(peer []byte) (*big.Int, error) {
	v, err := ValidateGroup14Value(peer)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Exp(v, m.x, group14Prime), nil
}

// DHGroup14SHA1 is diffie-hellman-group14-sha1 (RFC 4253).
func DHGroup14SHA1() Algorithm {
	return newExchange(NameDHGroup14SHA1, stdcrypto.SHA1, func() method { return &dhGroup14{} })
}

// DHGroup14SHA256 is diffie-hellman-group14-sha256 (RFC 8268).
func DHGroup14SHA256() Algorithm {
	return newExchange(NameDHGroup14SHA256, stdcrypto.SHA256, func() method { return &dhGroup14{} })
}
