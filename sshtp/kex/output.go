package kex

import (
	stdcrypto "crypto"
	"math/big"

	"github.com/TheusHen/sshtp/sshtp/crypto"
)

// Direction selects which half of the connection keys are derived for.
type Direction uint8

const (
	ClientToServer Direction = iota
	ServerToClient
)

// Purpose selects which key schedule value is derived.
type Purpose uint8

const (
	PurposeIV Purpose = iota
	PurposeKey
	PurposeIntegrity
)

// Output is the result of a completed key exchange.
type Output struct {
	ExchangeHash []byte
	// SessionID is the exchange hash of the first key exchange. It stays
	// the same across re-exchanges.
	SessionID    []byte
	SharedSecret *big.Int
	Hash         stdcrypto.Hash
}

// Letter is the key derivation letter for a direction and purpose:
// A and B for IVs, C and D for keys, E and F for integrity keys.
func Letter(d Direction, p Purpose) byte {
	return 'A' + 2*byte(p) + byte(d)
}

// DeriveBytes produces n bytes of keying material.
func (o *Output) DeriveBytes(n int, d Direction, p Purpose) []byte {
	return crypto.DeriveKey(o.Hash, o.SharedSecret, o.ExchangeHash, Letter(d, p), o.SessionID, n)
}
