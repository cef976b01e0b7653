package kex

import (
	stdcrypto "crypto"
	"encoding/binary"
	"hash"
	"math/big"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// HashInput holds the fields of the exchange hash. ClientPublic and
// ServerPublic are the bodies of the exchange value fields as sent on the
// wire: mpint e and f for finite field groups, Q_C and Q_S for curve25519.
type HashInput struct {
	ClientID      string
	ServerID      string
	ClientKexInit []byte
	ServerKexInit []byte
	HostKey       []byte
	ClientPublic  []byte
	ServerPublic  []byte
	K             *big.Int
}

// ComputeExchangeHash returns
//
//	H = HASH(string V_C || string V_S || string I_C || string I_S ||
//	         string K_S || e || f || mpint K)
func ComputeExchangeHash(h stdcrypto.Hash, in HashInput) []byte {
	d := h.New()
	writeString(d, []byte(in.ClientID))
	writeString(d, []byte(in.ServerID))
	writeString(d, in.ClientKexInit)
	writeString(d, in.ServerKexInit)
	writeString(d, in.HostKey)
	writeString(d, in.ClientPublic)
	writeString(d, in.ServerPublic)
	d.Write(protocol.AppendMPInt(nil, in.K))
	return d.Sum(nil)
}

func writeString(d hash.Hash, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	d.Write(n[:])
	d.Write(b)
}
