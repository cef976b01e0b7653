package crypto

import (
	stdcrypto "crypto"
	"math/big"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// DeriveKey expands the shared secret of a key exchange into n bytes of
// keying material (RFC 4253 section 7.2):
//
//	K1 = HASH(K || H || letter || session_id)
//	K2 = HASH(K || H || K1)
//	Kn = HASH(K || H || K1 || ... || Kn-1)
//
// K is mpint encoded. The result is the first n bytes of K1 || K2 || ...
func DeriveKey(h stdcrypto.Hash, k *big.Int, exchangeHash []byte, letter byte, sessionID []byte, n int) []byte {
	if n <= 0 {
		return nil
	}
	secret := protocol.AppendMPInt(nil, k)

	d := h.New()
	d.Write(secret)
	d.Write(exchangeHash)
	d.Write([]byte{letter})
	d.Write(sessionID)
	out := d.Sum(make([]byte, 0, n+h.Size()))

	for len(out) < n {
		d.Reset()
		d.Write(secret)
		d.Write(exchangeHash)
		d.Write(out)
		out = d.Sum(out)
	}
	return out[:n]
}
