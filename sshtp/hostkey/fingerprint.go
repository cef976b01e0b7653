package hostkey

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
)

var ErrHostKeyMismatch = errors.New("hostkey: host key mismatch")

// sshKey lets golang.org/x/crypto/ssh work with our public keys.
type sshKey struct {
	PublicKey
}

func (k sshKey) Verify(data []byte, sig *ssh.Signature) error {
	return k.PublicKey.Verify(sig.Format, data, ssh.Marshal(sig))
}

// SSHPublicKey adapts pub to the golang.org/x/crypto/ssh interface.
func SSHPublicKey(pub PublicKey) ssh.PublicKey { return sshKey{pub} }

// Fingerprint is the OpenSSH style SHA-256 fingerprint of a public key.
func Fingerprint(pub PublicKey) string {
	return ssh.FingerprintSHA256(SSHPublicKey(pub))
}

// Callback decides whether the client trusts the server host key presented
// during key exchange. A non-nil error aborts the exchange.
type Callback func(key PublicKey) error

// FixedKey accepts only a host key whose blob equals expected.
func FixedKey(expected PublicKey) Callback {
	check := ssh.FixedHostKey(SSHPublicKey(expected))
	return func(key PublicKey) error {
		if err := check("", nil, SSHPublicKey(key)); err != nil {
			return fmt.Errorf("%w: got %s, want %s", ErrHostKeyMismatch, Fingerprint(key), Fingerprint(expected))
		}
		return nil
	}
}

// InsecureIgnoreHostKey accepts any host key. Use it only in tests.
func InsecureIgnoreHostKey() Callback {
	return func(PublicKey) error { return nil }
}
