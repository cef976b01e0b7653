package hostkey

import (
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/crypto/ssh"
)

// DefaultRSABits is the size of host keys created by LoadOrGenerate.
const DefaultRSABits = 2048

// SignersFor returns the signers a server offers for key, most preferred
// first. RSA keys are offered under both rsa-sha2-256 and ssh-rsa.
func SignersFor(key any) ([]Signer, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		sha256Signer, err := NewRSASigner(k, AlgorithmRSASHA256)
		if err != nil {
			return nil, err
		}
		sha1Signer, err := NewRSASigner(k, AlgorithmRSASHA1)
		if err != nil {
			return nil, err
		}
		return []Signer{sha256Signer, sha1Signer}, nil
	case ed25519.PrivateKey:
		s, err := NewEd25519Signer(k)
		if err != nil {
			return nil, err
		}
		return []Signer{s}, nil
	case *ed25519.PrivateKey:
		return SignersFor(*k)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
}

// RSAPrivateKeyPEM encodes key as a PKCS#1 PEM block.
func RSAPrivateKeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

// LoadOrGenerate reads a PEM private key from path. PKCS#1, PKCS#8 and
// OpenSSH formats are accepted. When the file does not exist a new RSA key
// is generated and written there with mode 0600.
func LoadOrGenerate(path string) ([]Signer, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		key, err := GenerateRSA(DefaultRSABits)
		if err != nil {
			return nil, fmt.Errorf("generate host key: %w", err)
		}
		if err := os.WriteFile(path, RSAPrivateKeyPEM(key), 0o600); err != nil {
			return nil, fmt.Errorf("write host key: %w", err)
		}
		return SignersFor(key)
	}
	if err != nil {
		return nil, fmt.Errorf("read host key: %w", err)
	}
	key, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse host key %s: %w", path, err)
	}
	return SignersFor(key)
}
