package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

var ErrShortBuffer = errors.New("crypto: destination shorter than source")

// CipherAlgorithm is a negotiable encryption algorithm.
type CipherAlgorithm interface {
	Name() string
	BlockSize() int
	KeySize() int
	IVSize() int
	// New returns an instance for one direction of a connection.
	New(key, iv []byte) (Cipher, error)
}

// Cipher transforms packet bytes in place or into dst. Encrypt and Decrypt
// process as many whole blocks of src as there are and return the number
// of bytes processed; the caller keeps the remainder for the next call.
type Cipher interface {
	BlockSize() int
	Encrypt(dst, src []byte) (int, error)
	Decrypt(dst, src []byte) (int, error)
}

type noneCipher struct{}

// NoneCipher is the "none" encryption algorithm.
var NoneCipher CipherAlgorithm = noneCipher{}

func (noneCipher) Name() string                         { return "none" }
func (noneCipher) BlockSize() int                       { return 1 }
func (noneCipher) KeySize() int                         { return 0 }
func (noneCipher) IVSize() int                          { return 0 }
func (noneCipher) New(key, iv []byte) (Cipher, error)   { return noneCipher{}, nil }
func (noneCipher) Encrypt(dst, src []byte) (int, error) { return passthrough(dst, src) }
func (noneCipher) Decrypt(dst, src []byte) (int, error) { return passthrough(dst, src) }

func passthrough(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, ErrShortBuffer
	}
	return copy(dst, src), nil
}

type ctrAlgorithm struct {
	name    string
	keySize int
}

var (
	AES128CTR CipherAlgorithm = ctrAlgorithm{name: "aes128-ctr", keySize: 16}
	AES192CTR CipherAlgorithm = ctrAlgorithm{name: "aes192-ctr", keySize: 24}
	AES256CTR CipherAlgorithm = ctrAlgorithm{name: "aes256-ctr", keySize: 32}
)

func (a ctrAlgorithm) Name() string   { return a.name }
func (a ctrAlgorithm) BlockSize() int { return aes.BlockSize }
func (a ctrAlgorithm) KeySize() int   { return a.keySize }
func (a ctrAlgorithm) IVSize() int    { return aes.BlockSize }

func (a ctrAlgorithm) New(key, iv []byte) (Cipher, error) {
	if len(key) != a.keySize {
		return nil, fmt.Errorf("%w: %s wants %d key bytes, got %d", ErrKeySize, a.name, a.keySize, len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: %s wants %d iv bytes, got %d", ErrKeySize, a.name, aes.BlockSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &ctrCipher{stream: cipher.NewCTR(block, iv)}, nil
}

// ctrCipher keeps one keystream across packets, as the SSH stream cipher
// modes require.
type ctrCipher struct {
	stream cipher.Stream
}

func (c *ctrCipher) BlockSize() int { return aes.BlockSize }

func (c *ctrCipher) Encrypt(dst, src []byte) (int, error) { return c.xor(dst, src) }
func (c *ctrCipher) Decrypt(dst, src []byte) (int, error) { return c.xor(dst, src) }

func (c *ctrCipher) xor(dst, src []byte) (int, error) {
	n := len(src) - len(src)%aes.BlockSize
	if len(dst) < n {
		return 0, ErrShortBuffer
	}
	c.stream.XORKeyStream(dst[:n], src[:n])
	return n, nil
}

// DefaultCiphers is the built in encryption preference. It does not offer none.
func DefaultCiphers() *Registry[CipherAlgorithm] {
	return NewRegistry(AES128CTR, AES256CTR, AES192CTR)
}
