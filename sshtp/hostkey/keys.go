package hostkey

import (
	"bytes"
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// Key types, as they appear at the start of a public key blob.
const (
	TypeRSA     = "ssh-rsa"
	TypeEd25519 = "ssh-ed25519"
)

// Signature algorithms, as negotiated in KEXINIT.
const (
	AlgorithmRSASHA1   = "ssh-rsa"
	AlgorithmRSASHA256 = "rsa-sha2-256"
	AlgorithmRSASHA512 = "rsa-sha2-512"
	AlgorithmEd25519   = "ssh-ed25519"
)

var (
	ErrUnsupportedKey  = errors.New("hostkey: unsupported key type")
	ErrSignatureFormat = errors.New("hostkey: malformed signature")
	ErrVerification    = errors.New("hostkey: signature verification failed")
)

// PublicKey is the public half of a host key.
type PublicKey interface {
	Type() string
	// ByteCount is the size of the blob returned by Marshal.
	ByteCount() int
	// AppendBytes appends the blob: string type, then the key specific payload.
	AppendBytes(dst []byte) []byte
	Marshal() []byte
	// Verify checks a signature blob over data made with algorithm.
	Verify(algorithm string, data, sig []byte) error
	// String is the authorized_keys form: "type base64(blob)".
	String() string
}

// Signer is a host key bound to one signature algorithm.
type Signer interface {
	// Name is the signature algorithm offered in KEXINIT.
	Name() string
	PublicKey() PublicKey
	// Sign returns a signature blob: string algorithm, string signature.
	Sign(rand io.Reader, data []byte) ([]byte, error)
}

// KeyTypeForAlgorithm maps a signature algorithm to the key type it uses.
func KeyTypeForAlgorithm(algorithm string) (string, bool) {
	switch algorithm {
	case AlgorithmRSASHA1, AlgorithmRSASHA256, AlgorithmRSASHA512:
		return TypeRSA, true
	case AlgorithmEd25519:
		return TypeEd25519, true
	}
	return "", false
}

func rsaHash(algorithm string) (stdcrypto.Hash, bool) {
	switch algorithm {
	case AlgorithmRSASHA1:
		return stdcrypto.SHA1, true
	case AlgorithmRSASHA256:
		return stdcrypto.SHA256, true
	case AlgorithmRSASHA512:
		return stdcrypto.SHA512, true
	}
	return 0, false
}

func digest(h stdcrypto.Hash, data []byte) []byte {
	switch h {
	case stdcrypto.SHA1:
		d := sha1.Sum(data)
		return d[:]
	case stdcrypto.SHA256:
		d := sha256.Sum256(data)
		return d[:]
	default:
		d := sha512.Sum512(data)
		return d[:]
	}
}

func appendString(dst []byte, s []byte) []byte {
	dst = append(dst, byte(len(s)>>24), byte(len(s)>>16), byte(len(s)>>8), byte(len(s)))
	return append(dst, s...)
}

func signatureBlob(algorithm string, sig []byte) []byte {
	out := make([]byte, 0, 8+len(algorithm)+len(sig))
	out = appendString(out, []byte(algorithm))
	return appendString(out, sig)
}

// parseSignature splits a signature blob into its algorithm and payload.
func parseSignature(blob []byte) (string, []byte, error) {
	r := protocol.NewReader(blob)
	format, ok := r.ReadBuffer()
	if !ok {
		return "", nil, ErrSignatureFormat
	}
	sig, ok := r.ReadBuffer()
	if !ok || r.Len() != 0 {
		return "", nil, ErrSignatureFormat
	}
	name, _ := format.AsString()
	payload, _ := sig.Bytes()
	return name, payload, nil
}

func authorizedKey(pub PublicKey) string {
	return pub.Type() + " " + base64.StdEncoding.EncodeToString(pub.Marshal())
}

// RSAPublicKey is an ssh-rsa public key.
type RSAPublicKey struct {
	Key *rsa.PublicKey
}

func (k *RSAPublicKey) Type() string { return TypeRSA }

func (k *RSAPublicKey) ByteCount() int {
	e := big.NewInt(int64(k.Key.E))
	return 4 + len(TypeRSA) + protocol.MPIntByteCount(e) + protocol.MPIntByteCount(k.Key.N)
}

func (k *RSAPublicKey) AppendBytes(dst []byte) []byte {
	dst = appendString(dst, []byte(TypeRSA))
	dst = protocol.AppendMPInt(dst, big.NewInt(int64(k.Key.E)))
	return protocol.AppendMPInt(dst, k.Key.N)
}

func (k *RSAPublicKey) Marshal() []byte {
	return k.AppendBytes(make([]byte, 0, k.ByteCount()))
}

func (k *RSAPublicKey) Verify(algorithm string, data, sig []byte) error {
	h, ok := rsaHash(algorithm)
	if !ok {
		return fmt.Errorf("%w: %s for %s", ErrUnsupportedKey, algorithm, TypeRSA)
	}
	format, payload, err := parseSignature(sig)
	if err != nil {
		return err
	}
	if format != algorithm {
		return fmt.Errorf("%w: got %s, want %s", ErrSignatureFormat, format, algorithm)
	}
	if err := rsa.VerifyPKCS1v15(k.Key, h, digest(h, data), payload); err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return nil
}

func (k *RSAPublicKey) String() string { return authorizedKey(k) }

// RSASigner signs with PKCS#1 v1.5 over the hash its algorithm names.
type RSASigner struct {
	key       *rsa.PrivateKey
	algorithm string
	hash      stdcrypto.Hash
}

// NewRSASigner binds key to one of ssh-rsa, rsa-sha2-256 or rsa-sha2-512.
func NewRSASigner(key *rsa.PrivateKey, algorithm string) (*RSASigner, error) {
	h, ok := rsaHash(algorithm)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKey, algorithm)
	}
	return &RSASigner{key: key, algorithm: algorithm, hash: h}, nil
}

func (s *RSASigner) Name() string { return s.algorithm }

func (s *RSASigner) PublicKey() PublicKey { return &RSAPublicKey{Key: &s.key.PublicKey} }

func (s *RSASigner) Sign(rand io.Reader, data []byte) ([]byte, error) {
	sig, err := rsa.SignPKCS1v15(rand, s.key, s.hash, digest(s.hash, data))
	if err != nil {
		return nil, err
	}
	return signatureBlob(s.algorithm, sig), nil
}

// GenerateRSA creates and validates a new RSA host key.
func GenerateRSA(bits int) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return key, nil
}

// Ed25519PublicKey is an ssh-ed25519 public key.
type Ed25519PublicKey struct {
	Key ed25519.PublicKey
}

func (k *Ed25519PublicKey) Type() string { return TypeEd25519 }

func (k *Ed25519PublicKey) ByteCount() int {
	return 4 + len(TypeEd25519) + 4 + len(k.Key)
}

func (k *Ed25519PublicKey) AppendBytes(dst []byte) []byte {
	dst = appendString(dst, []byte(TypeEd25519))
	return appendString(dst, k.Key)
}

func (k *Ed25519PublicKey) Marshal() []byte {
	return k.AppendBytes(make([]byte, 0, k.ByteCount()))
}

func (k *Ed25519PublicKey) Verify(algorithm string, data, sig []byte) error {
	if algorithm != AlgorithmEd25519 {
		return fmt.Errorf("%w: %s for %s", ErrUnsupportedKey, algorithm, TypeEd25519)
	}
	format, payload, err := parseSignature(sig)
	if err != nil {
		return err
	}
	if format != AlgorithmEd25519 || len(payload) != ed25519.SignatureSize {
		return ErrSignatureFormat
	}
	if !ed25519.Verify(k.Key, data, payload) {
		return ErrVerification
	}
	return nil
}

func (k *Ed25519PublicKey) String() string { return authorizedKey(k) }

// Ed25519Signer signs with an Ed25519 host key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

func NewEd25519Signer(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.New("hostkey: invalid Ed25519 private key size")
	}
	return &Ed25519Signer{key: key}, nil
}

// GenerateEd25519 creates a new Ed25519 host key signer.
func GenerateEd25519() (*Ed25519Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Ed25519Signer{key: priv}, nil
}

func (s *Ed25519Signer) Name() string { return AlgorithmEd25519 }

func (s *Ed25519Signer) PublicKey() PublicKey {
	return &Ed25519PublicKey{Key: s.key.Public().(ed25519.PublicKey)}
}

func (s *Ed25519Signer) Sign(_ io.Reader, data []byte) ([]byte, error) {
	return signatureBlob(AlgorithmEd25519, ed25519.Sign(s.key, data)), nil
}

// ParsePublicKey decodes a public key blob.
func ParsePublicKey(blob []byte) (PublicKey, error) {
	r := protocol.NewReader(blob)
	name, ok := r.ReadBuffer()
	if !ok {
		return nil, fmt.Errorf("%w: truncated key blob", ErrUnsupportedKey)
	}
	keyType, _ := name.AsString()
	switch keyType {
	case TypeRSA:
		eField, ok1 := r.ReadBuffer()
		nField, ok2 := r.ReadBuffer()
		if !ok1 || !ok2 || r.Len() != 0 {
			return nil, fmt.Errorf("%w: malformed %s blob", ErrUnsupportedKey, TypeRSA)
		}
		e, _ := eField.AsBigInt()
		n, _ := nField.AsBigInt()
		if e.Sign() <= 0 || !e.IsInt64() || e.Int64() > 1<<31-1 || n.Sign() <= 0 {
			return nil, fmt.Errorf("%w: invalid %s parameters", ErrUnsupportedKey, TypeRSA)
		}
		return &RSAPublicKey{Key: &rsa.PublicKey{N: n, E: int(e.Int64())}}, nil
	case TypeEd25519:
		field, ok := r.ReadBuffer()
		if !ok || r.Len() != 0 || field.Len() != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: malformed %s blob", ErrUnsupportedKey, TypeEd25519)
		}
		raw, _ := field.Bytes()
		return &Ed25519PublicKey{Key: ed25519.PublicKey(bytes.Clone(raw))}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKey, keyType)
}
