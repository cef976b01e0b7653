package crypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
)

var ErrKeySize = errors.New("crypto: invalid key size")

// MACAlgorithm is a negotiable integrity algorithm.
type MACAlgorithm interface {
	Name() string
	Size() int
	KeySize() int
	// New returns an instance keyed for one direction of a connection.
	New(key []byte) (MAC, error)
}

// MAC authenticates one packet at a time: Reset with the packet sequence
// number, Write the unencrypted packet, then Sum or Verify.
type MAC interface {
	Size() int
	Reset(seq uint32)
	Write(p []byte)
	Sum(dst []byte) []byte
	Verify(tag []byte) bool
}

type noneMAC struct{}

// NoneMAC is the "none" integrity algorithm.
var NoneMAC MACAlgorithm = noneMAC{}

func (noneMAC) Name() string                { return "none" }
func (noneMAC) Size() int                   { return 0 }
func (noneMAC) KeySize() int                { return 0 }
func (noneMAC) New(key []byte) (MAC, error) { return noneMAC{}, nil }
func (noneMAC) Reset(uint32)                {}
func (noneMAC) Write([]byte)                {}
func (noneMAC) Sum(dst []byte) []byte       { return dst }
func (noneMAC) Verify([]byte) bool          { return true }

type hmacAlgorithm struct {
	name string
	size int
	hash func() hash.Hash
}

var (
	HMACSHA1   MACAlgorithm = hmacAlgorithm{name: "hmac-sha1", size: sha1.Size, hash: sha1.New}
	HMACSHA256 MACAlgorithm = hmacAlgorithm{name: "hmac-sha2-256", size: sha256.Size, hash: sha256.New}
	HMACSHA512 MACAlgorithm = hmacAlgorithm{name: "hmac-sha2-512", size: sha512.Size, hash: sha512.New}
)

func (a hmacAlgorithm) Name() string { return a.name }
func (a hmacAlgorithm) Size() int    { return a.size }
func (a hmacAlgorithm) KeySize() int { return a.size }

func (a hmacAlgorithm) New(key []byte) (MAC, error) {
	if len(key) != a.size {
		return nil, fmt.Errorf("%w: %s wants %d bytes, got %d", ErrKeySize, a.name, a.size, len(key))
	}
	return &hmacMAC{h: hmac.New(a.hash, key)}, nil
}

type hmacMAC struct {
	h   hash.Hash
	seq [4]byte
	sum []byte
}

func (m *hmacMAC) Size() int { return m.h.Size() }

func (m *hmacMAC) Reset(seq uint32) {
	m.h.Reset()
	binary.BigEndian.PutUint32(m.seq[:], seq)
	m.h.Write(m.seq[:])
}

func (m *hmacMAC) Write(p []byte) { m.h.Write(p) }

func (m *hmacMAC) Sum(dst []byte) []byte { return m.h.Sum(dst) }

func (m *hmacMAC) Verify(tag []byte) bool {
	m.sum = m.h.Sum(m.sum[:0])
	return hmac.Equal(m.sum, tag)
}

// DefaultMACs is the built in integrity preference. It does not offer none.
func DefaultMACs() *Registry[MACAlgorithm] {
	return NewRegistry(HMACSHA256, HMACSHA512, HMACSHA1)
}
