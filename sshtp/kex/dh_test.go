package kex

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

func TestGroup14Agreement(t *testing.T) {
	for i := 0; i < 100; i++ {
		var a, b dhGroup14
		pa, err := a.generate(rand.Reader)
		require.NoError(t, err)
		pb, err := b.generate(rand.Reader)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, a.x.BitLen(), minExponentBits)
		_, err = ValidateGroup14Value(pa)
		require.NoError(t, err)

		ka, err := a.agree(pb)
		require.NoError(t, err)
		kb, err := b.agree(pa)
		require.NoError(t, err)
		require.Equal(t, 0, ka.Cmp(kb), "pair %d", i)
	}
}

func TestValidateGroup14Value(t *testing.T) {
	p := Group14Prime()
	pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
	pMinus2 := new(big.Int).Sub(p, big.NewInt(2))

	padded := func(n int64) []byte {
		body := make([]byte, 256)
		big.NewInt(n).FillBytes(body)
		return body
	}
	negative := bytes.Repeat([]byte{0x80}, 256)
	short := bytes.Repeat([]byte{0x7f}, 255)

	weak := map[string][]byte{
		"zero":         nil,
		"one":          protocol.MPIntBytes(big.NewInt(1)),
		"two":          protocol.MPIntBytes(big.NewInt(2)),
		"padded two":   padded(2),
		"p-1":          protocol.MPIntBytes(pMinus1),
		"p":            protocol.MPIntBytes(p),
		"p+1":          protocol.MPIntBytes(new(big.Int).Add(p, big.NewInt(1))),
		"negative":     negative,
		"short":        short,
		"extra zero":   append([]byte{0}, protocol.MPIntBytes(big.NewInt(1<<40))...),
		"padded large": append([]byte{0}, bytes.Repeat([]byte{0x7f}, 256)...),
	}
	for name, body := range weak {
		_, err := ValidateGroup14Value(body)
		assert.ErrorIs(t, err, ErrWeakExchangeValue, name)
	}

	v, err := ValidateGroup14Value(protocol.MPIntBytes(pMinus2))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(pMinus2))

	v, err = ValidateGroup14Value(bytes.Repeat([]byte{0x7f}, 256))
	require.NoError(t, err)
	assert.Equal(t, 2047, v.BitLen())
}

func TestGroup14PrimeIsCopy(t *testing.T) {
	p := Group14Prime()
	p.SetInt64(5)
	assert.Equal(t, 2048, Group14Prime().BitLen())
	assert.True(t, Group14Prime().ProbablyPrime(10))
}

func TestCurve25519Agreement(t *testing.T) {
	var a, b x25519
	pa, err := a.generate(rand.Reader)
	require.NoError(t, err)
	pb, err := b.generate(rand.Reader)
	require.NoError(t, err)
	require.Len(t, pa, 32)

	ka, err := a.agree(pb)
	require.NoError(t, err)
	kb, err := b.agree(pa)
	require.NoError(t, err)
	assert.Equal(t, 0, ka.Cmp(kb))
}

func TestCurve25519RejectsWeakValues(t *testing.T) {
	var m x25519
	_, err := m.generate(rand.Reader)
	require.NoError(t, err)

	lowOrder := make([]byte, 32)
	lowOrder[0] = 1
	for name, peer := range map[string][]byte{
		"zero":      make([]byte, 32),
		"short":     make([]byte, 31),
		"long":      make([]byte, 33),
		"low order": lowOrder,
	} {
		_, err := m.agree(peer)
		assert.ErrorIs(t, err, ErrWeakExchangeValue, name)
	}
}
