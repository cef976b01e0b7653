package protocol

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestMPIntZeroIsEmpty(t *testing.T) {
	require.Empty(t, MPIntBytes(big.NewInt(0)))
	require.Equal(t, []byte{0, 0, 0, 0}, AppendMPInt(nil, new(big.Int)))
	require.Equal(t, 4, MPIntByteCount(new(big.Int)))
	require.Equal(t, 0, ParseMPInt(nil).Sign())
}

func TestMPIntHighBitPadding(t *testing.T) {
	n := new(big.Int).SetBytes([]byte{0x80, 0x01})
	require.Equal(t, []byte{0x00, 0x80, 0x01}, MPIntBytes(n))
	require.Equal(t, []byte{0x7f}, MPIntBytes(big.NewInt(0x7f)))
}

// Examples from RFC 4251 section 5.
func TestMPIntRFCExamples(t *testing.T) {
	v, _ := new(big.Int).SetString("9a378f9b2e332a7", 16)
	cases := []struct {
		n    *big.Int
		want []byte
	}{
		{big.NewInt(0), []byte{0, 0, 0, 0}},
		{v, []byte{0, 0, 0, 8, 0x09, 0xa3, 0x78, 0xf9, 0xb2, 0xe3, 0x32, 0xa7}},
		{big.NewInt(0x80), []byte{0, 0, 0, 2, 0x00, 0x80}},
		{big.NewInt(-0x1234), []byte{0, 0, 0, 2, 0xed, 0xcc}},
		{big.NewInt(-0xdeadbeef), []byte{0, 0, 0, 5, 0xff, 0x21, 0x52, 0x41, 0x11}},
	}
	for _, c := range cases {
		got := AppendMPInt(nil, c.n)
		require.Equal(t, c.want, got, "encode %s", c.n)
		require.Equal(t, 0, ParseMPInt(got[4:]).Cmp(c.n), "decode %s", c.n)
		require.True(t, IsMinimalMPInt(got[4:]))
	}
}

func TestMPIntMatchesXCrypto(t *testing.T) {
	values := []*big.Int{big.NewInt(0), big.NewInt(1), big.NewInt(255), big.NewInt(-1), big.NewInt(-129)}
	values = append(values, new(big.Int).Lsh(big.NewInt(1), 2047), new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 1024), big.NewInt(1)))
	for _, n := range values {
		want := ssh.Marshal(struct{ N *big.Int }{n})
		require.Equal(t, want, AppendMPInt(nil, n), "value %s", n)
	}
}

func TestIsMinimalMPInt(t *testing.T) {
	require.False(t, IsMinimalMPInt([]byte{0x00}))
	require.False(t, IsMinimalMPInt([]byte{0x00, 0x01}))
	require.False(t, IsMinimalMPInt([]byte{0xff, 0x80}))
	require.True(t, IsMinimalMPInt([]byte{0xff}))
	require.True(t, IsMinimalMPInt([]byte{0x00, 0x80}))
}
