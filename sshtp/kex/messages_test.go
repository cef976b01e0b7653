package kex

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

func sampleReply() *KexDHReply {
	return &KexDHReply{
		HostKey:   protocol.BytesBuffer(bytes.Repeat([]byte{0xaa}, 51)),
		Exchange:  protocol.BigIntBuffer(new(big.Int).Lsh(big.NewInt(3), 2046)),
		Signature: protocol.BytesBuffer(bytes.Repeat([]byte{0x55}, 83)),
	}
}

func TestKexDHReplyWireFormat(t *testing.T) {
	m := sampleReply()
	got := protocol.Marshal(m)
	require.Len(t, got, m.ByteCount())

	// Same layout as the kexDHReplyMsg of x/crypto/ssh.
	var x struct {
		HostKey   []byte `sshtype:"31"`
		Y         *big.Int
		Signature []byte
	}
	require.NoError(t, ssh.Unmarshal(got, &x))
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 51), x.HostKey)
	assert.Equal(t, 0, x.Y.Cmp(new(big.Int).Lsh(big.NewInt(3), 2046)))
	assert.Equal(t, ssh.Marshal(&x), got)
}

func TestKexDHReplySegmentedEncode(t *testing.T) {
	m := sampleReply()
	want := protocol.Marshal(m)

	w := protocol.NewWriter(64)
	enc := m.NewEncoder()
	var got []byte
	yields := 0
	for !enc.Encode(w) {
		got = append(got, w.Bytes()...)
		w.Consume(w.Len())
		yields++
	}
	got = append(got, w.Bytes()...)
	assert.Equal(t, want, got)
	assert.Greater(t, yields, 0)
	require.NoError(t, w.Err())
}

func TestKexDHReplyResumableDecode(t *testing.T) {
	wire := protocol.Marshal(sampleReply())

	var out KexDHReply
	dec := out.NewDecoder()
	r := protocol.NewReader(nil)
	status := protocol.StatusNeedMoreData
	for i := range wire {
		r.Feed(wire[i : i+1])
		status = dec.Decode(r)
		if i < len(wire)-1 {
			require.Equal(t, protocol.StatusNeedMoreData, status, "byte %d", i)
		}
	}
	require.Equal(t, protocol.StatusDone, status)
	assert.Equal(t, 0, r.Len())

	sig, err := out.Signature.Bytes()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x55}, 83), sig)
	y, err := out.Exchange.AsBigInt()
	require.NoError(t, err)
	assert.Equal(t, 0, y.Cmp(new(big.Int).Lsh(big.NewInt(3), 2046)))
}

func TestKexDHInitBorrowsFromPacket(t *testing.T) {
	wire := protocol.Marshal(&KexDHInit{Exchange: protocol.BytesBuffer([]byte("q_c"))})
	pkt := protocol.NewIncomingPacket(protocol.PacketHeader{}, 7, wire)

	var init KexDHInit
	require.NoError(t, protocol.DecodePacket(pkt, init.NewDecoder()))
	owned, err := init.Exchange.Owned()
	require.NoError(t, err)

	pkt.Advance()
	_, err = init.Exchange.Bytes()
	assert.ErrorIs(t, err, protocol.ErrPacketReleased)
	b, err := owned.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("q_c"), b)
}

func TestKexDHInitRejectsWrongNumber(t *testing.T) {
	wire := protocol.Marshal(&KexDHInit{Exchange: protocol.BytesBuffer([]byte{1})})
	wire[0] = byte(protocol.MessageKexDHReply)
	var init KexDHInit
	assert.ErrorIs(t, protocol.Unmarshal(wire, init.NewDecoder()), protocol.ErrInvalidData)
}
