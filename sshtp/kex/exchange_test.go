package kex

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/sshtp/sshtp/hostkey"
	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// capture records the payloads an exchange writes.
type capture struct {
	payloads [][]byte
}

func (c *capture) WritePacket(_ context.Context, m protocol.Message) error {
	c.payloads = append(c.payloads, protocol.Marshal(m))
	return nil
}

func (c *capture) packet(t *testing.T, i int) *protocol.IncomingPacket {
	t.Helper()
	require.Greater(t, len(c.payloads), i)
	return protocol.NewIncomingPacket(protocol.PacketHeader{}, uint32(i), c.payloads[i])
}

func exchangeContexts(t *testing.T, signer hostkey.Signer) (client, server *ExchangeContext) {
	t.Helper()
	ci := &protocol.KexInit{KexAlgorithms: []string{"x"}}
	si := &protocol.KexInit{KexAlgorithms: []string{"y"}}
	require.NoError(t, ci.NewCookie(rand.Reader))
	require.NoError(t, si.NewCookie(rand.Reader))
	base := ExchangeContext{
		ClientIdentification: "SSH-2.0-client",
		ServerIdentification: "SSH-2.0-server",
		ClientKexInit:        protocol.Marshal(ci),
		ServerKexInit:        protocol.Marshal(si),
		HostKeyAlgorithm:     signer.Name(),
	}
	c, s := base, base
	c.Mode = protocol.ModeClient
	c.HostKeyCallback = hostkey.FixedKey(signer.PublicKey())
	s.Mode = protocol.ModeServer
	s.HostKey = signer
	return &c, &s
}

// runExchange drives a client and a server instance of alg to completion.
func runExchange(t *testing.T, alg Algorithm, cec, sec *ExchangeContext) (client, server *Output, err error) {
	t.Helper()
	ctx := context.Background()
	c, s := alg.Reset(), alg.Reset()
	var toServer, toClient capture

	require.NoError(t, c.Start(ctx, &toServer, cec))
	require.NoError(t, s.Start(ctx, &toClient, sec))
	require.Len(t, toServer.payloads, 1)
	require.Empty(t, toClient.payloads)

	server, err = s.Process(ctx, &toClient, toServer.packet(t, 0))
	if err != nil {
		return nil, nil, err
	}
	client, err = c.Process(ctx, &toServer, toClient.packet(t, 0))
	return client, server, err
}

func TestExchangeAgreement(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	rsaKey, err := hostkey.GenerateRSA(2048)
	require.NoError(t, err)
	rsaSHA1, err := hostkey.NewRSASigner(rsaKey, hostkey.AlgorithmRSASHA1)
	require.NoError(t, err)
	rsaSHA256, err := hostkey.NewRSASigner(rsaKey, hostkey.AlgorithmRSASHA256)
	require.NoError(t, err)

	cases := []struct {
		alg    Algorithm
		signer hostkey.Signer
	}{
		{Curve25519SHA256(), ed},
		{Curve25519SHA256(), rsaSHA256},
		{DHGroup14SHA256(), ed},
		{DHGroup14SHA1(), rsaSHA1},
	}
	for _, tc := range cases {
		t.Run(tc.alg.Name()+"/"+tc.signer.Name(), func(t *testing.T) {
			cec, sec := exchangeContexts(t, tc.signer)
			client, server, err := runExchange(t, tc.alg, cec, sec)
			require.NoError(t, err)

			assert.Equal(t, server.ExchangeHash, client.ExchangeHash)
			assert.Equal(t, 0, server.SharedSecret.Cmp(client.SharedSecret))
			assert.Equal(t, client.ExchangeHash, client.SessionID)
			assert.Equal(t, tc.alg.Hash(), client.Hash)
			assert.Len(t, client.ExchangeHash, tc.alg.Hash().Size())

			for _, p := range []Purpose{PurposeIV, PurposeKey, PurposeIntegrity} {
				for _, d := range []Direction{ClientToServer, ServerToClient} {
					assert.Equal(t, server.DeriveBytes(32, d, p), client.DeriveBytes(32, d, p))
				}
			}
		})
	}
}

func TestExchangeKeepsSessionID(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	cec, sec := exchangeContexts(t, ed)
	first, _, err := runExchange(t, Curve25519SHA256(), cec, sec)
	require.NoError(t, err)

	cec, sec = exchangeContexts(t, ed)
	cec.SessionID, sec.SessionID = first.SessionID, first.SessionID
	client, server, err := runExchange(t, Curve25519SHA256(), cec, sec)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, client.SessionID)
	assert.Equal(t, first.SessionID, server.SessionID)
	assert.NotEqual(t, first.ExchangeHash, client.ExchangeHash)
}

func TestExchangeRejectsUntrustedHostKey(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	other, err := hostkey.GenerateEd25519()
	require.NoError(t, err)

	cec, sec := exchangeContexts(t, ed)
	cec.HostKeyCallback = hostkey.FixedKey(other.PublicKey())
	_, _, err = runExchange(t, Curve25519SHA256(), cec, sec)
	assert.ErrorIs(t, err, ErrHostKeyVerification)
	assert.ErrorIs(t, err, hostkey.ErrHostKeyMismatch)

	cec, sec = exchangeContexts(t, ed)
	cec.HostKeyCallback = nil
	_, _, err = runExchange(t, Curve25519SHA256(), cec, sec)
	assert.ErrorIs(t, err, ErrHostKeyVerification)
}

func TestExchangeRejectsKeyTypeMismatch(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	cec, sec := exchangeContexts(t, ed)
	cec.HostKeyAlgorithm = hostkey.AlgorithmRSASHA256
	_, _, err = runExchange(t, Curve25519SHA256(), cec, sec)
	assert.ErrorIs(t, err, ErrHostKeyVerification)
}

func TestExchangeRejectsBadSignature(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	cec, sec := exchangeContexts(t, ed)

	ctx := context.Background()
	c, s := Curve25519SHA256(), Curve25519SHA256()
	var toServer, toClient capture
	require.NoError(t, c.Start(ctx, &toServer, cec))
	require.NoError(t, s.Start(ctx, &toClient, sec))
	_, err = s.Process(ctx, &toClient, toServer.packet(t, 0))
	require.NoError(t, err)

	reply := toClient.payloads[0]
	reply[len(reply)-1] ^= 0x01
	_, err = c.Process(ctx, &toServer, toClient.packet(t, 0))
	assert.ErrorIs(t, err, ErrHostKeyVerification)
}

func TestExchangeDifferentTranscripts(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	cec, sec := exchangeContexts(t, ed)
	cec.ClientIdentification = "SSH-2.0-someone-else"

	// The server signs a hash over its own view of the transcript, so the
	// client cannot verify it.
	_, _, err = runExchange(t, DHGroup14SHA256(), cec, sec)
	assert.ErrorIs(t, err, ErrHostKeyVerification)
}

func TestExchangeUnexpectedMessages(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	cec, sec := exchangeContexts(t, ed)
	ctx := context.Background()

	pkt := protocol.NewIncomingPacket(protocol.PacketHeader{}, 0, protocol.Marshal(&KexDHInit{Exchange: protocol.BytesBuffer(make([]byte, 32))}))
	_, err = Curve25519SHA256().Process(ctx, &capture{}, pkt)
	assert.ErrorIs(t, err, ErrUnexpectedMessage)

	c := Curve25519SHA256()
	require.NoError(t, c.Start(ctx, &capture{}, cec))
	_, err = c.Process(ctx, &capture{}, pkt)
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
	assert.ErrorIs(t, c.Start(ctx, &capture{}, cec), ErrUnexpectedMessage)

	s := Curve25519SHA256()
	require.NoError(t, s.Start(ctx, &capture{}, sec))
	reply := protocol.NewIncomingPacket(protocol.PacketHeader{}, 0, protocol.Marshal(&KexDHReply{}))
	_, err = s.Process(ctx, &capture{}, reply)
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
}

func TestServerStartNeedsMatchingHostKey(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	_, sec := exchangeContexts(t, ed)
	sec.HostKeyAlgorithm = hostkey.AlgorithmRSASHA256
	assert.ErrorIs(t, DHGroup14SHA1().Start(context.Background(), &capture{}, sec), ErrUnsupportedAlgorithm)
}

func TestServerRejectsWeakClientValue(t *testing.T) {
	ed, err := hostkey.GenerateEd25519()
	require.NoError(t, err)
	_, sec := exchangeContexts(t, ed)
	ctx := context.Background()

	s := DHGroup14SHA256()
	var out capture
	require.NoError(t, s.Start(ctx, &out, sec))
	init := &KexDHInit{Exchange: protocol.BigIntBuffer(Group14Prime())}
	_, err = s.Process(ctx, &out, protocol.NewIncomingPacket(protocol.PacketHeader{}, 0, protocol.Marshal(init)))
	assert.ErrorIs(t, err, ErrWeakExchangeValue)
	assert.Empty(t, out.payloads)
}

func TestDefaultKeyExchanges(t *testing.T) {
	r := DefaultKeyExchanges()
	assert.Equal(t, []string{NameCurve25519SHA256, NameDHGroup14SHA256, NameDHGroup14SHA1}, r.Names())
	alg, ok := r.Lookup(NameDHGroup14SHA1)
	require.True(t, ok)
	assert.Equal(t, NameDHGroup14SHA1, alg.Reset().Name())
}
