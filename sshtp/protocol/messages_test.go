package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type decodable interface {
	Message
	NewDecoder() Decoder
}

func TestTransportMessagesRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   decodable
		out  decodable
	}{
		{"newkeys", &NewKeys{}, &NewKeys{}},
		{"ignore", &Ignore{Data: []byte("padding for traffic analysis")}, &Ignore{}},
		{"ignore empty", &Ignore{Data: []byte{}}, &Ignore{}},
		{"debug", &Debug{AlwaysDisplay: true, Message: "hello", Language: "en"}, &Debug{}},
		{"unimplemented", &Unimplemented{Sequence: 42}, &Unimplemented{}},
		{"service request", &ServiceRequest{Service: "ssh-userauth"}, &ServiceRequest{}},
		{"service accept", &ServiceAccept{Service: "ssh-userauth"}, &ServiceAccept{}},
		{"disconnect", &Disconnect{Reason: DisconnectByApplication, Description: "bye", Language: ""}, &Disconnect{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc := Marshal(c.in)
			require.Len(t, enc, c.in.ByteCount())
			require.Equal(t, byte(c.in.Number()), enc[0])
			require.NoError(t, Unmarshal(enc, c.out.NewDecoder()))
			require.Equal(t, c.in, c.out)
		})
	}
}

func TestWholeDecoderIsResumable(t *testing.T) {
	in := &Disconnect{Reason: DisconnectProtocolError, Description: "bad packet", Language: "en"}
	enc := Marshal(in)
	for split := 0; split < len(enc); split++ {
		var out Disconnect
		d := out.NewDecoder()
		r := NewReader(enc[:split])
		require.Equal(t, StatusNeedMoreData, d.Decode(r))
		require.Equal(t, split, r.Len(), "partial decode consumed input")
		r.Feed(enc[split:])
		require.Equal(t, StatusDone, d.Decode(r))
		require.Equal(t, *in, out)
	}
}

func TestMessageWrongNumber(t *testing.T) {
	enc := Marshal(&ServiceRequest{Service: "ssh-userauth"})
	var out ServiceAccept
	require.ErrorIs(t, Unmarshal(enc, out.NewDecoder()), ErrInvalidData)
}

func TestMessageTrailingBytes(t *testing.T) {
	enc := append(Marshal(&NewKeys{}), 0)
	require.ErrorIs(t, Unmarshal(enc, (&NewKeys{}).NewDecoder()), ErrInvalidData)
}

func TestDisconnectReasonString(t *testing.T) {
	require.Equal(t, "mac error", DisconnectMACError.String())
	require.Equal(t, "reason 99", DisconnectReason(99).String())
	require.Equal(t, "KEXDH_REPLY", MessageKexDHReply.String())
	require.True(t, MessageNumber(49).IsKexAlgorithm())
	require.False(t, MessageNewKeys.IsKexAlgorithm())
}
