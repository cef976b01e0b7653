package kex

import (
	"fmt"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// CompressionNone is the only compression method supported.
const CompressionNone = "none"

// Algorithms is the outcome of algorithm negotiation.
type Algorithms struct {
	KeyExchange        string
	HostKey            string
	CipherClientServer string
	CipherServerClient string
	MACClientServer    string
	MACServerClient    string
}

// Cipher returns the cipher name used in direction d.
func (a Algorithms) Cipher(d Direction) string {
	if d == ClientToServer {
		return a.CipherClientServer
	}
	return a.CipherServerClient
}

// MAC returns the MAC name used in direction d.
func (a Algorithms) MAC(d Direction) string {
	if d == ClientToServer {
		return a.MACClientServer
	}
	return a.MACServerClient
}

func findCommon(what string, client, server []string) (string, error) {
	for _, c := range client {
		for _, s := range server {
			if c == s {
				return c, nil
			}
		}
	}
	return "", fmt.Errorf("%w for %s; client offered %v, server offered %v", ErrNoCommonAlgorithm, what, client, server)
}

// Negotiate picks, for every category, the first client algorithm that the
// server also supports. Compression must resolve to none in both directions.
func Negotiate(client, server *protocol.KexInit) (Algorithms, error) {
	var (
		a   Algorithms
		err error
	)
	if a.KeyExchange, err = findCommon("key exchange", client.KexAlgorithms, server.KexAlgorithms); err != nil {
		return a, err
	}
	if a.HostKey, err = findCommon("host key", client.ServerHostKeyAlgorithms, server.ServerHostKeyAlgorithms); err != nil {
		return a, err
	}
	if a.CipherClientServer, err = findCommon("client to server cipher", client.CiphersClientServer, server.CiphersClientServer); err != nil {
		return a, err
	}
	if a.CipherServerClient, err = findCommon("server to client cipher", client.CiphersServerClient, server.CiphersServerClient); err != nil {
		return a, err
	}
	if a.MACClientServer, err = findCommon("client to server MAC", client.MACsClientServer, server.MACsClientServer); err != nil {
		return a, err
	}
	if a.MACServerClient, err = findCommon("server to client MAC", client.MACsServerClient, server.MACsServerClient); err != nil {
		return a, err
	}
	for _, c := range [][2][]string{
		{client.CompressionClientServer, server.CompressionClientServer},
		{client.CompressionServerClient, server.CompressionServerClient},
	} {
		comp, err := findCommon("compression", c[0], c[1])
		if err != nil {
			return a, err
		}
		if comp != CompressionNone {
			return a, fmt.Errorf("%w: compression %q", ErrUnsupportedAlgorithm, comp)
		}
	}
	return a, nil
}

// GuessMatches reports whether a peer that set first_kex_packet_follows
// guessed right: both sides must prefer the same key exchange and host key
// algorithms. A wrong guess means the first key exchange packet after the
// peer's KEXINIT is discarded.
func GuessMatches(client, server *protocol.KexInit) bool {
	if len(client.KexAlgorithms) == 0 || len(server.KexAlgorithms) == 0 ||
		len(client.ServerHostKeyAlgorithms) == 0 || len(server.ServerHostKeyAlgorithms) == 0 {
		return false
	}
	return client.KexAlgorithms[0] == server.KexAlgorithms[0] &&
		client.ServerHostKeyAlgorithms[0] == server.ServerHostKeyAlgorithms[0]
}
