package kex

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/TheusHen/sshtp/sshtp/protocol"
)

// HASSH fingerprints a KEXINIT: the hex MD5 of "kex;enc;mac;comp". sender
// is the side that sent msg. A client is fingerprinted by its client to
// server lists, a server (HASSHServer) by its server to client lists.
func HASSH(msg *protocol.KexInit, sender protocol.Mode) string {
	enc, mac, comp := msg.CiphersClientServer, msg.MACsClientServer, msg.CompressionClientServer
	if sender == protocol.ModeServer {
		enc, mac, comp = msg.CiphersServerClient, msg.MACsServerClient, msg.CompressionServerClient
	}
	s := strings.Join([]string{
		strings.Join(msg.KexAlgorithms, ","),
		strings.Join(enc, ","),
		strings.Join(mac, ","),
		strings.Join(comp, ","),
	}, ";")
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
