// Package sshtp implements the SSH transport layer protocol: the version
// exchange, the binary packet protocol, key exchange with server
// authentication, and the keys that protect every packet afterwards.
//
// The building blocks live in subpackages. protocol holds the wire codec,
// crypto the ciphers, MACs and key derivation, kex the key exchange
// methods, hostkey the server host keys, and session the peer state
// machine. Endpoint ties them to a QUIC listener for applications that
// just want an encrypted, authenticated packet stream.
package sshtp
