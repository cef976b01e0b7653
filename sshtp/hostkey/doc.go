// Package hostkey implements server host keys: the public key blob format,
// signing and verification for ssh-rsa, rsa-sha2-256, rsa-sha2-512 and
// ssh-ed25519, fingerprints, and the client side trust callback.
package hostkey
