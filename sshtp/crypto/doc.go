// Package crypto provides the negotiable packet protection algorithms of the
// SSH transport and the key derivation they are keyed from.
//
// Algorithms are looked up by their SSH names through a Registry built once
// at configuration time:
//   - Ciphers: none, aes128-ctr, aes192-ctr, aes256-ctr
//   - MACs: none, hmac-sha1, hmac-sha2-256, hmac-sha2-512
//   - Key derivation: HASH(K || H || letter || session_id), extended as needed
//
// The none variants implement the same interfaces and protect nothing; they
// are what a connection uses before its first key exchange completes.
package crypto
