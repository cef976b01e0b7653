// Package session implements the SSH transport state machine.
//
// A Peer moves through identification exchange, key exchange and the open
// state, where it carries packets for higher layers such as user
// authentication or connection multiplexing. Packets are framed, padded,
// encrypted and authenticated as negotiated during key exchange.
//
// Every blocking operation takes a context. When the context is done the
// peer is closed, which unblocks pending I/O; the operation then returns
// the context's cause. Any protocol error closes the peer as well, after
// which all operations fail with ErrPeerClosed.
package session
