//go:build !linux

package nlconn

import "net"

// Connect is unimplemented outside Linux: AF_NETLINK is a Linux-specific
// address family.
func (e *Endpoint) Connect(protocol int) error {
	return ErrAFNotSupported
}

// AdoptConn is unimplemented outside Linux.
func (e *Endpoint) AdoptConn(conn net.Conn, protocol int) error {
	return ErrAFNotSupported
}
