package nlconn

// Address identifies one endpoint of a netlink-family socket: a port id
// (process id or kernel-synthesized unique value) plus the multicast group
// bitmask the socket is subscribed to. It plays the role of struct
// sockaddr_nl in original_source/lib/nl.c.
type Address struct {
	PortID uint32
	Groups uint32
}

// Credentials is the identity tuple carried by an SCM_CREDENTIALS ancillary
// record: the sending process's pid, uid and gid at the time of the send
// syscall.
type Credentials struct {
	PID int32
	UID uint32
	GID uint32
}
