package nlconn

// transport is the small capability set the Endpoint composes its default
// Connect/Send/Recv/Close implementation from (spec.md §9's "Re-architecture
// guidance": replace raw function-pointer overrides with polymorphism over
// a capability set).
type transport interface {
	// Bind binds the socket for protocol at localPort (0 for kernel-
	// assigned) and returns the address the kernel assigned, configuring
	// the receive buffer size and SCM_CREDENTIALS passing along the way.
	Bind(protocol int, localPort uint32, bufsize int, passCred bool) (Address, error)

	// SendTo writes one datagram to dest, optionally with credentials.
	SendTo(dest Address, buf []byte, creds *Credentials) (int, error)

	// RecvFrom reads one datagram. peek requests PEEK|TRUNC sizing.
	// wantCreds requests SCM_CREDENTIALS parsing.
	RecvFrom(bufsize int, peek, wantCreds bool) (from Address, buf []byte, creds *Credentials, err error)

	Close() error
	Fd() int
}
