//go:build linux

package nlconn

import "golang.org/x/sys/unix"

// errnoError converts a positive errno magnitude into a Go error using the
// platform's unix.Errno, matching how golang.org/x/sys/unix surfaces
// syscall failures elsewhere in this package.
func errnoError(n int32) error {
	return unix.Errno(n)
}
