//go:build !linux

package nlconn

import "fmt"

// errnoError is a portable fallback used on platforms without a native
// netlink-family transport; see endpoint_other.go.
func errnoError(n int32) error {
	return fmt.Errorf("nlconn: errno %d", n)
}
