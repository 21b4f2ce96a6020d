//go:build !windows

package pool

import "golang.org/x/sys/unix"

func init() {
	PageSize = unix.Getpagesize()
}
