//go:build !windows

package pool

import "syscall"

func closeRawFD(fd int) error {
	return syscall.Close(fd)
}
