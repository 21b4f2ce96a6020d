//go:build windows

package pool

import "golang.org/x/sys/windows"

func init() {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	PageSize = int(info.PageSize)
}
