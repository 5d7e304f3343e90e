//go:build linux || freebsd || netbsd || openbsd || dragonfly
// +build linux freebsd netbsd openbsd dragonfly

package nettools

import (
	"golang.org/x/sys/unix"
)

var _ = func() error { // make sure this executes before func init()
	supported[ModeSelect] = selectForRead
	return nil
}()

const fdSetSize = 1024

func selectForRead(fd int) (bool, error) {
	if fd >= fdSetSize {
		return false, unix.EINVAL
	}
	var set unix.FdSet
	set.Set(fd)
	tv := unix.Timeval{}
	n, err := unix.Select(fd+1, &set, nil, nil, &tv)
	if err != nil || n == 0 {
		return false, err
	}
	return set.IsSet(fd), nil
}
