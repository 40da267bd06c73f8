//go:build unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// waitReadable parks on the netpoller until a one byte MSG_PEEK succeeds or
// fails with something other than EAGAIN.
func waitReadable(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	var (
		probe [1]byte
		perr  error
	)
	err = rc.Read(func(fd uintptr) bool {
		for {
			_, _, e := unix.Recvfrom(int(fd), probe[:], unix.MSG_PEEK)
			switch e {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				return false
			}
			perr = e
			return true
		}
	})
	if err != nil {
		return err
	}
	return perr
}
