//go:build unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ShutdownBoth disables sends and receives on conn without closing it.
func ShutdownBoth(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return closeHalves(conn)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = unix.Shutdown(int(fd), unix.SHUT_RDWR)
	}); err != nil {
		return err
	}
	return serr
}
