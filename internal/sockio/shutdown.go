// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import (
	"net"
)

// SetZeroLinger arranges for the next Close to send RST instead of FIN.
func SetZeroLinger(conn net.Conn) error {
	if l, ok := conn.(interface{ SetLinger(sec int) error }); ok {
		return l.SetLinger(0)
	}
	return nil
}

// closeHalves closes both directions through the net.Conn half-close API.
func closeHalves(conn net.Conn) error {
	var werr, rerr error
	if c, ok := conn.(interface{ CloseWrite() error }); ok {
		werr = c.CloseWrite()
	}
	if c, ok := conn.(interface{ CloseRead() error }); ok {
		rerr = c.CloseRead()
	}
	if werr != nil {
		return werr
	}
	return rerr
}
