//go:build !unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import "net"

// ShutdownBoth disables sends and receives on conn without closing it.
func ShutdownBoth(conn net.Conn) error { return closeHalves(conn) }
