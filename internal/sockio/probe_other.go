//go:build !unix

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import "net"

func waitReadable(net.Conn) error { return nil }
